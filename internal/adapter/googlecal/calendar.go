package googlecal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/univel/meetsync/internal/adapter"
)

const conferenceSolution = "hangoutsMeet"

// Calendar implements adapter.CalendarAdapter against one Google calendar.
type Calendar struct {
	service    *calendar.Service
	calendarID string
}

func sendUpdates(notifyAll bool) string {
	if notifyAll {
		return "all"
	}
	return "none"
}

// GetEvent fetches the remote event.
func (c *Calendar) GetEvent(ctx context.Context, eventID string) (*adapter.Event, error) {
	ev, err := c.service.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get event: %w", mapError(err))
	}
	return fromGoogleEvent(ev), nil
}

// InsertEvent creates the event with conference data enabled.
func (c *Calendar) InsertEvent(ctx context.Context, event *adapter.Event, notifyAll bool) (*adapter.Event, error) {
	body := toGoogleEvent(event)
	ev, err := c.service.Events.Insert(c.calendarID, body).
		ConferenceDataVersion(1).
		SendUpdates(sendUpdates(notifyAll)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to insert event: %w", mapError(err))
	}
	return fromGoogleEvent(ev), nil
}

// UpdateEvent replaces the remote event body.
func (c *Calendar) UpdateEvent(ctx context.Context, event *adapter.Event, notifyAll bool) (*adapter.Event, error) {
	body := toGoogleEvent(event)
	ev, err := c.service.Events.Update(c.calendarID, event.ID, body).
		ConferenceDataVersion(1).
		SendUpdates(sendUpdates(notifyAll)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to update event: %w", mapError(err))
	}
	return fromGoogleEvent(ev), nil
}

// DeleteEvent removes the event. Gone responses surface as adapter.ErrGone.
func (c *Calendar) DeleteEvent(ctx context.Context, eventID string, notifyAll bool) error {
	err := c.service.Events.Delete(c.calendarID, eventID).
		SendUpdates(sendUpdates(notifyAll)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to delete event: %w", mapError(err))
	}
	return nil
}

// ListEventsSince returns all events changed since the sync token.
func (c *Calendar) ListEventsSince(ctx context.Context, syncToken string) (*adapter.EventPage, error) {
	page := &adapter.EventPage{}
	call := c.service.Events.List(c.calendarID).Context(ctx)
	if syncToken != "" {
		call = call.SyncToken(syncToken)
	}
	for {
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list events: %w", mapError(err))
		}
		for _, item := range res.Items {
			page.Items = append(page.Items, *fromGoogleEvent(item))
		}
		if res.NextPageToken == "" {
			page.NextSyncToken = res.NextSyncToken
			return page, nil
		}
		call = call.PageToken(res.NextPageToken)
	}
}

// Watch registers a web_hook push channel on the calendar.
func (c *Calendar) Watch(ctx context.Context, channelID, callbackURL string) (*adapter.Channel, error) {
	ch, err := c.service.Events.Watch(c.calendarID, &calendar.Channel{
		Id:      channelID,
		Type:    "web_hook",
		Address: callbackURL,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to watch calendar: %w", mapError(err))
	}
	return &adapter.Channel{
		ID:         ch.Id,
		ResourceID: ch.ResourceId,
		Expiration: time.UnixMilli(ch.Expiration),
	}, nil
}

// StopChannel unregisters a push channel.
func (c *Calendar) StopChannel(ctx context.Context, channelID, resourceID string) error {
	err := c.service.Channels.Stop(&calendar.Channel{
		Id:         channelID,
		ResourceId: resourceID,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to stop channel: %w", mapError(err))
	}
	return nil
}

// toGoogleEvent builds the wire body for insert/update. Guest flags are
// pinned so attendees cannot modify the event, invite others, or see the
// full guest list.
func toGoogleEvent(e *adapter.Event) *calendar.Event {
	no := false
	ev := &calendar.Event{
		Summary:     e.Summary,
		Description: e.Description,
		// Times go out normalized to UTC: the host's time.Local may be a
		// zone the provider rejects ("Local" on hosts without TZ set).
		Start: &calendar.EventDateTime{
			DateTime: e.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: e.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		GuestsCanModify:         false,
		GuestsCanInviteOthers:   &no,
		GuestsCanSeeOtherGuests: &no,
		ForceSendFields:         []string{"GuestsCanInviteOthers", "GuestsCanSeeOtherGuests"},
	}

	for _, a := range e.Attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{
			Email:          a.Email,
			ResponseStatus: a.ResponseStatus,
			Comment:        a.Comment,
		})
	}

	overrides := []*calendar.EventReminder{}
	for _, r := range e.Reminders {
		overrides = append(overrides, &calendar.EventReminder{
			Method:  r.Method,
			Minutes: r.Minutes,
		})
	}
	ev.Reminders = &calendar.EventReminders{
		UseDefault:      false,
		Overrides:       overrides,
		ForceSendFields: []string{"UseDefault"},
	}

	// The update endpoint replaces the whole resource under
	// conferenceDataVersion=1, so an existing conference must be sent back
	// in full (id, solution, entry points) or the provider removes it.
	if conf := e.Conference; conf != nil {
		solution := conf.SolutionType
		if solution == "" {
			solution = conferenceSolution
		}
		cd := &calendar.ConferenceData{}
		if conf.RequestID != "" {
			cd.CreateRequest = &calendar.CreateConferenceRequest{
				RequestId: conf.RequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: solution,
				},
			}
		}
		if conf.ConferenceID != "" {
			cd.ConferenceId = conf.ConferenceID
			cd.ConferenceSolution = &calendar.ConferenceSolution{
				Key: &calendar.ConferenceSolutionKey{Type: solution},
			}
			for _, ep := range conf.EntryPoints {
				cd.EntryPoints = append(cd.EntryPoints, &calendar.EntryPoint{
					EntryPointType: string(ep.Type),
					Uri:            ep.URI,
					Label:          ep.Label,
					Pin:            ep.PIN,
				})
			}
		}
		if cd.CreateRequest != nil || cd.ConferenceId != "" {
			ev.ConferenceData = cd
		}
	}

	return ev
}

func fromGoogleEvent(ev *calendar.Event) *adapter.Event {
	out := &adapter.Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Status:      ev.Status,
		HTMLLink:    ev.HtmlLink,
		ICalUID:     ev.ICalUID,
	}

	if ev.Start != nil {
		out.Start, _ = time.Parse(time.RFC3339, ev.Start.DateTime)
	}
	if ev.End != nil {
		out.End, _ = time.Parse(time.RFC3339, ev.End.DateTime)
	}

	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, adapter.Attendee{
			Email:          a.Email,
			ResponseStatus: a.ResponseStatus,
			Comment:        a.Comment,
		})
	}

	if ev.Reminders != nil {
		for _, r := range ev.Reminders.Overrides {
			out.Reminders = append(out.Reminders, adapter.ReminderOverride{
				Method:  r.Method,
				Minutes: r.Minutes,
			})
		}
	}

	if cd := ev.ConferenceData; cd != nil {
		conf := &adapter.ConferenceData{ConferenceID: cd.ConferenceId}
		if cd.CreateRequest != nil {
			conf.RequestID = cd.CreateRequest.RequestId
			if cd.CreateRequest.ConferenceSolutionKey != nil {
				conf.SolutionType = cd.CreateRequest.ConferenceSolutionKey.Type
			}
		}
		if cd.ConferenceSolution != nil && cd.ConferenceSolution.Key != nil {
			conf.SolutionType = cd.ConferenceSolution.Key.Type
		}
		for _, ep := range cd.EntryPoints {
			conf.EntryPoints = append(conf.EntryPoints, adapter.EntryPoint{
				Type:  adapter.EntryPointType(ep.EntryPointType),
				URI:   ep.Uri,
				Label: ep.Label,
				PIN:   ep.Pin,
			})
		}
		out.Conference = conf
	}

	for _, att := range ev.Attachments {
		out.Attachments = append(out.Attachments, adapter.Attachment{
			FileID:   att.FileId,
			Title:    att.Title,
			MimeType: att.MimeType,
		})
	}

	return out
}
