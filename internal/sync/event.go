package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/univel/meetsync/internal/adapter"
	"github.com/univel/meetsync/internal/model"
)

const conferenceSolution = "hangoutsMeet"

// EventSynchronizer projects the converged meeting state onto the remote
// calendar event and copies the provider-assigned identifiers back.
type EventSynchronizer struct {
	cal adapter.CalendarAdapter
	now func() time.Time
}

func NewEventSynchronizer(cal adapter.CalendarAdapter) *EventSynchronizer {
	return &EventSynchronizer{cal: cal, now: time.Now}
}

// Sync inserts or updates the remote event for sc.Meeting. Insert semantics
// apply only while RemoteEventID is empty; once set, every save updates.
// remote is the freshly fetched provider state for updates; its conference
// data must ride along on the update body, because the provider treats the
// update as a full-resource replacement and drops any conference the body
// omits. On success the meeting record carries the remote identifiers, join
// URI and dial-in data, and sc.RemoteEvent holds the provider's response.
func (s *EventSynchronizer) Sync(ctx context.Context, sc *MeetingSyncContext, remote *adapter.Event) error {
	m := sc.Meeting
	event := s.buildEvent(sc)

	var (
		saved *adapter.Event
		err   error
	)
	if m.RemoteEventID == "" {
		// A fresh idempotency request id is generated once, on first
		// create, and reused by the provider to dedupe the conference.
		event.Conference = &adapter.ConferenceData{
			RequestID:    uuid.NewString(),
			SolutionType: conferenceSolution,
		}
		saved, err = s.cal.InsertEvent(ctx, event, m.Notify)
		if err != nil {
			return fmt.Errorf("insert remote event: %w", err)
		}
	} else {
		event.ID = m.RemoteEventID
		if remote != nil {
			event.Conference = remote.Conference
		}
		saved, err = s.cal.UpdateEvent(ctx, event, m.Notify)
		if err != nil {
			return fmt.Errorf("update remote event: %w", err)
		}
	}

	applyRemoteIdentifiers(m, saved)
	m.TimeModified = s.now().Unix()
	sc.RemoteEvent = saved
	return nil
}

// DeleteRemote removes the meeting's remote event. A provider "gone"
// response means someone already deleted it, which is the desired end state.
func (s *EventSynchronizer) DeleteRemote(ctx context.Context, m *model.Meeting) error {
	if m.RemoteEventID == "" {
		return nil
	}
	err := s.cal.DeleteEvent(ctx, m.RemoteEventID, m.Notify)
	if err != nil && !errors.Is(err, adapter.ErrGone) {
		return fmt.Errorf("delete remote event: %w", err)
	}
	return nil
}

func (s *EventSynchronizer) buildEvent(sc *MeetingSyncContext) *adapter.Event {
	m := sc.Meeting
	event := &adapter.Event{
		Summary:     m.Name,
		Description: m.Description,
		Start:       time.Unix(m.TimeStart, 0).UTC(),
		End:         time.Unix(m.TimeEnd, 0).UTC(),
	}

	for _, p := range sc.Participants {
		u, ok := sc.Users[p.UserID]
		if !ok || u.Email == "" {
			continue
		}
		event.Attendees = append(event.Attendees, adapter.Attendee{
			Email:          u.Email,
			ResponseStatus: string(p.Status),
			Comment:        p.Comment,
		})
	}

	for _, r := range sc.Reminders {
		event.Reminders = append(event.Reminders, adapter.ReminderOverride{
			Method:  string(r.Method),
			Minutes: r.Minutes(),
		})
	}

	return event
}

// applyRemoteIdentifiers copies provider-owned fields onto the local record:
// event id, link, iCal UID, conference ids and the join/dial-in entry points.
func applyRemoteIdentifiers(m *model.Meeting, saved *adapter.Event) {
	m.RemoteEventID = saved.ID
	m.RemoteEventURI = saved.HTMLLink
	m.ICalUID = saved.ICalUID

	if saved.Conference == nil {
		return
	}
	if saved.Conference.RequestID != "" {
		m.RemoteRequestID = saved.Conference.RequestID
	}
	if saved.Conference.ConferenceID != "" {
		m.RemoteMeetingID = saved.Conference.ConferenceID
	}
	for _, ep := range saved.Conference.EntryPoints {
		switch ep.Type {
		case adapter.EntryPointVideo:
			m.JoinURI = ep.URI
		case adapter.EntryPointPhone:
			m.PhoneLabel = ep.Label
			m.PhonePIN = ep.PIN
		}
	}
}
