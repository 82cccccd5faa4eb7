package adapter

import (
	"context"
	"time"
)

// EntryPointType distinguishes how a conference can be joined.
type EntryPointType string

const (
	EntryPointVideo EntryPointType = "video"
	EntryPointPhone EntryPointType = "phone"
)

// EntryPoint is one way into a conference: the join link or a dial-in number.
type EntryPoint struct {
	Type  EntryPointType `json:"type"`
	URI   string         `json:"uri"`
	Label string         `json:"label"`
	PIN   string         `json:"pin"`
}

// ConferenceData carries the conference attached to a calendar event. The
// create request (id + solution) is only populated when a conference is being
// requested for a brand-new event; the provider fills the rest on insert.
type ConferenceData struct {
	RequestID    string       `json:"request_id"`
	SolutionType string       `json:"solution_type"`
	ConferenceID string       `json:"conference_id"`
	EntryPoints  []EntryPoint `json:"entry_points"`
}

// Attendee is one invited guest of a remote event.
type Attendee struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"response_status"`
	Comment        string `json:"comment"`
}

// ReminderOverride is one provider-side reminder rule, lead time in minutes.
type ReminderOverride struct {
	Method  string `json:"method"`
	Minutes int64  `json:"minutes"`
}

// Attachment is a file the provider attached to an event (recordings, chat
// transcripts).
type Attachment struct {
	FileID   string `json:"file_id"`
	Title    string `json:"title"`
	MimeType string `json:"mime_type"`
}

// Event is the provider-neutral representation of a remote calendar event.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status"`
	HTMLLink    string    `json:"html_link"`
	ICalUID     string    `json:"ical_uid"`

	Attendees  []Attendee         `json:"attendees"`
	Reminders  []ReminderOverride `json:"reminders"`
	Conference *ConferenceData    `json:"conference"`

	Attachments []Attachment `json:"attachments"`
}

// EventPage is one page of incremental event changes.
type EventPage struct {
	Items         []Event `json:"items"`
	NextSyncToken string  `json:"next_sync_token"`
}

// Channel is a registered push-notification channel for calendar changes.
type Channel struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Expiration time.Time `json:"expiration"`
}

// CalendarAdapter is the capability surface of the remote calendar provider.
// Implementations map provider errors onto ErrNotFound / ErrGone.
type CalendarAdapter interface {
	// GetEvent fetches the current remote representation of an event.
	GetEvent(ctx context.Context, eventID string) (*Event, error)

	// InsertEvent creates the event, requesting a conference when
	// event.Conference carries a create request. notifyAll controls
	// whether guests are emailed about the change.
	InsertEvent(ctx context.Context, event *Event, notifyAll bool) (*Event, error)

	// UpdateEvent replaces the remote event body.
	UpdateEvent(ctx context.Context, event *Event, notifyAll bool) (*Event, error)

	// DeleteEvent removes the event. A provider "gone" response is
	// surfaced as ErrGone so callers can treat it as already satisfied.
	DeleteEvent(ctx context.Context, eventID string, notifyAll bool) error

	// ListEventsSince returns every event changed since the sync token,
	// together with the token for the next pass.
	ListEventsSince(ctx context.Context, syncToken string) (*EventPage, error)

	// Watch registers a push channel delivering change notifications to
	// callbackURL.
	Watch(ctx context.Context, channelID, callbackURL string) (*Channel, error)

	// StopChannel unregisters a previously created channel, best effort.
	StopChannel(ctx context.Context, channelID, resourceID string) error
}
