// Package sync keeps local meeting records, their satellite rows and the
// remote calendar event converged.
package sync

import (
	"github.com/univel/meetsync/internal/adapter"
	"github.com/univel/meetsync/internal/enrol"
	"github.com/univel/meetsync/internal/model"
)

// MeetingSyncContext carries one meeting's save pipeline state between
// stages. It is built incrementally: the participant stage fills Users and
// Participants, the reminder stage fills Reminders, the event stage fills
// RemoteEvent and writes the remote identifiers back onto Meeting.
type MeetingSyncContext struct {
	Meeting      *model.Meeting
	Users        map[int64]enrol.User
	Participants []model.Participant
	Reminders    []model.Reminder
	RemoteEvent  *adapter.Event
}
