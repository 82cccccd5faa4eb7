// Package store persists meetings and their reconciled satellite rows.
package store

import (
	"context"
	"errors"

	"github.com/univel/meetsync/internal/model"
)

var (
	ErrMeetingNotFound   = errors.New("meeting not found")
	ErrRecordingNotFound = errors.New("recording not found")
	ErrFileNotFound      = errors.New("stored file not found")
)

// MeetingStore persists meeting records.
type MeetingStore interface {
	CreateMeeting(ctx context.Context, m *model.Meeting) error
	UpdateMeeting(ctx context.Context, m *model.Meeting) error
	GetMeeting(ctx context.Context, id int64) (*model.Meeting, error)
	GetMeetingByRemoteEventID(ctx context.Context, eventID string) (*model.Meeting, error)
	// ListCourseMeetingsEndingAfter returns a course's meetings whose end
	// time is at or after ts, i.e. meetings that still lie ahead.
	ListCourseMeetingsEndingAfter(ctx context.Context, courseID, ts int64) ([]model.Meeting, error)
	// DeleteMeeting removes the meeting row and cascades to participants
	// and reminders.
	DeleteMeeting(ctx context.Context, id int64) error
}

// ParticipantStore persists the attendee rows of meetings.
type ParticipantStore interface {
	ListParticipants(ctx context.Context, meetingID int64) ([]model.Participant, error)
	InsertParticipant(ctx context.Context, p *model.Participant) error
	UpdateParticipant(ctx context.Context, p *model.Participant) error
	DeleteParticipantsByUser(ctx context.Context, meetingID int64, userIDs []int64) error
}

// ReminderStore persists reminder rows, positionally ordered by id.
type ReminderStore interface {
	ListReminders(ctx context.Context, meetingID int64) ([]model.Reminder, error)
	InsertReminder(ctx context.Context, r *model.Reminder) error
	UpdateReminder(ctx context.Context, r *model.Reminder) error
	DeleteReminders(ctx context.Context, ids []int64) error
}

// RecordingStore persists discovered recordings. Soft-deleted rows stay.
type RecordingStore interface {
	// ListRecordings returns a meeting's recordings ordered by remote
	// creation time; soft-deleted rows are excluded unless includeDeleted.
	ListRecordings(ctx context.Context, meetingID int64, includeDeleted bool) ([]model.Recording, error)
	GetRecording(ctx context.Context, id int64) (*model.Recording, error)
	// GetRecordingByRemoteFileID matches any row, soft-deleted included,
	// so a deleted recording shields its remote file from re-insertion.
	GetRecordingByRemoteFileID(ctx context.Context, meetingID int64, fileID string) (*model.Recording, error)
	// FindRecordingByNameStem matches rows whose remote file name contains
	// stem. Fuzzy on purpose; see the chat-log association contract.
	FindRecordingByNameStem(ctx context.Context, meetingID int64, stem string) (*model.Recording, error)
	InsertRecording(ctx context.Context, r *model.Recording) error
	UpdateRecording(ctx context.Context, r *model.Recording) error
}

// FileStore persists local blobs (fetched chat transcripts).
type FileStore interface {
	PutStoredFile(ctx context.Context, f *model.StoredFile) error
	GetStoredFile(ctx context.Context, id int64) (*model.StoredFile, error)
}

// SyncStateStore persists the single process-wide sync cursor row.
type SyncStateStore interface {
	GetSyncState(ctx context.Context) (*model.SyncState, error)
	SaveSyncState(ctx context.Context, s *model.SyncState) error
}

// Store is the full persistence surface. Transaction runs fn against a store
// whose writes commit atomically; any error rolls everything back.
type Store interface {
	MeetingStore
	ParticipantStore
	ReminderStore
	RecordingStore
	FileStore
	SyncStateStore

	Transaction(ctx context.Context, fn func(tx Store) error) error
}
