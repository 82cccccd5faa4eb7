package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/univel/meetsync/internal/adapter"
	"github.com/univel/meetsync/internal/enrol"
	"github.com/univel/meetsync/internal/model"
	"github.com/univel/meetsync/internal/notify"
	"github.com/univel/meetsync/internal/session"
	"github.com/univel/meetsync/internal/store"
)

// ErrRoomNotAvailable is returned when joining outside the meeting window.
var ErrRoomNotAvailable = errors.New("meeting room is not available")

// Deps carries everything a Service needs.
type Deps struct {
	Store     store.Store
	Calendar  adapter.CalendarAdapter
	Storage   adapter.StorageAdapter
	Reports   adapter.ReportsAdapter
	Roster    enrol.Roster
	Publisher notify.Publisher
	Locker    session.Locker

	CallbackURL string
	FetchWindow int64
	CacheWindow int64
	Logger      *slog.Logger
}

// Service orchestrates the reconcilers behind the lifecycle entry points:
// save, delete, restore, view/refresh, webhook and enrolment changes.
type Service struct {
	store     store.Store
	cal       adapter.CalendarAdapter
	reports   adapter.ReportsAdapter
	roster    enrol.Roster
	publisher notify.Publisher
	locker    session.Locker

	participants *ParticipantReconciler
	reminders    *ReminderReconciler
	events       *EventSynchronizer
	recordings   *RecordingReconciler
	channels     *ChannelManager
	webhook      *WebhookProcessor

	fetchWindow int64
	cacheWindow int64
	owner       string
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(d Deps) *Service {
	participants := NewParticipantReconciler(d.Roster)
	recordings := NewRecordingReconciler(d.Storage, d.Logger)
	return &Service{
		store:        d.Store,
		cal:          d.Calendar,
		reports:      d.Reports,
		roster:       d.Roster,
		publisher:    d.Publisher,
		locker:       d.Locker,
		participants: participants,
		reminders:    NewReminderReconciler(),
		events:       NewEventSynchronizer(d.Calendar),
		recordings:   recordings,
		channels:     NewChannelManager(d.Calendar, d.CallbackURL, d.Logger),
		webhook:      NewWebhookProcessor(d.Store, d.Calendar, participants, recordings, d.Publisher, d.Logger),
		fetchWindow:  d.FetchWindow,
		cacheWindow:  d.CacheWindow,
		owner:        uuid.NewString(),
		logger:       d.Logger,
		now:          time.Now,
	}
}

// savePipeline runs the strict participants -> reminders -> remote event
// order and persists the resulting meeting record. remote may be nil for
// meetings that never synchronized.
func (s *Service) savePipeline(ctx context.Context, tx store.Store, m *model.Meeting, desired []model.Reminder, remote *adapter.Event) error {
	sc := &MeetingSyncContext{Meeting: m}
	if err := s.participants.Reconcile(ctx, tx, sc, remote); err != nil {
		return err
	}
	if err := s.reminders.Reconcile(ctx, tx, sc, desired); err != nil {
		return err
	}
	if err := s.events.Sync(ctx, sc, remote); err != nil {
		return err
	}
	if err := tx.UpdateMeeting(ctx, m); err != nil {
		return fmt.Errorf("update meeting %d: %w", m.ID, err)
	}
	return nil
}

// CreateMeeting persists a new meeting and runs the full save pipeline. On
// return m carries the local id and the remote identifiers.
func (s *Service) CreateMeeting(ctx context.Context, m *model.Meeting, desired []model.Reminder) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.channels.Ensure(ctx, tx); err != nil {
			return err
		}
		now := s.now().Unix()
		m.TimeCreated = now
		m.TimeModified = now
		if err := tx.CreateMeeting(ctx, m); err != nil {
			return fmt.Errorf("create meeting: %w", err)
		}
		return s.savePipeline(ctx, tx, m, desired, nil)
	})
}

// UpdateMeeting re-runs the save pipeline for an edited meeting, merging the
// current remote state (attendee responses) before rebuilding the event.
func (s *Service) UpdateMeeting(ctx context.Context, m *model.Meeting, desired []model.Reminder) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.channels.Ensure(ctx, tx); err != nil {
			return err
		}
		remote, err := s.fetchRemote(ctx, m)
		if err != nil {
			return err
		}
		return s.savePipeline(ctx, tx, m, desired, remote)
	})
}

// DeleteMeeting removes the meeting and its satellite rows. The remote event
// delete is best effort in exactly one sense: a provider "gone" answer means
// the desired state already holds.
func (s *Service) DeleteMeeting(ctx context.Context, meetingID int64) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.channels.Ensure(ctx, tx); err != nil {
			return err
		}
		m, err := tx.GetMeeting(ctx, meetingID)
		if err != nil {
			return err
		}
		if err := s.events.DeleteRemote(ctx, m); err != nil {
			return err
		}
		return tx.DeleteMeeting(ctx, meetingID)
	})
}

// RestoreMeeting re-runs the full pipeline for a meeting restored from
// backup: the local row exists but the remote identifiers belong to the
// source site, so they are cleared and a fresh remote event is inserted.
func (s *Service) RestoreMeeting(ctx context.Context, meetingID int64) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.channels.Ensure(ctx, tx); err != nil {
			return err
		}
		m, err := tx.GetMeeting(ctx, meetingID)
		if err != nil {
			return err
		}
		m.RemoteEventID = ""
		m.RemoteEventURI = ""
		m.RemoteMeetingID = ""
		m.RemoteRequestID = ""
		m.ICalUID = ""
		m.JoinURI = ""
		m.PhoneLabel = ""
		m.PhonePIN = ""

		desired, err := tx.ListReminders(ctx, meetingID)
		if err != nil {
			return fmt.Errorf("list reminders: %w", err)
		}
		return s.savePipeline(ctx, tx, m, desired, nil)
	})
}

// UpdateMeetingName pushes just the new title, locally and remotely, without
// touching participants or reminders.
func (s *Service) UpdateMeetingName(ctx context.Context, meetingID int64, name string) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		m, err := tx.GetMeeting(ctx, meetingID)
		if err != nil {
			return err
		}
		m.Name = name
		m.TimeModified = s.now().Unix()

		if m.RemoteEventID != "" {
			ev, err := s.cal.GetEvent(ctx, m.RemoteEventID)
			if err != nil {
				return fmt.Errorf("get remote event: %w", err)
			}
			ev.Summary = name
			if _, err := s.cal.UpdateEvent(ctx, ev, false); err != nil {
				return fmt.Errorf("rename remote event: %w", err)
			}
		}
		return tx.UpdateMeeting(ctx, m)
	})
}

// FetchRecordings reconciles the meeting's recordings against the remote
// event attachments. Automatic passes are gated by the fetch/cache windows;
// forced refreshes bypass the gates. The pass is skipped when another process
// holds the meeting's reconcile lock.
func (s *Service) FetchRecordings(ctx context.Context, meetingID int64, forced bool) error {
	m, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return err
	}
	if m.RemoteEventID == "" {
		return nil
	}
	if !ShouldFetch(m, s.now().Unix(), s.fetchWindow, s.cacheWindow, forced) {
		return nil
	}

	if _, err := s.locker.Acquire(ctx, meetingID, s.owner); err != nil {
		if errors.Is(err, session.ErrLocked) {
			s.logger.DebugContext(ctx, "recordings pass already running",
				"meeting_id", meetingID)
			return nil
		}
		return err
	}
	defer func() {
		if err := s.locker.Release(ctx, meetingID, s.owner); err != nil {
			s.logger.WarnContext(ctx, "failed to release reconcile lock",
				"meeting_id", meetingID, "error", err)
		}
	}()

	var pending []notify.Event
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.channels.Ensure(ctx, tx); err != nil {
			return err
		}
		ev, err := s.cal.GetEvent(ctx, m.RemoteEventID)
		if err != nil {
			return fmt.Errorf("get remote event: %w", err)
		}
		pending, err = s.recordings.Reconcile(ctx, tx, m, ev.Attachments, forced)
		if err != nil {
			return err
		}
		// Advanced even when nothing changed, so the next automatic
		// trigger waits a full cache window.
		m.RecordingsLastCheck = s.now().Unix()
		return tx.UpdateMeeting(ctx, m)
	})
	if err != nil {
		return err
	}
	for _, ev := range pending {
		s.publisher.Publish(ctx, ev)
	}
	return nil
}

// VerifyWebhookChannel exposes the channel check to the HTTP layer.
func (s *Service) VerifyWebhookChannel(ctx context.Context, channelID string) (bool, error) {
	return s.webhook.VerifyChannel(ctx, channelID)
}

// ProcessWebhook runs one incremental sync batch.
func (s *Service) ProcessWebhook(ctx context.Context) error {
	return s.webhook.Process(ctx)
}

// AddUserToMeetings reacts to a course enrolment by resynchronizing every
// future meeting of the course; the reconciler picks up the new user.
func (s *Service) AddUserToMeetings(ctx context.Context, courseID, userID int64) error {
	return s.resyncCourse(ctx, courseID)
}

// RemoveUserFromMeetings reacts to an unenrolment the same way: the roster
// is the source of truth, so a plain resync drops the user everywhere.
func (s *Service) RemoveUserFromMeetings(ctx context.Context, courseID, userID int64) error {
	return s.resyncCourse(ctx, courseID)
}

func (s *Service) resyncCourse(ctx context.Context, courseID int64) error {
	meetings, err := s.store.ListCourseMeetingsEndingAfter(ctx, courseID, s.now().Unix())
	if err != nil {
		return fmt.Errorf("list course meetings: %w", err)
	}
	for i := range meetings {
		m := &meetings[i]
		err := s.store.Transaction(ctx, func(tx store.Store) error {
			if err := s.channels.Ensure(ctx, tx); err != nil {
				return err
			}
			remote, err := s.fetchRemote(ctx, m)
			if err != nil {
				return err
			}
			desired, err := tx.ListReminders(ctx, m.ID)
			if err != nil {
				return fmt.Errorf("list reminders: %w", err)
			}
			return s.savePipeline(ctx, tx, m, desired, remote)
		})
		if err != nil {
			return fmt.Errorf("resync meeting %d: %w", m.ID, err)
		}
	}
	return nil
}

func (s *Service) fetchRemote(ctx context.Context, m *model.Meeting) (*adapter.Event, error) {
	if m.RemoteEventID == "" {
		return nil, nil
	}
	ev, err := s.cal.GetEvent(ctx, m.RemoteEventID)
	if err != nil {
		return nil, fmt.Errorf("get remote event: %w", err)
	}
	return ev, nil
}

// JoinMeeting checks the room window and hands out the join URI.
func (s *Service) JoinMeeting(ctx context.Context, meetingID, userID int64) (string, error) {
	m, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return "", err
	}
	if MeetingRoomState(m, s.now().Unix()) != RoomOpen {
		return "", ErrRoomNotAvailable
	}
	s.publisher.Publish(ctx, notify.Event{
		Name:      notify.EventMeetingJoined,
		CourseID:  m.CourseID,
		MeetingID: m.ID,
		UserID:    userID,
	})
	return m.JoinURI, nil
}

// UpdateRecording edits the user-facing fields of a recording.
func (s *Service) UpdateRecording(ctx context.Context, recordingID int64, name, description string, hidden bool) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		rec, err := tx.GetRecording(ctx, recordingID)
		if err != nil {
			return err
		}
		if rec.Deleted {
			return store.ErrRecordingNotFound
		}
		rec.Name = name
		rec.Description = description
		rec.Hidden = hidden
		rec.TimeModified = s.now().Unix()
		return tx.UpdateRecording(ctx, rec)
	})
}

// DeleteRecording soft-deletes: the row stays so reconciliation never brings
// the remote file back.
func (s *Service) DeleteRecording(ctx context.Context, recordingID, userID int64) error {
	var rec *model.Recording
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		rec, err = tx.GetRecording(ctx, recordingID)
		if err != nil {
			return err
		}
		if rec.Deleted {
			return nil
		}
		rec.Deleted = true
		rec.TimeModified = s.now().Unix()
		return tx.UpdateRecording(ctx, rec)
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(ctx, notify.Event{
		Name:      notify.EventRecordingDeleted,
		CourseID:  rec.CourseID,
		MeetingID: rec.MeetingID,
		ObjectID:  rec.ID,
		UserID:    userID,
	})
	return nil
}

// RecordingPlayed records a playback for the activity stream.
func (s *Service) RecordingPlayed(ctx context.Context, recordingID, userID int64) error {
	rec, err := s.store.GetRecording(ctx, recordingID)
	if err != nil {
		return err
	}
	if rec.Deleted {
		return store.ErrRecordingNotFound
	}
	s.publisher.Publish(ctx, notify.Event{
		Name:      notify.EventRecordingPlayed,
		CourseID:  rec.CourseID,
		MeetingID: rec.MeetingID,
		ObjectID:  rec.ID,
		UserID:    userID,
	})
	return nil
}

// RecordingChatLog returns the parsed transcript attached to a recording, or
// nil when none was associated.
func (s *Service) RecordingChatLog(ctx context.Context, recordingID int64) ([]ChatMessage, error) {
	rec, err := s.store.GetRecording(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if !rec.HasChatLog() {
		return nil, nil
	}
	stored, err := s.store.GetStoredFile(ctx, rec.ChatLogStoredID)
	if err != nil {
		return nil, err
	}
	return ParseChatLog(stored.Content), nil
}

// RoomState is where a meeting stands relative to its scheduled window.
type RoomState int

const (
	RoomNotOpen RoomState = iota
	RoomOpen
	RoomClosed
)

// MeetingRoomState classifies now against [start, end).
func MeetingRoomState(m *model.Meeting, now int64) RoomState {
	switch {
	case now < m.TimeStart:
		return RoomNotOpen
	case now < m.TimeEnd:
		return RoomOpen
	default:
		return RoomClosed
	}
}
