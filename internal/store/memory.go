package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/univel/meetsync/internal/model"
)

// Memory is an in-memory Store used by tests and dev mode. Transaction runs
// fn against the same instance; there is no rollback.
type Memory struct {
	mu sync.Mutex

	nextMeetingID     int64
	nextParticipantID int64
	nextReminderID    int64
	nextRecordingID   int64
	nextFileID        int64

	meetings     map[int64]model.Meeting
	participants map[int64]model.Participant
	reminders    map[int64]model.Reminder
	recordings   map[int64]model.Recording
	files        map[int64]model.StoredFile
	syncState    model.SyncState
}

func NewMemory() *Memory {
	return &Memory{
		meetings:     make(map[int64]model.Meeting),
		participants: make(map[int64]model.Participant),
		reminders:    make(map[int64]model.Reminder),
		recordings:   make(map[int64]model.Recording),
		files:        make(map[int64]model.StoredFile),
		syncState:    model.SyncState{ID: 1},
	}
}

func (m *Memory) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(m)
}

func (m *Memory) CreateMeeting(ctx context.Context, mt *model.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mt.ID == 0 {
		m.nextMeetingID++
		mt.ID = m.nextMeetingID
	} else if mt.ID > m.nextMeetingID {
		m.nextMeetingID = mt.ID
	}
	m.meetings[mt.ID] = *mt
	return nil
}

func (m *Memory) UpdateMeeting(ctx context.Context, mt *model.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.meetings[mt.ID]; !ok {
		return ErrMeetingNotFound
	}
	m.meetings[mt.ID] = *mt
	return nil
}

func (m *Memory) GetMeeting(ctx context.Context, id int64) (*model.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.meetings[id]
	if !ok {
		return nil, ErrMeetingNotFound
	}
	return &mt, nil
}

func (m *Memory) GetMeetingByRemoteEventID(ctx context.Context, eventID string) (*model.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mt := range m.meetings {
		if mt.RemoteEventID == eventID {
			cp := mt
			return &cp, nil
		}
	}
	return nil, ErrMeetingNotFound
}

func (m *Memory) ListCourseMeetingsEndingAfter(ctx context.Context, courseID, ts int64) ([]model.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Meeting
	for _, mt := range m.meetings {
		if mt.CourseID == courseID && mt.TimeEnd >= ts {
			out = append(out, mt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeStart < out[j].TimeStart })
	return out, nil
}

func (m *Memory) DeleteMeeting(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.meetings, id)
	for pid, p := range m.participants {
		if p.MeetingID == id {
			delete(m.participants, pid)
		}
	}
	for rid, r := range m.reminders {
		if r.MeetingID == id {
			delete(m.reminders, rid)
		}
	}
	return nil
}

func (m *Memory) ListParticipants(ctx context.Context, meetingID int64) ([]model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Participant
	for _, p := range m.participants {
		if p.MeetingID == meetingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) InsertParticipant(ctx context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		m.nextParticipantID++
		p.ID = m.nextParticipantID
	}
	m.participants[p.ID] = *p
	return nil
}

func (m *Memory) UpdateParticipant(ctx context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.ID] = *p
	return nil
}

func (m *Memory) DeleteParticipantsByUser(ctx context.Context, meetingID int64, userIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		drop[id] = true
	}
	for pid, p := range m.participants {
		if p.MeetingID == meetingID && drop[p.UserID] {
			delete(m.participants, pid)
		}
	}
	return nil
}

func (m *Memory) ListReminders(ctx context.Context, meetingID int64) ([]model.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reminder
	for _, r := range m.reminders {
		if r.MeetingID == meetingID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) InsertReminder(ctx context.Context, r *model.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		m.nextReminderID++
		r.ID = m.nextReminderID
	}
	m.reminders[r.ID] = *r
	return nil
}

func (m *Memory) UpdateReminder(ctx context.Context, r *model.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[r.ID] = *r
	return nil
}

func (m *Memory) DeleteReminders(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.reminders, id)
	}
	return nil
}

func (m *Memory) ListRecordings(ctx context.Context, meetingID int64, includeDeleted bool) ([]model.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Recording
	for _, r := range m.recordings {
		if r.MeetingID != meetingID {
			continue
		}
		if r.Deleted && !includeDeleted {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RemoteTimeCreated != out[j].RemoteTimeCreated {
			return out[i].RemoteTimeCreated < out[j].RemoteTimeCreated
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetRecording(ctx context.Context, id int64) (*model.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recordings[id]
	if !ok {
		return nil, ErrRecordingNotFound
	}
	return &r, nil
}

func (m *Memory) GetRecordingByRemoteFileID(ctx context.Context, meetingID int64, fileID string) (*model.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recordings {
		if r.MeetingID == meetingID && r.RemoteFileID == fileID {
			cp := r
			return &cp, nil
		}
	}
	return nil, ErrRecordingNotFound
}

func (m *Memory) FindRecordingByNameStem(ctx context.Context, meetingID int64, stem string) (*model.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Recording
	for _, r := range m.recordings {
		if r.MeetingID != meetingID || r.Deleted {
			continue
		}
		if strings.Contains(r.RemoteFileName, stem) {
			if best == nil || r.ID < best.ID {
				cp := r
				best = &cp
			}
		}
	}
	if best == nil {
		return nil, ErrRecordingNotFound
	}
	return best, nil
}

func (m *Memory) InsertRecording(ctx context.Context, r *model.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		m.nextRecordingID++
		r.ID = m.nextRecordingID
	}
	m.recordings[r.ID] = *r
	return nil
}

func (m *Memory) UpdateRecording(ctx context.Context, r *model.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordings[r.ID] = *r
	return nil
}

func (m *Memory) PutStoredFile(ctx context.Context, f *model.StoredFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		m.nextFileID++
		f.ID = m.nextFileID
	}
	if f.TimeCreated == 0 {
		f.TimeCreated = time.Now().Unix()
	}
	m.files[f.ID] = *f
	return nil
}

func (m *Memory) GetStoredFile(ctx context.Context, id int64) (*model.StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return &f, nil
}

func (m *Memory) GetSyncState(ctx context.Context) (*model.SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.syncState
	return &st, nil
}

func (m *Memory) SaveSyncState(ctx context.Context, st *model.SyncState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.ID = 1
	m.syncState = *st
	return nil
}
