package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/univel/meetsync/internal/model"
)

// GormStore implements Store on a relational database via gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or upgrades the schema.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&model.Meeting{},
		&model.Participant{},
		&model.Reminder{},
		&model.Recording{},
		&model.StoredFile{},
		&model.SyncState{},
	)
}

// Transaction implements Store.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *GormStore) UpdateMeeting(ctx context.Context, m *model.Meeting) error {
	return s.db.WithContext(ctx).Save(m).Error
}

func (s *GormStore) GetMeeting(ctx context.Context, id int64) (*model.Meeting, error) {
	var m model.Meeting
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) GetMeetingByRemoteEventID(ctx context.Context, eventID string) (*model.Meeting, error) {
	var m model.Meeting
	err := s.db.WithContext(ctx).Where("remote_event_id = ?", eventID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) ListCourseMeetingsEndingAfter(ctx context.Context, courseID, ts int64) ([]model.Meeting, error) {
	var out []model.Meeting
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND time_end >= ?", courseID, ts).
		Order("time_start").
		Find(&out).Error
	return out, err
}

func (s *GormStore) DeleteMeeting(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", id).Delete(&model.Participant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", id).Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Meeting{}, id).Error
	})
}

func (s *GormStore) ListParticipants(ctx context.Context, meetingID int64) ([]model.Participant, error) {
	var out []model.Participant
	err := s.db.WithContext(ctx).Where("meeting_id = ?", meetingID).Order("id").Find(&out).Error
	return out, err
}

func (s *GormStore) InsertParticipant(ctx context.Context, p *model.Participant) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) UpdateParticipant(ctx context.Context, p *model.Participant) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *GormStore) DeleteParticipantsByUser(ctx context.Context, meetingID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("meeting_id = ? AND user_id IN ?", meetingID, userIDs).
		Delete(&model.Participant{}).Error
}

func (s *GormStore) ListReminders(ctx context.Context, meetingID int64) ([]model.Reminder, error) {
	var out []model.Reminder
	err := s.db.WithContext(ctx).Where("meeting_id = ?", meetingID).Order("id").Find(&out).Error
	return out, err
}

func (s *GormStore) InsertReminder(ctx context.Context, r *model.Reminder) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) UpdateReminder(ctx context.Context, r *model.Reminder) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *GormStore) DeleteReminders(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&model.Reminder{}, ids).Error
}

func (s *GormStore) ListRecordings(ctx context.Context, meetingID int64, includeDeleted bool) ([]model.Recording, error) {
	var out []model.Recording
	q := s.db.WithContext(ctx).Where("meeting_id = ?", meetingID)
	if !includeDeleted {
		q = q.Where("deleted = ?", false)
	}
	err := q.Order("remote_time_created").Find(&out).Error
	return out, err
}

func (s *GormStore) GetRecording(ctx context.Context, id int64) (*model.Recording, error) {
	var r model.Recording
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) GetRecordingByRemoteFileID(ctx context.Context, meetingID int64, fileID string) (*model.Recording, error) {
	var r model.Recording
	err := s.db.WithContext(ctx).
		Where("meeting_id = ? AND remote_file_id = ?", meetingID, fileID).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) FindRecordingByNameStem(ctx context.Context, meetingID int64, stem string) (*model.Recording, error) {
	var r model.Recording
	err := s.db.WithContext(ctx).
		Where("meeting_id = ? AND deleted = ? AND remote_file_name LIKE ?", meetingID, false, "%"+stem+"%").
		Order("id").
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) InsertRecording(ctx context.Context, r *model.Recording) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) UpdateRecording(ctx context.Context, r *model.Recording) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *GormStore) PutStoredFile(ctx context.Context, f *model.StoredFile) error {
	if f.TimeCreated == 0 {
		f.TimeCreated = time.Now().Unix()
	}
	return s.db.WithContext(ctx).Create(f).Error
}

func (s *GormStore) GetStoredFile(ctx context.Context, id int64) (*model.StoredFile, error) {
	var f model.StoredFile
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetSyncState returns the singleton cursor row, creating it on first use.
func (s *GormStore) GetSyncState(ctx context.Context) (*model.SyncState, error) {
	var st model.SyncState
	err := s.db.WithContext(ctx).First(&st, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = model.SyncState{ID: 1}
		if err := s.db.WithContext(ctx).Create(&st).Error; err != nil {
			return nil, err
		}
		return &st, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStore) SaveSyncState(ctx context.Context, st *model.SyncState) error {
	st.ID = 1
	st.TimeModified = time.Now().Unix()
	return s.db.WithContext(ctx).Save(st).Error
}
