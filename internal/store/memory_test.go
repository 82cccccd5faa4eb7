package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univel/meetsync/internal/model"
)

func TestMeetingCRUD(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	m := &model.Meeting{CourseID: 10, Name: "seminar", TimeStart: 100, TimeEnd: 200}
	require.NoError(t, s.CreateMeeting(ctx, m))
	require.NotZero(t, m.ID)

	got, err := s.GetMeeting(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "seminar", got.Name)

	_, err = s.GetMeeting(ctx, 999)
	assert.ErrorIs(t, err, ErrMeetingNotFound)

	m.RemoteEventID = "evt-1"
	require.NoError(t, s.UpdateMeeting(ctx, m))
	got, err = s.GetMeetingByRemoteEventID(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = s.GetMeetingByRemoteEventID(ctx, "evt-x")
	assert.ErrorIs(t, err, ErrMeetingNotFound)
}

func TestDeleteMeetingCascades(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	m := &model.Meeting{CourseID: 10, Name: "seminar"}
	require.NoError(t, s.CreateMeeting(ctx, m))
	require.NoError(t, s.InsertParticipant(ctx, &model.Participant{MeetingID: m.ID, UserID: 1}))
	require.NoError(t, s.InsertReminder(ctx, &model.Reminder{MeetingID: m.ID, Method: model.ReminderEmail, Unit: model.UnitMinutes, Before: 5}))

	require.NoError(t, s.DeleteMeeting(ctx, m.ID))

	participants, err := s.ListParticipants(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)
	reminders, err := s.ListReminders(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestListCourseMeetingsEndingAfter(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	past := &model.Meeting{CourseID: 10, Name: "past", TimeStart: 10, TimeEnd: 20}
	future := &model.Meeting{CourseID: 10, Name: "future", TimeStart: 200, TimeEnd: 300}
	other := &model.Meeting{CourseID: 11, Name: "other", TimeStart: 200, TimeEnd: 300}
	for _, m := range []*model.Meeting{past, future, other} {
		require.NoError(t, s.CreateMeeting(ctx, m))
	}

	got, err := s.ListCourseMeetingsEndingAfter(ctx, 10, 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "future", got[0].Name)
}

func TestRecordingQueries(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	live := &model.Recording{MeetingID: 1, RemoteFileID: "f1", RemoteFileName: "Seminar (at 10:00)"}
	dead := &model.Recording{MeetingID: 1, RemoteFileID: "f2", RemoteFileName: "Seminar (at 11:00)", Deleted: true}
	require.NoError(t, s.InsertRecording(ctx, live))
	require.NoError(t, s.InsertRecording(ctx, dead))

	visible, err := s.ListRecordings(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := s.ListRecordings(ctx, 1, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// By remote file id, deleted rows still match so reconciliation can
	// see and skip them.
	got, err := s.GetRecordingByRemoteFileID(ctx, 1, "f2")
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	// Stem match is fuzzy contains, excluding deleted rows.
	got, err = s.FindRecordingByNameStem(ctx, 1, "Seminar (at 10:00)")
	require.NoError(t, err)
	assert.Equal(t, "f1", got.RemoteFileID)

	_, err = s.FindRecordingByNameStem(ctx, 1, "Seminar (at 11:00)")
	assert.ErrorIs(t, err, ErrRecordingNotFound)

	_, err = s.FindRecordingByNameStem(ctx, 1, "no such")
	assert.ErrorIs(t, err, ErrRecordingNotFound)
}

func TestSyncStateSingleton(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	st, err := s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.ChannelID)

	st.ChannelID = "chan-1"
	st.NextSyncToken = "tok-5"
	require.NoError(t, s.SaveSyncState(ctx, st))

	st, err = s.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chan-1", st.ChannelID)
	assert.Equal(t, "tok-5", st.NextSyncToken)
}

func TestStoredFiles(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	f := &model.StoredFile{Area: "chatlog", ItemID: 7, Name: "x.sbv", Content: []byte("hi")}
	require.NoError(t, s.PutStoredFile(ctx, f))
	require.NotZero(t, f.ID)
	require.NotZero(t, f.TimeCreated)

	got, err := s.GetStoredFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), got.Content)

	_, err = s.GetStoredFile(ctx, 99)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
