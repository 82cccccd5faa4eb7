package memory

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univel/meetsync/internal/adapter"
)

func TestInsertFillsProviderFields(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	ev, err := f.InsertEvent(ctx, &adapter.Event{
		Summary:    "seminar",
		Conference: &adapter.ConferenceData{RequestID: "req-1", SolutionType: "hangoutsMeet"},
	}, true)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.NotEmpty(t, ev.HTMLLink)
	assert.NotEmpty(t, ev.ICalUID)
	require.NotNil(t, ev.Conference)
	assert.Equal(t, "req-1", ev.Conference.RequestID)
	assert.NotEmpty(t, ev.Conference.ConferenceID)
	require.Len(t, ev.Conference.EntryPoints, 2)
}

func TestUpdateReplacesEventBody(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	ev, err := f.InsertEvent(ctx, &adapter.Event{
		Summary:    "seminar",
		Conference: &adapter.ConferenceData{RequestID: "req-1"},
	}, false)
	require.NoError(t, err)

	// Round-tripping the existing conference keeps it.
	updated, err := f.UpdateEvent(ctx, &adapter.Event{
		ID:         ev.ID,
		Summary:    "renamed",
		Conference: ev.Conference,
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Summary)
	assert.Equal(t, ev.HTMLLink, updated.HTMLLink)
	assert.Equal(t, ev.ICalUID, updated.ICalUID)
	require.NotNil(t, updated.Conference)
	assert.Equal(t, ev.Conference.ConferenceID, updated.Conference.ConferenceID)

	// A body without conference data drops the conference, like the
	// provider's full-resource replacement does.
	updated, err = f.UpdateEvent(ctx, &adapter.Event{ID: ev.ID, Summary: "renamed again"}, false)
	require.NoError(t, err)
	assert.Nil(t, updated.Conference)

	// A fresh create request provisions a new conference.
	updated, err = f.UpdateEvent(ctx, &adapter.Event{
		ID:         ev.ID,
		Summary:    "renamed again",
		Conference: &adapter.ConferenceData{RequestID: "req-2"},
	}, false)
	require.NoError(t, err)
	require.NotNil(t, updated.Conference)
	assert.NotEqual(t, ev.Conference.ConferenceID, updated.Conference.ConferenceID)
}

func TestDeleteThenGone(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	ev, err := f.InsertEvent(ctx, &adapter.Event{Summary: "x"}, false)
	require.NoError(t, err)

	require.NoError(t, f.DeleteEvent(ctx, ev.ID, false))
	assert.ErrorIs(t, f.DeleteEvent(ctx, ev.ID, false), adapter.ErrGone)

	_, err = f.GetEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, adapter.ErrGone)

	_, err = f.GetEvent(ctx, "never-existed")
	assert.ErrorIs(t, err, adapter.ErrNotFound)
}

func TestListEventsSinceToken(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	ev, err := f.InsertEvent(ctx, &adapter.Event{
		Summary:   "x",
		Attendees: []adapter.Attendee{{Email: "alice@example.com", ResponseStatus: "needsAction"}},
	}, false)
	require.NoError(t, err)

	page, err := f.ListEventsSince(ctx, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	token := page.NextSyncToken

	// Nothing changed: same token, empty page.
	page, err = f.ListEventsSince(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, token, page.NextSyncToken)

	require.NoError(t, f.SetAttendeeResponse(ev.ID, "alice@example.com", "accepted", ""))

	page, err = f.ListEventsSince(ctx, token)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotEqual(t, token, page.NextSyncToken)
}

func TestListEventsIncludesCancelled(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	ev, err := f.InsertEvent(ctx, &adapter.Event{Summary: "x"}, false)
	require.NoError(t, err)
	page, err := f.ListEventsSince(ctx, "")
	require.NoError(t, err)
	token := page.NextSyncToken

	require.NoError(t, f.DeleteEvent(ctx, ev.ID, false))

	page, err = f.ListEventsSince(ctx, token)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "cancelled", page.Items[0].Status)
}

func TestPermissionBookkeeping(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	f.AddFile(adapter.FileInfo{ID: "file-1", Name: "rec"}, []byte("data"),
		adapter.Permission{ID: "perm-x", Type: "domain", Role: "reader"})

	perms, err := f.ListPermissions(ctx, "file-1")
	require.NoError(t, err)
	require.Len(t, perms, 2)

	require.NoError(t, f.DeletePermission(ctx, "file-1", "perm-x"))
	require.NoError(t, f.CreatePublicPermission(ctx, "file-1"))

	perms, err = f.ListPermissions(ctx, "file-1")
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, 1, f.GrantCalls["file-1"])
	assert.Equal(t, 1, f.RevokeCalls["file-1"])

	rc, err := f.StreamFile(ctx, "file-1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, []byte("data"), data)
	assert.Equal(t, 1, f.StreamCalls["file-1"])
}

func TestWatchAndStop(t *testing.T) {
	f := NewFake()
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f.Now = func() time.Time { return now }

	ch, err := f.Watch(ctx, "chan-1", "https://example.com/webhook")
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), ch.Expiration)
	require.Len(t, f.Channels(), 1)

	require.NoError(t, f.StopChannel(ctx, "chan-1", ch.ResourceID))
	assert.Empty(t, f.Channels())
	assert.ErrorIs(t, f.StopChannel(ctx, "chan-1", ch.ResourceID), adapter.ErrNotFound)
}
