// Package memory provides an in-memory fake of the calendar, storage and
// reports adapters. It backs the test suite and DEV_MODE, and keeps counters
// for side effects (permission grants, content streams) so idempotence can be
// asserted.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/univel/meetsync/internal/adapter"
)

type memFile struct {
	info    adapter.FileInfo
	content []byte
	perms   []adapter.Permission
}

// Fake implements adapter.CalendarAdapter, adapter.StorageAdapter and
// adapter.ReportsAdapter over in-memory maps.
type Fake struct {
	mu sync.Mutex

	events  map[string]*adapter.Event
	gone    map[string]bool
	files   map[string]*memFile
	reports map[string][]adapter.Activity

	// Change journal for incremental listing. revision is bumped on every
	// event mutation; changedAt remembers the revision an event last
	// changed in.
	revision  int64
	changedAt map[string]int64

	nextEvent int64
	nextConf  int64
	nextPerm  int64

	channels []adapter.Channel

	// Side-effect counters, read by tests.
	GrantCalls  map[string]int
	RevokeCalls map[string]int
	StreamCalls map[string]int

	// Now is the clock used for watch expirations, settable by tests.
	Now func() time.Time
}

// NewFake returns an empty fake provider.
func NewFake() *Fake {
	return &Fake{
		events:      make(map[string]*adapter.Event),
		gone:        make(map[string]bool),
		files:       make(map[string]*memFile),
		reports:     make(map[string][]adapter.Activity),
		changedAt:   make(map[string]int64),
		GrantCalls:  make(map[string]int),
		RevokeCalls: make(map[string]int),
		StreamCalls: make(map[string]int),
		Now:         time.Now,
	}
}

func (f *Fake) touch(eventID string) {
	f.revision++
	f.changedAt[eventID] = f.revision
}

func (f *Fake) provisionConference(requestID, solutionType string) *adapter.ConferenceData {
	f.nextConf++
	code := fmt.Sprintf("abc-%04d-xyz", f.nextConf)
	return &adapter.ConferenceData{
		RequestID:    requestID,
		SolutionType: solutionType,
		ConferenceID: code,
		EntryPoints: []adapter.EntryPoint{
			{Type: adapter.EntryPointVideo, URI: "https://meet.example.com/" + code},
			{Type: adapter.EntryPointPhone, Label: "+1 555-0100", PIN: "123456"},
		},
	}
}

// GetEvent implements adapter.CalendarAdapter.
func (f *Fake) GetEvent(_ context.Context, eventID string) (*adapter.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev, ok := f.events[eventID]
	if !ok {
		if f.gone[eventID] {
			return nil, adapter.ErrGone
		}
		return nil, adapter.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

// InsertEvent implements adapter.CalendarAdapter. It fills in the provider
// side of the event: id, links, and conference entry points when a create
// request was carried.
func (f *Fake) InsertEvent(_ context.Context, event *adapter.Event, _ bool) (*adapter.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextEvent++
	cp := *event
	cp.ID = fmt.Sprintf("evt-%d", f.nextEvent)
	cp.HTMLLink = "https://calendar.example.com/event?eid=" + cp.ID
	cp.ICalUID = cp.ID + "@calendar.example.com"
	cp.Status = "confirmed"

	if cp.Conference != nil && cp.Conference.RequestID != "" {
		cp.Conference = f.provisionConference(cp.Conference.RequestID, cp.Conference.SolutionType)
	}

	f.events[cp.ID] = &cp
	f.touch(cp.ID)
	out := cp
	return &out, nil
}

// UpdateEvent implements adapter.CalendarAdapter.
func (f *Fake) UpdateEvent(_ context.Context, event *adapter.Event, _ bool) (*adapter.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, ok := f.events[event.ID]
	if !ok {
		if f.gone[event.ID] {
			return nil, adapter.ErrGone
		}
		return nil, adapter.ErrNotFound
	}

	cp := *event
	// Read-only fields survive the update body; attachments need a
	// separate supports flag to change, so they survive too.
	cp.HTMLLink = prev.HTMLLink
	cp.ICalUID = prev.ICalUID
	cp.Status = prev.Status
	cp.Attachments = prev.Attachments

	// Conference data follows replace semantics: a body without it drops
	// the conference, a body with only a create request provisions a new
	// one, a round-tripped existing conference stays as sent.
	if cp.Conference != nil && cp.Conference.ConferenceID == "" {
		if cp.Conference.RequestID != "" {
			cp.Conference = f.provisionConference(cp.Conference.RequestID, cp.Conference.SolutionType)
		} else {
			cp.Conference = nil
		}
	}

	f.events[cp.ID] = &cp
	f.touch(cp.ID)
	out := cp
	return &out, nil
}

// DeleteEvent implements adapter.CalendarAdapter. Deleting twice returns
// ErrGone, matching the provider's 410 behavior.
func (f *Fake) DeleteEvent(_ context.Context, eventID string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.events[eventID]; !ok {
		if f.gone[eventID] {
			return adapter.ErrGone
		}
		return adapter.ErrNotFound
	}
	delete(f.events, eventID)
	f.gone[eventID] = true
	f.touch(eventID)
	return nil
}

// MarkGone makes an event id behave as provider-deleted without it ever
// having existed in the fake, for gone-on-delete tests.
func (f *Fake) MarkGone(eventID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, eventID)
	f.gone[eventID] = true
}

// ListEventsSince implements adapter.CalendarAdapter using the change
// journal. Tokens are opaque to callers but encode the last seen revision.
func (f *Fake) ListEventsSince(_ context.Context, syncToken string) (*adapter.EventPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var since int64
	if syncToken != "" {
		n, err := strconv.ParseInt(strings.TrimPrefix(syncToken, "tok-"), 10, 64)
		if err != nil {
			return nil, adapter.ErrNotFound
		}
		since = n
	}

	page := &adapter.EventPage{NextSyncToken: fmt.Sprintf("tok-%d", f.revision)}
	for id, rev := range f.changedAt {
		if rev <= since {
			continue
		}
		if ev, ok := f.events[id]; ok {
			cp := *ev
			page.Items = append(page.Items, cp)
		} else {
			page.Items = append(page.Items, adapter.Event{ID: id, Status: "cancelled"})
		}
	}
	return page, nil
}

// Watch implements adapter.CalendarAdapter with a week-long fake channel.
func (f *Fake) Watch(_ context.Context, channelID, _ string) (*adapter.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := adapter.Channel{
		ID:         channelID,
		ResourceID: "res-" + channelID,
		Expiration: f.Now().Add(7 * 24 * time.Hour),
	}
	f.channels = append(f.channels, ch)
	return &ch, nil
}

// StopChannel implements adapter.CalendarAdapter.
func (f *Fake) StopChannel(_ context.Context, channelID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, ch := range f.channels {
		if ch.ID == channelID {
			f.channels = append(f.channels[:i], f.channels[i+1:]...)
			return nil
		}
	}
	return adapter.ErrNotFound
}

// Channels returns the currently registered fake channels.
func (f *Fake) Channels() []adapter.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]adapter.Channel(nil), f.channels...)
}

// AddFile seeds a remote file with content and an owner permission.
func (f *Fake) AddFile(info adapter.FileInfo, content []byte, extraPerms ...adapter.Permission) {
	f.mu.Lock()
	defer f.mu.Unlock()

	perms := append([]adapter.Permission{{ID: "perm-owner-" + info.ID, Type: "user", Role: "owner"}}, extraPerms...)
	f.files[info.ID] = &memFile{info: info, content: content, perms: perms}
}

// AttachFile attaches a seeded file to an event and journals the change.
func (f *Fake) AttachFile(eventID, fileID, mimeType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev, ok := f.events[eventID]
	if !ok {
		return adapter.ErrNotFound
	}
	mf, ok := f.files[fileID]
	if !ok {
		return adapter.ErrNotFound
	}
	ev.Attachments = append(ev.Attachments, adapter.Attachment{
		FileID:   fileID,
		Title:    mf.info.Name,
		MimeType: mimeType,
	})
	f.touch(eventID)
	return nil
}

// SetAttendeeResponse flips one attendee's response and journals the change.
func (f *Fake) SetAttendeeResponse(eventID, email, status, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev, ok := f.events[eventID]
	if !ok {
		return adapter.ErrNotFound
	}
	for i := range ev.Attendees {
		if ev.Attendees[i].Email == email {
			ev.Attendees[i].ResponseStatus = status
			ev.Attendees[i].Comment = comment
			f.touch(eventID)
			return nil
		}
	}
	return adapter.ErrNotFound
}

// UpdateFileInfo refreshes a seeded file's metadata.
func (f *Fake) UpdateFileInfo(info adapter.FileInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	mf, ok := f.files[info.ID]
	if !ok {
		return adapter.ErrNotFound
	}
	mf.info = info
	return nil
}

// GetFile implements adapter.StorageAdapter.
func (f *Fake) GetFile(_ context.Context, fileID string) (*adapter.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	mf, ok := f.files[fileID]
	if !ok {
		return nil, adapter.ErrNotFound
	}
	info := mf.info
	return &info, nil
}

// StreamFile implements adapter.StorageAdapter and counts calls.
func (f *Fake) StreamFile(_ context.Context, fileID string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	mf, ok := f.files[fileID]
	if !ok {
		return nil, adapter.ErrNotFound
	}
	f.StreamCalls[fileID]++
	return io.NopCloser(bytes.NewReader(mf.content)), nil
}

// Download implements adapter.StorageAdapter. Thumbnail URLs resolve to a
// fixed byte payload.
func (f *Fake) Download(_ context.Context, url string) ([]byte, error) {
	return []byte("thumb:" + url), nil
}

// ListPermissions implements adapter.StorageAdapter.
func (f *Fake) ListPermissions(_ context.Context, fileID string) ([]adapter.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	mf, ok := f.files[fileID]
	if !ok {
		return nil, adapter.ErrNotFound
	}
	return append([]adapter.Permission(nil), mf.perms...), nil
}

// CreatePublicPermission implements adapter.StorageAdapter and counts calls.
func (f *Fake) CreatePublicPermission(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	mf, ok := f.files[fileID]
	if !ok {
		return adapter.ErrNotFound
	}
	f.nextPerm++
	mf.perms = append(mf.perms, adapter.Permission{
		ID:   fmt.Sprintf("perm-%d", f.nextPerm),
		Type: "anyone",
		Role: "reader",
	})
	f.GrantCalls[fileID]++
	return nil
}

// DeletePermission implements adapter.StorageAdapter and counts calls.
func (f *Fake) DeletePermission(_ context.Context, fileID, permissionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	mf, ok := f.files[fileID]
	if !ok {
		return adapter.ErrNotFound
	}
	for i, p := range mf.perms {
		if p.ID == permissionID {
			mf.perms = append(mf.perms[:i], mf.perms[i+1:]...)
			f.RevokeCalls[fileID]++
			return nil
		}
	}
	return adapter.ErrNotFound
}

// AddActivity seeds one audit record for a meeting code.
func (f *Fake) AddActivity(meetingCode string, activity adapter.Activity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[meetingCode] = append(f.reports[meetingCode], activity)
}

// ListMeetActivities implements adapter.ReportsAdapter.
func (f *Fake) ListMeetActivities(_ context.Context, meetingCode string) ([]adapter.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]adapter.Activity(nil), f.reports[meetingCode]...), nil
}
