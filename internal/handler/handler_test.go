package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univel/meetsync/internal/adapter/memory"
	"github.com/univel/meetsync/internal/enrol"
	"github.com/univel/meetsync/internal/model"
	"github.com/univel/meetsync/internal/notify"
	"github.com/univel/meetsync/internal/session"
	"github.com/univel/meetsync/internal/store"
	"github.com/univel/meetsync/internal/sync"
)

const testSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	fake   *memory.Fake
	store  *store.Memory
	roster *enrol.MemoryRoster
	svc    *sync.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := memory.NewFake()
	st := store.NewMemory()
	roster := enrol.NewMemoryRoster()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := sync.NewService(sync.Deps{
		Store:       st,
		Calendar:    fake,
		Storage:     fake,
		Reports:     fake,
		Roster:      roster,
		Publisher:   notify.NewCapture(),
		Locker:      session.NewMemoryLocker(),
		CallbackURL: "https://plugin.example.com/webhook/calendar",
		FetchWindow: 604800,
		CacheWindow: 7200,
		Logger:      logger,
	})

	router := SetupRouter(testSecret,
		NewMeetingController(svc, st, logger),
		NewRecordingController(svc, st, logger),
		NewWebhookController(svc, logger),
	)
	return &testEnv{router: router, fake: fake, store: st, roster: roster, svc: svc}
}

func token(t *testing.T, userID int64, manager bool) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Manager: manager,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedMeeting(t *testing.T) *model.Meeting {
	t.Helper()
	e.roster.Enrol(10, enrol.User{ID: 1, Email: "alice@example.com"})
	start := time.Now().Unix()
	m := &model.Meeting{CourseID: 10, Name: "seminar", TimeStart: start - 7200, TimeEnd: start - 3600}
	require.NoError(t, e.svc.CreateMeeting(context.Background(), m, nil))
	return m
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/meetings/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/meetings/1", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManagerRequired(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMeeting(t)

	path := "/api/meetings/" + strconv.FormatInt(m.ID, 10) + "/report"
	rec := env.do(t, http.MethodGet, path, token(t, 1, false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, path, token(t, 1, true), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func webhookRequest(channelID, userAgent string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/calendar", nil)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Goog-Channel-ID", channelID)
	return req
}

func TestWebhookIgnoresWrongIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.seedMeeting(t)
	ctx := context.Background()

	st, err := env.store.GetSyncState(ctx)
	require.NoError(t, err)
	before := st.NextSyncToken

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, webhookRequest(st.ChannelID, "curl/8.0"))
	assert.Equal(t, http.StatusOK, rec.Code)

	st, err = env.store.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, st.NextSyncToken)
}

func TestWebhookIgnoresWrongChannel(t *testing.T) {
	env := newTestEnv(t)
	env.seedMeeting(t)
	ctx := context.Background()

	st, err := env.store.GetSyncState(ctx)
	require.NoError(t, err)
	before := st.NextSyncToken

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, webhookRequest("someone-elses-channel", googleIdentity))
	assert.Equal(t, http.StatusOK, rec.Code)

	st, err = env.store.GetSyncState(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, st.NextSyncToken)
}

func TestWebhookProcessesMatchingChannel(t *testing.T) {
	env := newTestEnv(t)
	env.seedMeeting(t)
	ctx := context.Background()

	st, err := env.store.GetSyncState(ctx)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, webhookRequest(st.ChannelID, googleIdentity))
	assert.Equal(t, http.StatusOK, rec.Code)

	after, err := env.store.GetSyncState(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, st.NextSyncToken, after.NextSyncToken)
}

func TestRecordingVisibilityFilter(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMeeting(t)
	ctx := context.Background()

	visible := &model.Recording{MeetingID: m.ID, Name: "ok", RemoteFileID: "f1", RemoteDuration: 1000}
	hidden := &model.Recording{MeetingID: m.ID, Name: "hidden", RemoteFileID: "f2", RemoteDuration: 1000, Hidden: true}
	broken := &model.Recording{MeetingID: m.ID, Name: "broken", RemoteFileID: "f3", RemoteDuration: 0}
	for _, r := range []*model.Recording{visible, hidden, broken} {
		require.NoError(t, env.store.InsertRecording(ctx, r))
	}

	path := "/api/meetings/" + strconv.FormatInt(m.ID, 10) + "/recordings"

	rec := env.do(t, http.MethodGet, path, token(t, 1, false), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Recordings []model.Recording `json:"recordings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Recordings, 1)
	assert.Equal(t, "ok", body.Recordings[0].Name)

	rec = env.do(t, http.MethodGet, path, token(t, 1, true), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Recordings, 3)
}

func TestPlayHiddenRecordingNotFoundForNonManager(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMeeting(t)
	ctx := context.Background()

	hidden := &model.Recording{MeetingID: m.ID, Name: "hidden", RemoteFileID: "f2", RemoteDuration: 1000, Hidden: true}
	require.NoError(t, env.store.InsertRecording(ctx, hidden))

	path := "/api/recordings/" + strconv.FormatInt(hidden.ID, 10) + "/play"
	rec := env.do(t, http.MethodPost, path, token(t, 1, false), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, path, token(t, 1, true), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
