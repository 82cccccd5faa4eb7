package sync

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/univel/meetsync/internal/adapter"
	"github.com/univel/meetsync/internal/model"
	"github.com/univel/meetsync/internal/notify"
	"github.com/univel/meetsync/internal/store"
)

// StoredFileAreaChatLog keys fetched chat transcripts in the file store.
const StoredFileAreaChatLog = "chatlog"

// RecordingReconciler upserts local recording rows from a remote event's
// attachment list. Permission side effects (strip sharing, grant public read)
// and content downloads run at most once per remote file, gated by the
// existing-row and already-associated checks.
type RecordingReconciler struct {
	storage adapter.StorageAdapter
	logger  *slog.Logger
	now     func() time.Time
}

func NewRecordingReconciler(storage adapter.StorageAdapter, logger *slog.Logger) *RecordingReconciler {
	return &RecordingReconciler{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// ShouldFetch reports whether an automatic pass is due: the meeting ended
// within the fetch window and the cache window has elapsed since the last
// check. A forced manual refresh bypasses both gates.
func ShouldFetch(m *model.Meeting, now, fetchWindow, cacheWindow int64, forced bool) bool {
	if forced {
		return true
	}
	return now-m.TimeEnd < fetchWindow && now-cacheWindow > m.RecordingsLastCheck
}

// Reconcile walks the attachments and converges the meeting's recording rows.
// manual tags the notifications with how the pass was triggered. The
// notifications are returned, not published: tx is still open, and an event
// must not escape a pass that later rolls back. The caller publishes them
// after commit and advances RecordingsLastCheck; a hard error aborts the pass.
func (r *RecordingReconciler) Reconcile(ctx context.Context, tx store.Store, m *model.Meeting, attachments []adapter.Attachment, manual bool) ([]notify.Event, error) {
	var pending []notify.Event
	for _, att := range attachments {
		switch classifyAttachment(att) {
		case attachmentVideo:
			ev, err := r.reconcileVideo(ctx, tx, m, att, manual)
			if err != nil {
				return nil, err
			}
			if ev != nil {
				pending = append(pending, *ev)
			}
		case attachmentChatLog:
			if err := r.associateChatLog(ctx, tx, m, att); err != nil {
				return nil, err
			}
		default:
			// Unrelated attachment kinds are none of our business.
		}
	}
	return pending, nil
}

type attachmentKind int

const (
	attachmentOther attachmentKind = iota
	attachmentVideo
	attachmentChatLog
)

func classifyAttachment(att adapter.Attachment) attachmentKind {
	if strings.HasPrefix(att.MimeType, "video/") {
		return attachmentVideo
	}
	if att.MimeType == "text/plain" {
		switch strings.ToLower(path.Ext(att.Title)) {
		case ".sbv", ".vtt":
			return attachmentChatLog
		}
	}
	return attachmentOther
}

func (r *RecordingReconciler) reconcileVideo(ctx context.Context, tx store.Store, m *model.Meeting, att adapter.Attachment, manual bool) (*notify.Event, error) {
	existing, err := tx.GetRecordingByRemoteFileID(ctx, m.ID, att.FileID)
	switch {
	case err == nil:
		// Soft-deleted rows are immune to reconciliation, even while the
		// remote file stays attached to the event.
		if existing.Deleted {
			return nil, nil
		}
		return nil, r.refreshRecording(ctx, tx, existing)
	case errors.Is(err, store.ErrRecordingNotFound):
		return r.insertRecording(ctx, tx, m, att, manual)
	default:
		return nil, fmt.Errorf("look up recording %s: %w", att.FileID, err)
	}
}

func (r *RecordingReconciler) refreshRecording(ctx context.Context, tx store.Store, rec *model.Recording) error {
	info, err := r.storage.GetFile(ctx, rec.RemoteFileID)
	if err != nil {
		return fmt.Errorf("get file %s: %w", rec.RemoteFileID, err)
	}
	rec.RemoteFileName = info.Name
	rec.RemoteDuration = info.DurationMillis
	rec.RemoteThumbnail = r.fetchThumbnail(ctx, info)
	rec.RemoteTimeCreated = info.CreatedTime.Unix()
	rec.RemoteTimeModified = info.ModifiedTime.Unix()
	rec.TimeModified = r.now().Unix()
	if err := tx.UpdateRecording(ctx, rec); err != nil {
		return fmt.Errorf("update recording %d: %w", rec.ID, err)
	}
	return nil
}

func (r *RecordingReconciler) insertRecording(ctx context.Context, tx store.Store, m *model.Meeting, att adapter.Attachment, manual bool) (*notify.Event, error) {
	// One-time, irreversible side effect: the file goes public-readable so
	// course members can play it without provider accounts.
	if err := r.publishFile(ctx, att.FileID); err != nil {
		return nil, err
	}

	info, err := r.storage.GetFile(ctx, att.FileID)
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", att.FileID, err)
	}

	now := r.now().Unix()
	rec := model.Recording{
		MeetingID:          m.ID,
		CourseID:           m.CourseID,
		Name:               info.Name,
		RemoteFileID:       info.ID,
		RemoteFileName:     info.Name,
		RemoteDuration:     info.DurationMillis,
		RemoteThumbnail:    r.fetchThumbnail(ctx, info),
		RemoteTimeCreated:  info.CreatedTime.Unix(),
		RemoteTimeModified: info.ModifiedTime.Unix(),
		TimeCreated:        now,
		TimeModified:       now,
	}
	if err := tx.InsertRecording(ctx, &rec); err != nil {
		return nil, fmt.Errorf("insert recording %s: %w", att.FileID, err)
	}

	return &notify.Event{
		Name:      notify.EventRecordingFetched,
		CourseID:  m.CourseID,
		MeetingID: m.ID,
		ObjectID:  rec.ID,
		Manual:    manual,
	}, nil
}

func (r *RecordingReconciler) associateChatLog(ctx context.Context, tx store.Store, m *model.Meeting, att adapter.Attachment) error {
	stem := strings.TrimSuffix(att.Title, path.Ext(att.Title))
	rec, err := tx.FindRecordingByNameStem(ctx, m.ID, stem)
	if errors.Is(err, store.ErrRecordingNotFound) {
		// Transcript without a visible recording yet, maybe next pass.
		return nil
	}
	if err != nil {
		return fmt.Errorf("match chat log %q: %w", att.Title, err)
	}
	if rec.HasChatLog() {
		return nil
	}

	if err := r.publishFile(ctx, att.FileID); err != nil {
		return err
	}

	body, err := r.storage.StreamFile(ctx, att.FileID)
	if err != nil {
		return fmt.Errorf("stream chat log %s: %w", att.FileID, err)
	}
	content, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return fmt.Errorf("read chat log %s: %w", att.FileID, err)
	}

	stored := model.StoredFile{
		Area:    StoredFileAreaChatLog,
		ItemID:  rec.ID,
		Name:    att.Title,
		Content: content,
	}
	if err := tx.PutStoredFile(ctx, &stored); err != nil {
		return fmt.Errorf("store chat log %s: %w", att.FileID, err)
	}

	rec.ChatLogFileID = att.FileID
	rec.ChatLogFileName = att.Title
	rec.ChatLogStoredID = stored.ID
	rec.TimeModified = r.now().Unix()
	if err := tx.UpdateRecording(ctx, rec); err != nil {
		return fmt.Errorf("update recording %d: %w", rec.ID, err)
	}
	return nil
}

// publishFile strips every non-owner sharing grant, then grants public read.
func (r *RecordingReconciler) publishFile(ctx context.Context, fileID string) error {
	perms, err := r.storage.ListPermissions(ctx, fileID)
	if err != nil {
		return fmt.Errorf("list permissions %s: %w", fileID, err)
	}
	for _, p := range perms {
		if p.Role == "owner" {
			continue
		}
		if err := r.storage.DeletePermission(ctx, fileID, p.ID); err != nil {
			return fmt.Errorf("delete permission %s on %s: %w", p.ID, fileID, err)
		}
	}
	if err := r.storage.CreatePublicPermission(ctx, fileID); err != nil {
		return fmt.Errorf("grant public read on %s: %w", fileID, err)
	}
	return nil
}

// fetchThumbnail downloads the provider thumbnail and encodes it as a data
// URI. A missing or failing thumbnail is not worth failing the pass over.
func (r *RecordingReconciler) fetchThumbnail(ctx context.Context, info *adapter.FileInfo) string {
	if info.ThumbnailURL == "" {
		return ""
	}
	data, err := r.storage.Download(ctx, info.ThumbnailURL)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to download thumbnail",
			"file_id", info.ID, "error", err)
		return ""
	}
	mime := http.DetectContentType(data)
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
