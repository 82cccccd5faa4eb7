package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/univel/meetsync/internal/model"
	"github.com/univel/meetsync/internal/store"
	"github.com/univel/meetsync/internal/sync"
)

// RecordingController serves the recording management surface.
type RecordingController struct {
	svc    *sync.Service
	store  store.Store
	logger *slog.Logger
}

func NewRecordingController(svc *sync.Service, st store.Store, logger *slog.Logger) *RecordingController {
	return &RecordingController{svc: svc, store: st, logger: logger}
}

// List returns a meeting's recordings. Hidden and zero-duration (broken or
// still transcoding) recordings are filtered out for non-managers.
func (c *RecordingController) List(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	recs, err := c.store.ListRecordings(ctx.Request.Context(), id, false)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	if !isManager(ctx) {
		recs = filterVisible(recs)
	}
	ctx.JSON(http.StatusOK, gin.H{"recordings": recs})
}

func filterVisible(recs []model.Recording) []model.Recording {
	out := recs[:0:0]
	for _, r := range recs {
		if r.Hidden || r.RemoteDuration == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Update edits name, description and the hidden flag.
func (c *RecordingController) Update(ctx *gin.Context) {
	id, err := recordingID(ctx)
	if err != nil {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Hidden      bool   `json:"hidden"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := c.svc.UpdateRecording(ctx.Request.Context(), id, req.Name, req.Description, req.Hidden); err != nil {
		respondStoreError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Delete soft-deletes; the row survives so reconciliation never resurrects
// the remote file.
func (c *RecordingController) Delete(ctx *gin.Context) {
	id, err := recordingID(ctx)
	if err != nil {
		return
	}
	if err := c.svc.DeleteRecording(ctx.Request.Context(), id, actingUser(ctx)); err != nil {
		respondStoreError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Play records a playback event and returns what the player needs.
func (c *RecordingController) Play(ctx *gin.Context) {
	id, err := recordingID(ctx)
	if err != nil {
		return
	}
	rctx := ctx.Request.Context()

	rec, err := c.store.GetRecording(rctx, id)
	if err != nil || rec.Deleted {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}
	if !isManager(ctx) && (rec.Hidden || rec.RemoteDuration == 0) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}

	if err := c.svc.RecordingPlayed(rctx, id, actingUser(ctx)); err != nil {
		respondStoreError(ctx, err)
		return
	}

	chat, err := c.svc.RecordingChatLog(rctx, id)
	if err != nil && !errors.Is(err, store.ErrFileNotFound) {
		respondStoreError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"recording": rec, "chat_log": chat})
}

func recordingID(ctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("recordingID"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid recording id"})
		return 0, err
	}
	return id, nil
}
