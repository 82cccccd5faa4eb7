// Package handler exposes the lifecycle, recordings, report and webhook HTTP
// surface over gin.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univel/meetsync/internal/model"
	"github.com/univel/meetsync/internal/store"
	"github.com/univel/meetsync/internal/sync"
)

// MeetingController serves the meeting lifecycle entry points.
type MeetingController struct {
	svc    *sync.Service
	store  store.Store
	logger *slog.Logger
}

func NewMeetingController(svc *sync.Service, st store.Store, logger *slog.Logger) *MeetingController {
	return &MeetingController{svc: svc, store: st, logger: logger}
}

type reminderInput struct {
	Method model.ReminderMethod `json:"method" binding:"required"`
	Unit   model.ReminderUnit   `json:"unit" binding:"required"`
	Before int64                `json:"before"`
}

type meetingInput struct {
	CourseID    int64           `json:"course_id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	TimeStart   int64           `json:"time_start" binding:"required"`
	TimeEnd     int64           `json:"time_end" binding:"required"`
	Notify      bool            `json:"notify"`
	Reminders   []reminderInput `json:"reminders"`
}

func desiredReminders(in []reminderInput) []model.Reminder {
	out := make([]model.Reminder, 0, len(in))
	for _, r := range in {
		out = append(out, model.Reminder{
			Method: r.Method,
			Unit:   r.Unit,
			Before: r.Before,
		})
	}
	return out
}

// Create handles the instance-add hook.
func (c *MeetingController) Create(ctx *gin.Context) {
	var req meetingInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	m := model.Meeting{
		CourseID:    req.CourseID,
		Name:        req.Name,
		Description: req.Description,
		TimeStart:   req.TimeStart,
		TimeEnd:     req.TimeEnd,
		Notify:      req.Notify,
	}
	if err := c.svc.CreateMeeting(ctx.Request.Context(), &m, desiredReminders(req.Reminders)); err != nil {
		c.logger.ErrorContext(ctx.Request.Context(), "failed to create meeting", "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"meeting": m})
}

// Update handles the instance-update hook.
func (c *MeetingController) Update(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	var req meetingInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	m, err := c.store.GetMeeting(ctx.Request.Context(), id)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	m.Name = req.Name
	m.Description = req.Description
	m.TimeStart = req.TimeStart
	m.TimeEnd = req.TimeEnd
	m.Notify = req.Notify

	if err := c.svc.UpdateMeeting(ctx.Request.Context(), m, desiredReminders(req.Reminders)); err != nil {
		c.logger.ErrorContext(ctx.Request.Context(), "failed to update meeting", "meeting_id", id, "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"meeting": m})
}

// Delete handles the instance-delete hook.
func (c *MeetingController) Delete(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	if err := c.svc.DeleteMeeting(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrMeetingNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		c.logger.ErrorContext(ctx.Request.Context(), "failed to delete meeting", "meeting_id", id, "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Restore handles the restore-complete hook: the local row exists, the
// remote event does not yet.
func (c *MeetingController) Restore(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	if err := c.svc.RestoreMeeting(ctx.Request.Context(), id); err != nil {
		respondStoreError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Rename pushes just a new title.
func (c *MeetingController) Rename(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := c.svc.UpdateMeetingName(ctx.Request.Context(), id, req.Name); err != nil {
		respondStoreError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Get is the view path: it opportunistically refreshes recordings inside the
// fetch/cache windows, then returns the meeting with its satellite rows. A
// refresh failure is logged and skipped so the view still shows the last
// known-good state.
func (c *MeetingController) Get(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	rctx := ctx.Request.Context()

	if err := c.svc.FetchRecordings(rctx, id, false); err != nil {
		c.logger.WarnContext(rctx, "recordings refresh skipped", "meeting_id", id, "error", err)
	}

	m, err := c.store.GetMeeting(rctx, id)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	participants, err := c.store.ListParticipants(rctx, id)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	reminders, err := c.store.ListReminders(rctx, id)
	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"meeting":      m,
		"participants": participants,
		"reminders":    reminders,
		"room_open":    sync.MeetingRoomState(m, nowUnix()) == sync.RoomOpen,
	})
}

// Refresh is the manual recordings refresh, bypassing the time windows.
func (c *MeetingController) Refresh(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	if err := c.svc.FetchRecordings(ctx.Request.Context(), id, true); err != nil {
		respondStoreError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Join hands out the conference URI while the room is open.
func (c *MeetingController) Join(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	uri, err := c.svc.JoinMeeting(ctx.Request.Context(), id, actingUser(ctx))
	if err != nil {
		if errors.Is(err, sync.ErrRoomNotAvailable) {
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		respondStoreError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"join_uri": uri})
}

// Report returns the aggregated attendance rows.
func (c *MeetingController) Report(ctx *gin.Context) {
	id, err := meetingID(ctx)
	if err != nil {
		return
	}
	rows, err := c.svc.AttendanceReport(ctx.Request.Context(), id, actingUser(ctx))
	if err != nil {
		respondStoreError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"attendance": rows})
}

func meetingID(ctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("meetingID"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return 0, err
	}
	return id, nil
}

func nowUnix() int64 {
	return time.Now().Unix()
}

func respondStoreError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrMeetingNotFound),
		errors.Is(err, store.ErrRecordingNotFound),
		errors.Is(err, store.ErrFileNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
