package handler

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP surface. The webhook endpoint is deliberately
// outside the authenticated group; it authenticates by identity header and
// channel id instead.
func SetupRouter(jwtSecret string, meetings *MeetingController, recordings *RecordingController, webhook *WebhookController) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/webhook/calendar", webhook.Notify)

	api := router.Group("/api")
	api.Use(AuthMiddleware(jwtSecret))

	api.POST("/meetings", meetings.Create)
	api.GET("/meetings/:meetingID", meetings.Get)
	api.PUT("/meetings/:meetingID", meetings.Update)
	api.DELETE("/meetings/:meetingID", meetings.Delete)
	api.POST("/meetings/:meetingID/restore", meetings.Restore)
	api.PATCH("/meetings/:meetingID/name", meetings.Rename)
	api.POST("/meetings/:meetingID/join", meetings.Join)
	api.GET("/meetings/:meetingID/recordings", recordings.List)

	manager := api.Group("")
	manager.Use(RequireManager())
	manager.POST("/meetings/:meetingID/recordings/refresh", meetings.Refresh)
	manager.GET("/meetings/:meetingID/report", meetings.Report)
	manager.PATCH("/recordings/:recordingID", recordings.Update)
	manager.DELETE("/recordings/:recordingID", recordings.Delete)

	api.POST("/recordings/:recordingID/play", recordings.Play)

	return router
}
