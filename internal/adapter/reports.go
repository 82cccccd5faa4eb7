package adapter

import (
	"context"
	"time"
)

// Activity is one audit record of a user joining or leaving a conference.
type Activity struct {
	ActorEmail      string    `json:"actor_email"`
	Time            time.Time `json:"time"`
	DurationSeconds int64     `json:"duration_seconds"`
	DisplayName     string    `json:"display_name"`
}

// ReportsAdapter lists the provider's audit activity for a conference,
// identified by meeting code (conference id with separators stripped).
type ReportsAdapter interface {
	ListMeetActivities(ctx context.Context, meetingCode string) ([]Activity, error)
}
