// Package notify publishes meeting lifecycle events to the message bus.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	nats "github.com/nats-io/nats.go"
)

// Event names published on the bus.
const (
	EventRecordingFetched = "recording.fetched"
	EventRecordingDeleted = "recording.deleted"
	EventRecordingPlayed  = "recording.played"
	EventMeetingJoined    = "meeting.joined"
	EventReportViewed     = "report.viewed"
)

// Event is the envelope every message carries.
type Event struct {
	Name      string `json:"name"`
	CourseID  int64  `json:"course_id"`
	MeetingID int64  `json:"meeting_id"`
	ObjectID  int64  `json:"object_id,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	// Manual distinguishes operator-forced recording fetches from the
	// cache-driven automatic ones.
	Manual bool  `json:"manual,omitempty"`
	Time   int64 `json:"time"`
}

// Publisher emits domain events. Implementations must be safe for concurrent
// use; publish failures are logged, never propagated to the caller's
// transaction.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// NATSPublisher publishes events as JSON messages on subjectPrefix.<name>.
type NATSPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *slog.Logger
}

func NewNATSPublisher(conn *nats.Conn, subjectPrefix string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, subjectPrefix: subjectPrefix, logger: logger}
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) {
	if ev.Time == 0 {
		ev.Time = time.Now().Unix()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "name", ev.Name, "error", err)
		return
	}
	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, ev.Name)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event", "subject", subject, "error", err)
		return
	}
	p.logger.DebugContext(ctx, "published event",
		"subject", subject, "meeting_id", ev.MeetingID, "course_id", ev.CourseID)
}
