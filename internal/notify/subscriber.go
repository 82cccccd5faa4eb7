package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	nats "github.com/nats-io/nats.go"
)

// EnrolmentChange is the payload of enrolment messages arriving from the
// course platform.
type EnrolmentChange struct {
	CourseID int64 `json:"course_id"`
	UserID   int64 `json:"user_id"`
}

// EnrolmentHandler reacts to roster changes by updating the participant rows
// of every upcoming meeting in the course.
type EnrolmentHandler interface {
	AddUserToMeetings(ctx context.Context, courseID, userID int64) error
	RemoveUserFromMeetings(ctx context.Context, courseID, userID int64) error
}

// EnrolmentSubscriber consumes enrol.created and enrol.deleted messages.
type EnrolmentSubscriber struct {
	conn    *nats.Conn
	handler EnrolmentHandler
	logger  *slog.Logger
	subs    []*nats.Subscription
}

func NewEnrolmentSubscriber(conn *nats.Conn, handler EnrolmentHandler, logger *slog.Logger) *EnrolmentSubscriber {
	return &EnrolmentSubscriber{conn: conn, handler: handler, logger: logger}
}

// Start subscribes to the enrolment subjects under prefix.
func (s *EnrolmentSubscriber) Start(ctx context.Context, prefix string) error {
	created, err := s.conn.Subscribe(prefix+".enrol.created", func(msg *nats.Msg) {
		s.dispatch(ctx, msg, s.handler.AddUserToMeetings)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, created)

	deleted, err := s.conn.Subscribe(prefix+".enrol.deleted", func(msg *nats.Msg) {
		s.dispatch(ctx, msg, s.handler.RemoveUserFromMeetings)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, deleted)
	return nil
}

func (s *EnrolmentSubscriber) dispatch(ctx context.Context, msg *nats.Msg, fn func(context.Context, int64, int64) error) {
	var change EnrolmentChange
	if err := json.Unmarshal(msg.Data, &change); err != nil {
		s.logger.ErrorContext(ctx, "failed to decode enrolment message",
			"subject", msg.Subject, "error", err)
		return
	}
	if err := fn(ctx, change.CourseID, change.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to apply enrolment change",
			"subject", msg.Subject, "course_id", change.CourseID,
			"user_id", change.UserID, "error", err)
	}
}

// Stop unsubscribes from all enrolment subjects.
func (s *EnrolmentSubscriber) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}
