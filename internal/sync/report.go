package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/univel/meetsync/internal/notify"
)

// ViewerKind classifies a report row's subject against the course roster.
type ViewerKind string

const (
	ViewerEnrolled    ViewerKind = "enrolled"
	ViewerNotEnrolled ViewerKind = "not_enrolled"
)

// AttendanceRow aggregates one person's presence in a meeting.
type AttendanceRow struct {
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name"`
	Kind        ViewerKind    `json:"kind"`
	JoinCount   int           `json:"join_count"`
	Duration    time.Duration `json:"duration"`
	FirstJoined time.Time     `json:"first_joined"`
}

// AttendanceReport aggregates the provider's audit activities for the
// meeting's conference code per attendee.
func (s *Service) AttendanceReport(ctx context.Context, meetingID, actorID int64) ([]AttendanceRow, error) {
	m, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if m.RemoteMeetingID == "" {
		return nil, nil
	}

	// The audit API expects the conference code without dashes.
	code := strings.ReplaceAll(m.RemoteMeetingID, "-", "")
	activities, err := s.reports.ListMeetActivities(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list meet activities: %w", err)
	}

	enrolled, err := s.roster.EnrolledUsers(ctx, m.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list enrolled users: %w", err)
	}
	enrolledEmails := make(map[string]bool, len(enrolled))
	for _, u := range enrolled {
		enrolledEmails[u.Email] = true
	}

	rows := make(map[string]*AttendanceRow)
	for _, a := range activities {
		row, ok := rows[a.ActorEmail]
		if !ok {
			kind := ViewerNotEnrolled
			if enrolledEmails[a.ActorEmail] {
				kind = ViewerEnrolled
			}
			row = &AttendanceRow{
				Email:       a.ActorEmail,
				DisplayName: a.DisplayName,
				Kind:        kind,
				FirstJoined: a.Time,
			}
			rows[a.ActorEmail] = row
		}
		row.JoinCount++
		row.Duration += time.Duration(a.DurationSeconds) * time.Second
		if a.Time.Before(row.FirstJoined) {
			row.FirstJoined = a.Time
		}
		if row.DisplayName == "" {
			row.DisplayName = a.DisplayName
		}
	}

	out := make([]AttendanceRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })

	s.publisher.Publish(ctx, notify.Event{
		Name:      notify.EventReportViewed,
		CourseID:  m.CourseID,
		MeetingID: m.ID,
		UserID:    actorID,
	})
	return out, nil
}
