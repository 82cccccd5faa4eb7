package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/univel/meetsync/internal/adapter"
	"github.com/univel/meetsync/internal/enrol"
	"github.com/univel/meetsync/internal/model"
	"github.com/univel/meetsync/internal/store"
)

// ParticipantReconciler converges the participant rows of a meeting on the
// course's current enrolment, merging in whatever response state the remote
// event already carries.
type ParticipantReconciler struct {
	roster enrol.Roster
	now    func() time.Time
}

func NewParticipantReconciler(roster enrol.Roster) *ParticipantReconciler {
	return &ParticipantReconciler{roster: roster, now: time.Now}
}

// Reconcile partitions enrolled users against persisted rows into removed,
// added and kept sets, applies the minimal delete/insert/update set, and
// fills sc.Users and sc.Participants with the converged result. remote may be
// nil when the meeting has never been synchronized.
func (r *ParticipantReconciler) Reconcile(ctx context.Context, tx store.Store, sc *MeetingSyncContext, remote *adapter.Event) error {
	users, err := r.roster.EnrolledUsers(ctx, sc.Meeting.CourseID)
	if err != nil {
		return fmt.Errorf("list enrolled users: %w", err)
	}
	sc.Users = users

	rows, err := tx.ListParticipants(ctx, sc.Meeting.ID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	persisted := make(map[int64]model.Participant, len(rows))
	for _, p := range rows {
		persisted[p.UserID] = p
	}

	var removed []int64
	for userID := range persisted {
		if _, ok := users[userID]; !ok {
			removed = append(removed, userID)
		}
	}
	if err := tx.DeleteParticipantsByUser(ctx, sc.Meeting.ID, removed); err != nil {
		return fmt.Errorf("delete unenrolled participants: %w", err)
	}

	byEmail := attendeesByEmail(remote)
	now := r.now().Unix()

	var final []model.Participant
	for userID, u := range users {
		p, kept := persisted[userID]
		if !kept {
			p = model.Participant{
				MeetingID:   sc.Meeting.ID,
				CourseID:    sc.Meeting.CourseID,
				UserID:      userID,
				Status:      model.ResponseNeedsAction,
				TimeCreated: now,
			}
			p.TimeModified = now
			if err := tx.InsertParticipant(ctx, &p); err != nil {
				return fmt.Errorf("insert participant %d: %w", userID, err)
			}
			final = append(final, p)
			continue
		}

		// Kept rows pick up the response state the provider reports;
		// rows without a remote match stay as they are.
		if att, ok := byEmail[u.Email]; ok {
			p.Status = model.ResponseStatus(att.ResponseStatus)
			p.Comment = att.Comment
			p.TimeModified = now
			if err := tx.UpdateParticipant(ctx, &p); err != nil {
				return fmt.Errorf("update participant %d: %w", userID, err)
			}
		}
		final = append(final, p)
	}

	sc.Participants = final
	return nil
}

// RefreshResponses overwrites status and comment of existing rows from the
// remote attendee list. Roster membership is never changed here; enrolment
// is the source of truth for who participates, the provider only knows how
// they responded.
func (r *ParticipantReconciler) RefreshResponses(ctx context.Context, tx store.Store, meeting *model.Meeting, remote *adapter.Event) error {
	byEmail := attendeesByEmail(remote)
	if len(byEmail) == 0 {
		return nil
	}

	rows, err := tx.ListParticipants(ctx, meeting.ID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	now := r.now().Unix()
	for i := range rows {
		u, err := r.roster.GetUser(ctx, rows[i].UserID)
		if err != nil {
			continue
		}
		att, ok := byEmail[u.Email]
		if !ok {
			continue
		}
		if rows[i].Status == model.ResponseStatus(att.ResponseStatus) && rows[i].Comment == att.Comment {
			continue
		}
		rows[i].Status = model.ResponseStatus(att.ResponseStatus)
		rows[i].Comment = att.Comment
		rows[i].TimeModified = now
		if err := tx.UpdateParticipant(ctx, &rows[i]); err != nil {
			return fmt.Errorf("update participant %d: %w", rows[i].UserID, err)
		}
	}
	return nil
}

func attendeesByEmail(remote *adapter.Event) map[string]adapter.Attendee {
	if remote == nil {
		return nil
	}
	out := make(map[string]adapter.Attendee, len(remote.Attendees))
	for _, a := range remote.Attendees {
		out[a.Email] = a
	}
	return out
}
