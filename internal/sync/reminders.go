package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/univel/meetsync/internal/model"
	"github.com/univel/meetsync/internal/store"
)

// ReminderReconciler replaces a meeting's reminder rows with the desired
// ordered set, aligning by position so that the overlapping prefix keeps its
// row identity and creation time.
type ReminderReconciler struct {
	now func() time.Time
}

func NewReminderReconciler() *ReminderReconciler {
	return &ReminderReconciler{now: time.Now}
}

// Reconcile aligns desired against the persisted rows (ordered by id). Rows
// past the desired count are deleted; desired entries past the persisted
// count are inserted fresh; the overlap is updated in place. Desired entries
// with a zero lead amount are dropped before alignment. The converged ordered
// set lands in sc.Reminders.
func (r *ReminderReconciler) Reconcile(ctx context.Context, tx store.Store, sc *MeetingSyncContext, desired []model.Reminder) error {
	kept := desired[:0:0]
	for _, d := range desired {
		if d.Before == 0 {
			continue
		}
		kept = append(kept, d)
	}
	desired = kept

	persisted, err := tx.ListReminders(ctx, sc.Meeting.ID)
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}

	if len(desired) < len(persisted) {
		var excess []int64
		for _, row := range persisted[len(desired):] {
			excess = append(excess, row.ID)
		}
		if err := tx.DeleteReminders(ctx, excess); err != nil {
			return fmt.Errorf("delete excess reminders: %w", err)
		}
		persisted = persisted[:len(desired)]
	}

	now := r.now().Unix()
	final := make([]model.Reminder, 0, len(desired))
	for i, d := range desired {
		d.MeetingID = sc.Meeting.ID
		d.CourseID = sc.Meeting.CourseID
		d.TimeModified = now

		if i < len(persisted) {
			d.ID = persisted[i].ID
			d.TimeCreated = persisted[i].TimeCreated
			if err := tx.UpdateReminder(ctx, &d); err != nil {
				return fmt.Errorf("update reminder %d: %w", d.ID, err)
			}
		} else {
			d.ID = 0
			d.TimeCreated = now
			if err := tx.InsertReminder(ctx, &d); err != nil {
				return fmt.Errorf("insert reminder: %w", err)
			}
		}
		final = append(final, d)
	}

	sc.Reminders = final
	return nil
}
