package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/univel/meetsync/internal/adapter"
	"github.com/univel/meetsync/internal/notify"
	"github.com/univel/meetsync/internal/store"
)

// WebhookProcessor turns an inbound change notification into a reconciliation
// pass over every meeting the provider reports as changed.
type WebhookProcessor struct {
	store        store.Store
	cal          adapter.CalendarAdapter
	participants *ParticipantReconciler
	recordings   *RecordingReconciler
	publisher    notify.Publisher
	logger       *slog.Logger
	now          func() time.Time
}

func NewWebhookProcessor(st store.Store, cal adapter.CalendarAdapter, participants *ParticipantReconciler, recordings *RecordingReconciler, publisher notify.Publisher, logger *slog.Logger) *WebhookProcessor {
	return &WebhookProcessor{
		store:        st,
		cal:          cal,
		participants: participants,
		recordings:   recordings,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// VerifyChannel reports whether channelID matches the stored watch channel.
// Mismatches are the caller's cue to ignore the notification silently.
func (p *WebhookProcessor) VerifyChannel(ctx context.Context, channelID string) (bool, error) {
	st, err := p.store.GetSyncState(ctx)
	if err != nil {
		return false, fmt.Errorf("get sync state: %w", err)
	}
	return st.ChannelID != "" && st.ChannelID == channelID, nil
}

// Process lists every event changed since the stored sync token and, for each
// one that maps to a local meeting, refreshes participant responses and
// reconciles recordings. The whole batch runs in one transaction; the next
// sync token is persisted only after every meeting reconciled cleanly, so a
// mid-batch failure leaves the token (and all rows) untouched. Notifications
// collected during the batch go out only after the commit.
func (p *WebhookProcessor) Process(ctx context.Context) error {
	var pending []notify.Event
	err := p.store.Transaction(ctx, func(tx store.Store) error {
		st, err := tx.GetSyncState(ctx)
		if err != nil {
			return fmt.Errorf("get sync state: %w", err)
		}

		page, err := p.cal.ListEventsSince(ctx, st.NextSyncToken)
		if err != nil {
			return fmt.Errorf("list changed events: %w", err)
		}

		pending = pending[:0]
		for i := range page.Items {
			events, err := p.processEvent(ctx, tx, &page.Items[i])
			if err != nil {
				return err
			}
			pending = append(pending, events...)
		}

		st.NextSyncToken = page.NextSyncToken
		if err := tx.SaveSyncState(ctx, st); err != nil {
			return fmt.Errorf("save sync state: %w", err)
		}

		p.logger.InfoContext(ctx, "processed webhook batch",
			"events", len(page.Items), "next_sync_token", page.NextSyncToken)
		return nil
	})
	if err != nil {
		return err
	}
	for _, ev := range pending {
		p.publisher.Publish(ctx, ev)
	}
	return nil
}

func (p *WebhookProcessor) processEvent(ctx context.Context, tx store.Store, ev *adapter.Event) ([]notify.Event, error) {
	meeting, err := tx.GetMeetingByRemoteEventID(ctx, ev.ID)
	if errors.Is(err, store.ErrMeetingNotFound) {
		// Unrelated calendar activity on the same calendar.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up meeting for event %s: %w", ev.ID, err)
	}

	// Roster membership never changes from webhook data, only responses.
	if err := p.participants.RefreshResponses(ctx, tx, meeting, ev); err != nil {
		return nil, fmt.Errorf("refresh responses for meeting %d: %w", meeting.ID, err)
	}

	events, err := p.recordings.Reconcile(ctx, tx, meeting, ev.Attachments, false)
	if err != nil {
		return nil, fmt.Errorf("reconcile recordings for meeting %d: %w", meeting.ID, err)
	}

	meeting.RecordingsLastCheck = p.now().Unix()
	if err := tx.UpdateMeeting(ctx, meeting); err != nil {
		return nil, fmt.Errorf("update meeting %d: %w", meeting.ID, err)
	}
	return events, nil
}
