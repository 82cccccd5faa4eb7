package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/univel/meetsync/internal/adapter"
	"github.com/univel/meetsync/internal/store"
)

// renewMargin keeps a safety gap so the replacement channel exists before the
// old one expires.
const renewMargin = time.Hour

// ChannelManager keeps the calendar watch channel alive. Renewal is lazy:
// every save/delete/fetch path calls Ensure first, there is no background
// timer.
type ChannelManager struct {
	cal         adapter.CalendarAdapter
	callbackURL string
	logger      *slog.Logger
	now         func() time.Time
}

func NewChannelManager(cal adapter.CalendarAdapter, callbackURL string, logger *slog.Logger) *ChannelManager {
	return &ChannelManager{
		cal:         cal,
		callbackURL: callbackURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Ensure re-registers the watch channel when none is stored or the stored one
// is inside the renewal margin. The sync token survives renewal; only the
// channel identity changes.
func (c *ChannelManager) Ensure(ctx context.Context, tx store.Store) error {
	st, err := tx.GetSyncState(ctx)
	if err != nil {
		return fmt.Errorf("get sync state: %w", err)
	}

	deadline := c.now().Add(renewMargin).Unix()
	if st.ChannelID != "" && st.ChannelExpiration > deadline {
		return nil
	}

	if st.ChannelID != "" {
		if err := c.cal.StopChannel(ctx, st.ChannelID, st.ChannelResourceID); err != nil {
			c.logger.WarnContext(ctx, "failed to stop expired channel",
				"channel_id", st.ChannelID, "error", err)
		}
	}

	ch, err := c.cal.Watch(ctx, uuid.NewString(), c.callbackURL)
	if err != nil {
		return fmt.Errorf("register watch channel: %w", err)
	}

	st.ChannelID = ch.ID
	st.ChannelResourceID = ch.ResourceID
	st.ChannelExpiration = ch.Expiration.Unix()
	if err := tx.SaveSyncState(ctx, st); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}

	c.logger.InfoContext(ctx, "registered watch channel",
		"channel_id", ch.ID, "expires", ch.Expiration)
	return nil
}
