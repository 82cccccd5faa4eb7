package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapture(t *testing.T) {
	c := NewCapture()
	ctx := context.Background()

	c.Publish(ctx, Event{Name: EventRecordingFetched, MeetingID: 1, ObjectID: 5})
	c.Publish(ctx, Event{Name: EventMeetingJoined, MeetingID: 1, UserID: 3})
	c.Publish(ctx, Event{Name: EventRecordingFetched, MeetingID: 2, ObjectID: 6})

	assert.Len(t, c.Events(), 3)

	fetched := c.Named(EventRecordingFetched)
	assert.Len(t, fetched, 2)
	assert.Equal(t, int64(5), fetched[0].ObjectID)
	assert.Equal(t, int64(6), fetched[1].ObjectID)

	assert.Empty(t, c.Named(EventRecordingDeleted))
}
