package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univel/meetsync/internal/adapter"
)

func TestParseChatLog(t *testing.T) {
	content := []byte(`0:00:05.000,0:00:05.001
Alice: hello everyone

0:01:30.500,0:01:30.501
Bob: link is in the agenda
second line without colon

1:02:03.000,1:02:03.001
Carol: bye
`)

	messages := ParseChatLog(content)
	require.Len(t, messages, 3)

	assert.Equal(t, 5*time.Second, messages[0].Offset)
	assert.Equal(t, "Alice", messages[0].Author)
	assert.Equal(t, "hello everyone", messages[0].Text)

	assert.Equal(t, time.Minute+30*time.Second+500*time.Millisecond, messages[1].Offset)
	assert.Equal(t, "Bob", messages[1].Author)
	assert.Equal(t, "link is in the agenda\nsecond line without colon", messages[1].Text)

	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, messages[2].Offset)
	assert.Equal(t, "Carol", messages[2].Author)
}

func TestParseChatLogVTTArrowCues(t *testing.T) {
	content := []byte(`00:00:10.000 --> 00:00:12.000
Alice: works with arrow cues too
`)
	messages := ParseChatLog(content)
	require.Len(t, messages, 1)
	assert.Equal(t, 10*time.Second, messages[0].Offset)
}

func TestParseChatLogGarbage(t *testing.T) {
	assert.Empty(t, ParseChatLog([]byte("no timestamps here\njust prose\n")))
	assert.Empty(t, ParseChatLog(nil))
}

func TestClassifyAttachment(t *testing.T) {
	cases := []struct {
		mime, title string
		want        attachmentKind
	}{
		{"video/mp4", "rec.mp4", attachmentVideo},
		{"video/webm", "rec.webm", attachmentVideo},
		{"text/plain", "rec.sbv", attachmentChatLog},
		{"text/plain", "rec.SBV", attachmentChatLog},
		{"text/plain", "rec.vtt", attachmentChatLog},
		{"text/plain", "notes.txt", attachmentOther},
		{"application/pdf", "slides.pdf", attachmentOther},
	}
	for _, tc := range cases {
		got := classifyAttachment(adapter.Attachment{MimeType: tc.mime, Title: tc.title})
		assert.Equal(t, tc.want, got, "%s %s", tc.mime, tc.title)
	}
}
