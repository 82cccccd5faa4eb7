package sync

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"
)

// ChatMessage is one parsed transcript entry.
type ChatMessage struct {
	Offset time.Duration `json:"offset"`
	Author string        `json:"author"`
	Text   string        `json:"text"`
}

// ParseChatLog decodes a caption-format transcript (blocks of a timestamp
// line followed by "Author: text" lines, separated by blank lines) into
// ordered messages. Lines that do not parse are skipped rather than failing
// the whole transcript.
func ParseChatLog(content []byte) []ChatMessage {
	var (
		out     []ChatMessage
		current time.Duration
		haveTS  bool
	)

	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			haveTS = false
			continue
		}

		if ts, ok := parseCueStart(line); ok {
			current = ts
			haveTS = true
			continue
		}
		if !haveTS {
			continue
		}

		author, text, found := strings.Cut(line, ":")
		if !found {
			// Continuation of the previous message.
			if len(out) > 0 {
				out[len(out)-1].Text += "\n" + line
			}
			continue
		}
		out = append(out, ChatMessage{
			Offset: current,
			Author: strings.TrimSpace(author),
			Text:   strings.TrimSpace(text),
		})
	}
	return out
}

// parseCueStart reads the start time of a cue line like
// "0:00:05.000,0:00:07.000" or "00:00:05.000 --> 00:00:07.000".
func parseCueStart(line string) (time.Duration, bool) {
	var start string
	switch {
	case strings.Contains(line, "-->"):
		start = strings.TrimSpace(strings.SplitN(line, "-->", 2)[0])
	case strings.Contains(line, ","):
		start = strings.SplitN(line, ",", 2)[0]
	default:
		return 0, false
	}

	var h, m, s, ms int
	if _, err := fmt.Sscanf(start, "%d:%d:%d.%d", &h, &m, &s, &ms); err != nil {
		return 0, false
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, true
}
