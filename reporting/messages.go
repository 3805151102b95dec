package reporting

import (
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
)

// MessageLog is the ordered list of log lines captured during one run.
//
// The log is shared by every browser of the run: each browser's system-out
// receives the whole log as it stood when that browser completed, not only the
// lines it emitted itself.
type MessageLog struct {
	mu       sync.Mutex
	messages []string
}

// NewMessageLog returns an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Append records a log line verbatim.
func (l *MessageLog) Append(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// Len returns the number of recorded lines.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// SystemOut renders the log for a suite's system-out element: lines joined
// with "," and terminated by a newline. The result is written as CDATA, which
// is not escaped, so terminal color codes are stripped and characters XML
// does not allow are replaced with U+FFFD.
func (l *MessageLog) SystemOut() string {
	l.mu.Lock()
	joined := strings.Join(l.messages, ",")
	l.mu.Unlock()
	return xmlSafe(stripansi.Strip(joined)) + "\n"
}

// xmlSafe maps every rune outside the XML 1.0 Char production to U+FFFD.
func xmlSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return '\uFFFD'
	}, s)
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
