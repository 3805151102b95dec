package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageLog(t *testing.T) {
	l := NewMessageLog()
	assert.Equal(t, "\n", l.SystemOut())
	assert.Equal(t, 0, l.Len())

	l.Append("LOG: 'one'")
	l.Append("WARN: 'two'\n")
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, "LOG: 'one',WARN: 'two'\n\n", l.SystemOut())
}

func TestMessageLogSystemOutIsXMLSafe(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "color codes", in: "LOG: '\x1b[31mred\x1b[0m'", want: "LOG: 'red'\n"},
		{name: "control characters", in: "a\x00b\x07c\x1fd", want: "a\ufffdb\ufffdc\ufffdd\n"},
		{name: "whitespace kept", in: "tab\there\r\nnext", want: "tab\there\r\nnext\n"},
		{name: "non ascii kept", in: "héllo 世界 🚀", want: "héllo 世界 🚀\n"},
		{name: "noncharacters", in: "x\ufffey", want: "x\ufffdy\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewMessageLog()
			l.Append(tt.in)
			assert.Equal(t, tt.want, l.SystemOut())
		})
	}
}
