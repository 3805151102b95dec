package jenkins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/jenkins-reporter/types"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Expected 1 to be 2.", want: "Expected 1 to be 2.\n"},
		{name: "trailing whitespace", in: "boom \n\n", want: "boom\n"},
		{name: "colored", in: "\x1b[31mExpected\x1b[39m true", want: "Expected true\n"},
		{name: "multiline stack", in: "Error: x\n    at foo (a.js:1:2)\n", want: "Error: x\n    at foo (a.js:1:2)\n"},
		{name: "empty", in: "", want: "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatError(tt.in))
		})
	}
}

func TestDefaultNameFormatter(t *testing.T) {
	browser := &types.Browser{Name: "Chrome"}
	assert.Equal(t, "A B works", DefaultNameFormatter(browser, &types.SpecResult{Suite: []string{"A", "B"}, Description: "works"}))
	assert.Equal(t, " works", DefaultNameFormatter(browser, &types.SpecResult{Description: "works"}))
}
