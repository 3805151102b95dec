package jenkins

import (
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/jenkins-reporter/types"
)

// ErrorFormatter turns one entry of a failed spec's log into the text of a
// failure element.
type ErrorFormatter func(msg string) string

// NameFormatter produces the test case name for a spec result.
type NameFormatter func(browser *types.Browser, result *types.SpecResult) string

// FormatError strips terminal color codes and trailing whitespace from msg and
// terminates it with a single newline, the way the runner prints errors.
func FormatError(msg string) string {
	return strings.TrimRight(stripansi.Strip(msg), " \t\r\n") + "\n"
}

// DefaultNameFormatter joins the suite path and the description with spaces.
func DefaultNameFormatter(_ *types.Browser, result *types.SpecResult) string {
	return result.SuitePath(" ") + " " + result.Description
}
