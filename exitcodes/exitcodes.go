// Package exitcodes defines the exit codes used by jenkins-reporter.
package exitcodes

// Exit code constants used by jenkins-reporter.
//
// * Success (0): the report was produced, or a summarized report has no failures
// * TestFailure (1): a summarized report contains failures or errors
// * RuntimeErr (2): configuration errors, unreadable or corrupt event streams
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
