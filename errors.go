package jenkins

import (
	"fmt"

	"github.com/ethereum-optimism/infra/jenkins-reporter/exitcodes"
)

// RuntimeError is an operational failure: an unreadable config, a corrupt
// event stream or a listener that cannot bind. It satisfies cli.ExitCoder.
type RuntimeError struct {
	Err error
}

func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func (e *RuntimeError) ExitCode() int {
	return exitcodes.RuntimeErr
}

// TestFailureError is returned when a finished report has failing browsers.
type TestFailureError struct {
	Message string
}

func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

func (e *TestFailureError) ExitCode() int {
	return exitcodes.TestFailure
}
