package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"

	jenkins "github.com/ethereum-optimism/infra/jenkins-reporter"
	"github.com/ethereum-optimism/infra/jenkins-reporter/exitcodes"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "no error", err: nil, want: exitcodes.Success},
		{name: "runtime error", err: jenkins.NewRuntimeError(errors.New("boom")), want: exitcodes.RuntimeErr},
		{name: "wrapped runtime error", err: fmt.Errorf("failed to create reporter: %w", jenkins.NewRuntimeError(errors.New("boom"))), want: exitcodes.RuntimeErr},
		{name: "test failure", err: jenkins.NewTestFailureError("1 of 2 browsers failed"), want: exitcodes.TestFailure},
		{name: "cli exit", err: cli.Exit("usage", 3), want: 3},
		{name: "plain error", err: errors.New("unexpected"), want: exitcodes.TestFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
