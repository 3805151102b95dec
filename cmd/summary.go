package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	jenkins "github.com/ethereum-optimism/infra/jenkins-reporter"
	"github.com/ethereum-optimism/infra/jenkins-reporter/junit"
	"github.com/ethereum-optimism/infra/jenkins-reporter/reporting"
)

// SummaryCommand defines the "summary" command, which prints an existing report as a table.
func SummaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Print a per-browser summary of a JUnit XML report",
		ArgsUsage: "<report.xml>",
		Description: `Reads a report written by jenkins-reporter and prints one row per browser.
Exits with code 1 when any browser has failures, errors or never completed.

Examples:
  jenkins-reporter summary test-results.xml`,
		Action: summarize,
	}
}

func summarize(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return jenkins.NewRuntimeError(errors.New("expected exactly one report file"))
	}
	path := ctx.Args().First()

	doc, err := junit.ParseFile(path)
	if err != nil {
		return jenkins.NewRuntimeError(err)
	}

	table := reporting.NewSummaryTable(fmt.Sprintf("Test Results (%s)", filepath.Base(path)), ctx.App.Writer)
	if err := table.Print(doc); err != nil {
		return jenkins.NewRuntimeError(err)
	}

	if failing := countFailing(doc); failing > 0 {
		return jenkins.NewTestFailureError(fmt.Sprintf("%d of %d browsers failed", failing, len(doc.Suites)))
	}
	return nil
}

func countFailing(doc *junit.TestSuites) int {
	n := 0
	for _, suite := range doc.Suites {
		if suite.Failing() {
			n++
		}
	}
	return n
}
