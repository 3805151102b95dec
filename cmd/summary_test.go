package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	jenkins "github.com/ethereum-optimism/infra/jenkins-reporter"
	"github.com/ethereum-optimism/infra/jenkins-reporter/junit"
)

func writeReport(t *testing.T, failures int) string {
	t.Helper()
	doc := junit.NewTestSuites()
	suite := doc.AddSuite(&junit.TestSuite{Name: "Chrome", Timestamp: "2024-01-02T03:04:05", Hostname: "h"})
	suite.AddTestCase(&junit.TestCase{Name: "A works", Classname: "Chrome.A", Package: "Chrome", ParentSuites: "A"})
	suite.Finalize(1, 0, failures, junit.SecondsFromMillis(150))

	content, err := doc.Render()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "test-results.xml")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func runSummary(args ...string) (string, error) {
	out := &bytes.Buffer{}
	app := &cli.App{
		Name:           "jenkins-reporter",
		Writer:         out,
		Commands:       []*cli.Command{SummaryCommand()},
		ExitErrHandler: func(*cli.Context, error) {},
	}
	err := app.Run(append([]string{"jenkins-reporter", "summary"}, args...))
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	t.Run("passing report", func(t *testing.T) {
		out, err := runSummary(writeReport(t, 0))
		require.NoError(t, err)
		assert.Contains(t, out, "Chrome")
		assert.Contains(t, out, "test-results.xml")
	})

	t.Run("failing report", func(t *testing.T) {
		_, err := runSummary(writeReport(t, 1))
		require.Error(t, err)
		var failure *jenkins.TestFailureError
		assert.ErrorAs(t, err, &failure)
	})

	t.Run("missing report", func(t *testing.T) {
		_, err := runSummary(filepath.Join(t.TempDir(), "missing.xml"))
		require.Error(t, err)
		var runtimeErr *jenkins.RuntimeError
		assert.ErrorAs(t, err, &runtimeErr)
	})

	t.Run("no arguments", func(t *testing.T) {
		_, err := runSummary()
		require.Error(t, err)
		var runtimeErr *jenkins.RuntimeError
		assert.ErrorAs(t, err, &runtimeErr)
	})
}
