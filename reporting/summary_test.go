package reporting

import (
	"bytes"
	"testing"

	"github.com/acarl005/stripansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/jenkins-reporter/junit"
)

func TestSummaryTable(t *testing.T) {
	doc := junit.NewTestSuites()
	chrome := doc.AddSuite(&junit.TestSuite{Name: "Chrome"})
	chrome.AddTestCase(&junit.TestCase{Name: "A works"})
	skipped := chrome.AddTestCase(&junit.TestCase{Name: "A later"})
	skipped.MarkSkipped()
	chrome.Finalize(2, 0, 0, junit.SecondsFromMillis(1500))

	firefox := doc.AddSuite(&junit.TestSuite{Name: "Firefox"})
	failed := firefox.AddTestCase(&junit.TestCase{Name: "A works"})
	failed.AddFailure("boom")
	firefox.Finalize(1, 1, 1, junit.SecondsFromMillis(500))

	doc.AddSuite(&junit.TestSuite{Name: "Safari"})

	var buf bytes.Buffer
	table := NewSummaryTable("Jenkins Report (run-1)", &buf)
	require.NoError(t, table.Print(doc))

	out := stripansi.Strip(buf.String())
	assert.Contains(t, out, "Jenkins Report (run-1)")
	assert.Contains(t, out, "Chrome")
	assert.Contains(t, out, "Firefox")
	assert.Contains(t, out, "Safari")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "2.0s")
	assert.Contains(t, out, "✗ fail")
	assert.Contains(t, out, "✗ incomplete")
}
