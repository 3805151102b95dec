package reporting

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/jenkins-reporter/junit"
)

// SummaryTable renders a console overview of a report, one row per browser.
type SummaryTable struct {
	title string
	out   io.Writer
}

// NewSummaryTable creates a summary table printer writing to out.
func NewSummaryTable(title string, out io.Writer) *SummaryTable {
	return &SummaryTable{
		title: title,
		out:   out,
	}
}

// Format renders the table for doc and returns it as a string.
func (s *SummaryTable) Format(doc *junit.TestSuites) string {
	t := table.NewWriter()
	t.SetTitle(s.title)

	t.AppendHeader(table.Row{
		"Browser", "Tests", "Failures", "Errors", "Skipped", "Time", "Status",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Browser", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Failures", Align: text.AlignRight},
		{Name: "Errors", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Time", Align: text.AlignRight},
	})

	var tests, failures, errs, skipped int
	var elapsed junit.Seconds
	failing := false
	for _, suite := range doc.Suites {
		if !suite.Completed() {
			// browser never reported a final result
			t.AppendRow(table.Row{suite.Name, "-", "-", "-", suite.SkippedCount(), "-", "✗ incomplete"})
			failing = true
			continue
		}
		status := "✓ pass"
		if suite.Failing() {
			status = "✗ fail"
			failing = true
		}
		t.AppendRow(table.Row{
			suite.Name,
			*suite.Tests,
			intOrZero(suite.Failures),
			intOrZero(suite.Errors),
			suite.SkippedCount(),
			formatSeconds(secondsOrZero(suite.Time)),
			status,
		})
		tests += *suite.Tests
		failures += intOrZero(suite.Failures)
		errs += intOrZero(suite.Errors)
		skipped += suite.SkippedCount()
		elapsed += secondsOrZero(suite.Time)
	}

	if failing {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{"TOTAL", tests, failures, errs, skipped, formatSeconds(elapsed), ""})
	return t.Render() + "\n"
}

// Print writes the rendered table to the configured output.
func (s *SummaryTable) Print(doc *junit.TestSuites) error {
	_, err := fmt.Fprint(s.out, s.Format(doc))
	return err
}

func formatSeconds(s junit.Seconds) string {
	return fmt.Sprintf("%.1fs", float64(s))
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func secondsOrZero(v *junit.Seconds) junit.Seconds {
	if v == nil {
		return 0
	}
	return *v
}
