package main

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/acarl005/stripansi"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/izavyalov-dev/e2e-runner/protocol"
)

// renderResult prints a one-run summary table followed by the tail of the
// tool's error output.
func renderResult(w io.Writer, serverURL string, result protocol.RunResult, maxOutput int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("E2E Run " + result.RunID)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Value", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	t.AppendRow(table.Row{"Status", strings.ToUpper(string(result.Status))})
	t.AppendRow(table.Row{"Tests", strings.Join(result.ExecutedTests, ", ")})
	t.AppendRow(table.Row{"Report", strings.TrimRight(serverURL, "/") + result.ReportURL})
	if result.ResultJSON == nil {
		t.AppendRow(table.Row{"JSON report", "missing"})
	} else {
		t.AppendRow(table.Row{"JSON report", "available"})
	}

	switch result.Status {
	case protocol.RunStatusPassed:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case protocol.RunStatusTimeout:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	t.Render()

	output := strings.TrimSpace(stripansi.Strip(result.ErrorOutput))
	if output == "" {
		return
	}
	if maxOutput > 0 && len(output) > maxOutput {
		start := len(output) - maxOutput
		for start < len(output) && !utf8.RuneStart(output[start]) {
			start++
		}
		output = "..." + output[start:]
	}
	_, _ = io.WriteString(w, "\nError output:\n"+output+"\n")
}
