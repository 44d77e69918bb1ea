package crossqueryctl

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/crossquery/crossquery/internal/engine"
	"github.com/crossquery/crossquery/internal/table"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

func printHeading(w io.Writer, format string, args ...any) {
	_, _ = headingColor.Fprintf(w, format+"\n", args...)
}

func printSuccess(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(w, format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...any) {
	_, _ = warningColor.Fprintf(w, format+"\n", args...)
}

func printError(w io.Writer, format string, args ...any) {
	_, _ = errorColor.Fprintf(w, format+"\n", args...)
}

// printTable renders the result with fixed-width columns sized to the
// widest cell.
func printTable(w io.Writer, t table.Table) {
	if len(t.Columns) == 0 {
		return
	}

	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = len(col.Name)
	}
	cells := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rendered := make([]string, len(row))
		for i, value := range row {
			rendered[i] = renderCell(value)
			if len(rendered[i]) > widths[i] {
				widths[i] = len(rendered[i])
			}
		}
		cells = append(cells, rendered)
	}

	header := make([]string, len(t.Columns))
	rule := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = pad(col.Name, widths[i])
		rule[i] = strings.Repeat("-", widths[i])
	}
	_, _ = headingColor.Fprintln(w, strings.Join(header, "  "))
	_, _ = fmt.Fprintln(w, strings.Join(rule, "  "))

	for _, row := range cells {
		padded := make([]string, len(row))
		for i, cell := range row {
			padded[i] = pad(cell, widths[i])
		}
		_, _ = fmt.Fprintln(w, strings.Join(padded, "  "))
	}
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(t.Rows))
}

func printReport(w io.Writer, report engine.Report) {
	printHeading(w, "\nexecution report")
	ids := make([]string, 0, len(report.SQL))
	for id := range report.SQL {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		_, _ = fmt.Fprintf(w, "  %s (%d rows fetched):\n    %s\n",
			id, report.SourceRows[id], strings.ReplaceAll(report.SQL[id], "\n", "\n    "))
	}
	for _, coercion := range report.Coercions {
		printWarning(w, "  join keys %s (%s) and %s (%s) compared as text",
			coercion.LeftField, coercion.LeftKind, coercion.RightField, coercion.RightKind)
	}
	_, _ = fmt.Fprintf(w, "  total rows: %d, elapsed: %s\n", report.TotalRows, report.Duration)
}

func renderCell(value any) string {
	if value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", value)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
