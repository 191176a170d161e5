package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/BikS2013/ppt2desc/internal/domain"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

// Success displays a success message.
func Success(format string, args ...interface{}) {
	successColor.Fprintf(os.Stdout, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error displays an error message to stderr.
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	warnColor.Fprintf(os.Stdout, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Section displays a section header.
func Section(title string) {
	headerColor.Fprintf(os.Stdout, "\n%s\n", title)
	fmt.Fprintf(os.Stdout, "%s\n\n", strings.Repeat("=", len(title)))
}

// Table displays data in a formatted table.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))

	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)

	minutes := d / time.Minute
	seconds := (d - minutes*time.Minute) / time.Second
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// SummaryRows builds one table row per deck.
func SummaryRows(report *domain.BatchReport) [][]string {
	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		status, slides, failed := "ok", "-", "-"
		if e.Result != nil {
			slides = strconv.Itoa(len(e.Result.Slides))
			failed = strconv.Itoa(e.Result.Failed())
			if e.Result.Failed() > 0 {
				status = "partial"
			}
		}
		if e.Error != nil {
			status = string(e.Error.Type)
		}
		rows = append(rows, []string{filepath.Base(e.File), status, slides, failed, FormatDuration(e.Duration)})
	}
	return rows
}

// Summary prints the per-deck table and the batch totals.
func Summary(report *domain.BatchReport, outputDir string, elapsed time.Duration) {
	Section("Summary")
	if len(report.Entries) == 0 {
		Warning("No decks found")
		return
	}

	Table([]string{"DECK", "STATUS", "SLIDES", "FAILED", "TIME"}, SummaryRows(report))
	fmt.Fprintln(os.Stdout)

	for _, e := range report.Entries {
		if e.Error != nil {
			Error("%s: %s", filepath.Base(e.File), e.Error.Message)
		}
	}

	switch {
	case report.Failed == 0:
		Success("%d deck(s) described in %s", report.Succeeded, FormatDuration(elapsed))
	case report.Succeeded == 0:
		Error("All %d deck(s) failed", report.Failed)
	default:
		Warning("%d deck(s) described, %d failed", report.Succeeded, report.Failed)
	}
	Info("Results written to %s", outputDir)
}
