package presentation

import (
	"fmt"
	"io"
	"strings"
	"time"

	"pixelgroomer/internal/domain"
	"pixelgroomer/internal/infra/checksum"
)

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

// PrintPlan lists every planned action. In dry-run mode nothing has been
// written and the output matches what an import would do.
func (p Printer) PrintPlan(plan domain.ImportPlan, dryRun bool) {
	if dryRun {
		fmt.Fprintln(p.Writer, "DRY-RUN: no files will be copied, written or deleted.")
		fmt.Fprintln(p.Writer)
	}
	fmt.Fprintln(p.Writer, "Plan:")
	fmt.Fprintln(p.Writer)

	for _, action := range plan.Actions {
		fmt.Fprintln(p.Writer, formatAction(action))
	}

	fmt.Fprintln(p.Writer)
	p.printPlanSummary(plan)

	if len(plan.Warnings) > 0 && (dryRun || p.Verbose) {
		fmt.Fprintln(p.Writer)
		fmt.Fprintln(p.Writer, "Warnings:")
		for _, warning := range plan.Warnings {
			fmt.Fprintln(p.Writer, "- "+warning)
		}
	}
}

func (p Printer) printPlanSummary(plan domain.ImportPlan) {
	s := plan.Summary
	rangeStart := formatDate(s.RangeStart)
	rangeEnd := formatDate(s.RangeEnd)

	if rangeStart == "" || rangeEnd == "" {
		fmt.Fprintf(p.Writer, "Planned %d RAW and %d image files in %d shots.\n", s.RawCount, s.ImageCount, s.Shots)
	} else {
		fmt.Fprintf(p.Writer, "Planned %d RAW and %d image files in %d shots from %s until %s.\n",
			s.RawCount, s.ImageCount, s.Shots, rangeStart, rangeEnd)
	}
	if s.Collisions > 0 {
		fmt.Fprintf(p.Writer, "Skipping %d files whose destination collides with another file.\n", s.Collisions)
	}
	if s.Fallbacks > 0 {
		fmt.Fprintf(p.Writer, "%d files have no capture date and use their file time.\n", s.Fallbacks)
	}
	if s.Existing > 0 {
		fmt.Fprintf(p.Writer, "%d destinations already exist and will be skipped.\n", s.Existing)
	}
	if s.Unsupported > 0 {
		fmt.Fprintf(p.Writer, "Ignored %d unsupported files.\n", s.Unsupported)
	}
}

// PrintExecution reports the outcome of an import run.
func (p Printer) PrintExecution(summary domain.RunSummary) {
	var imported []domain.ExecutionResult
	for _, r := range summary.Results {
		if r.Status == domain.StatusSucceeded {
			imported = append(imported, r)
		}
	}

	if len(imported) > 0 {
		fmt.Fprintln(p.Writer, "Imported:")
		fmt.Fprintln(p.Writer)
		lines := formatImportLines(imported)
		if p.Verbose {
			lines = importLines(imported)
		}
		for _, line := range lines {
			fmt.Fprintln(p.Writer, line)
		}
		fmt.Fprintln(p.Writer)
	}

	fmt.Fprintf(p.Writer, "Imported %d files, skipped %d, failed %d.\n", summary.Succeeded, summary.Skipped, summary.Failed)
	switch {
	case summary.Deleted > 0:
		fmt.Fprintf(p.Writer, "Deleted %d source files.\n", summary.Deleted)
	case summary.DeleteDeclined && summary.Succeeded > 0:
		fmt.Fprintln(p.Writer, "Source files were kept.")
	}

	if p.Verbose {
		for _, r := range summary.Results {
			if r.Status == domain.StatusSkipped {
				fmt.Fprintf(p.Writer, "Skipped %s: %s\n", r.Action.Source.RelativePath, r.Reason)
			}
		}
	}

	if len(summary.Failures) > 0 {
		fmt.Fprintln(p.Writer)
		fmt.Fprintln(p.Writer, "Failed:")
		for _, r := range summary.Failures {
			fmt.Fprintf(p.Writer, "- %s: %s\n", r.Action.Source.RelativePath, r.Reason)
		}
	}
}

// PrintVerify reports manifest verification. Only problems are listed
// unless verbose.
func (p Printer) PrintVerify(report checksum.Report) {
	if report.Directories == 0 {
		fmt.Fprintln(p.Writer, "No checksums to verify.")
		return
	}
	for _, c := range report.Checks {
		if c.Status == checksum.StatusOK && !p.Verbose {
			continue
		}
		if c.Err != nil {
			fmt.Fprintf(p.Writer, "%-8s %s (%v)\n", c.Status, c.Path, c.Err)
			continue
		}
		fmt.Fprintf(p.Writer, "%-8s %s\n", c.Status, c.Path)
	}
	fmt.Fprintf(p.Writer, "Verified %d files in %d directories: %d ok, %d mismatch, %d missing.\n",
		len(report.Checks), report.Directories, report.OK, report.Mismatched, report.Missing)
}

func formatAction(a domain.PlannedAction) string {
	line := fmt.Sprintf("%-19s %-4s %s -> %s", a.Kind, a.Class, a.Source.RelativePath, a.Destination)
	var flags []string
	if a.Source.IsFallback() {
		flags = append(flags, "[date from file time]")
	}
	if a.Skipped() {
		flags = append(flags, "[collision]")
	}
	if len(flags) > 0 {
		line += "  " + strings.Join(flags, " ")
	}
	return line
}

func importLines(results []domain.ExecutionResult) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		date := r.Action.Source.TakenAt.Format("2006-01-02 15:04")
		lines = append(lines, fmt.Sprintf("Copy %s  %s", r.Action.Source.Name, date))
	}
	return lines
}

func formatImportLines(results []domain.ExecutionResult) []string {
	lines := importLines(results)
	if len(lines) <= 4 {
		return lines
	}
	head := lines[:2]
	tail := lines[len(lines)-2:]
	return append(append(head, "..."), tail...)
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}
