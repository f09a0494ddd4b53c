package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/adsamcik/photocopy/internal/model"
)

// Summary aggregates one run's outcome for the end-of-run printout and the
// optional Markdown report, built directly from Dispatcher results — the
// pipeline keeps no persisted state to query afterward.
type Summary struct {
	GeneratedAt time.Time
	Duration    time.Duration

	Source      string
	Destination string
	Template    string
	Operation   model.Operation
	DryRun      bool

	Planned   int
	Succeeded int
	SkippedIdentical int
	Renamed   int
	Overwritten int
	Errored   int
	BytesWritten int64

	Errors       []ErrorLine
	EventLogPath string
}

// ErrorLine is one per-file failure surfaced in the summary.
type ErrorLine struct {
	SrcPath string
	Reason  string
}

// NewSummary starts an empty Summary for the given run options.
func NewSummary(opts model.Options, eventLogPath string) *Summary {
	return &Summary{
		GeneratedAt:  time.Now(),
		Source:       opts.Source,
		Destination:  opts.Destination,
		Template:     opts.Template,
		Operation:    opts.Operation,
		DryRun:       opts.DryRun,
		EventLogPath: eventLogPath,
	}
}

// Record folds one dispatch outcome into the running totals.
func (s *Summary) Record(plan *model.Plan, bytesWritten int64, err error) {
	s.Planned++
	if err != nil {
		s.Errored++
		s.Errors = append(s.Errors, ErrorLine{SrcPath: plan.Source.AbsPath, Reason: err.Error()})
		return
	}
	s.Succeeded++
	s.BytesWritten += bytesWritten
	switch plan.Disposition {
	case model.DispositionSkipIdentical:
		s.SkippedIdentical++
	case model.DispositionRenamed:
		s.Renamed++
	case model.DispositionOverwrite:
		s.Overwritten++
	}
}

// ExitCode maps the summary to the CLI's process exit code.
func (s *Summary) ExitCode() int {
	if s.Errored > 0 {
		return 1
	}
	return 0
}

// String renders the one-line end-of-run summary printed to stderr via
// util.SuccessLog, using go-humanize for byte counts.
func (s *Summary) String() string {
	return fmt.Sprintf(
		"planned=%d succeeded=%d skipped=%d renamed=%d overwritten=%d errored=%d bytes=%s",
		s.Planned, s.Succeeded, s.SkippedIdentical, s.Renamed, s.Overwritten, s.Errored,
		humanize.Bytes(uint64(s.BytesWritten)),
	)
}

// WriteMarkdownReport writes the summary as a Markdown file.
func WriteMarkdownReport(s *Summary, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("report: create output directory: %w", err)
	}

	var md strings.Builder
	md.WriteString("# PhotoCopy Run Summary\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05")))
	md.WriteString(fmt.Sprintf("**Source:** `%s`\n\n", s.Source))
	md.WriteString(fmt.Sprintf("**Destination:** `%s`\n\n", s.Destination))
	md.WriteString(fmt.Sprintf("**Template:** `%s`\n\n", s.Template))
	if s.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", s.EventLogPath))
	}
	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Planned | %d |\n", s.Planned))
	md.WriteString(fmt.Sprintf("| Succeeded | %d |\n", s.Succeeded))
	md.WriteString(fmt.Sprintf("| Skipped (identical) | %d |\n", s.SkippedIdentical))
	md.WriteString(fmt.Sprintf("| Renamed (duplicate) | %d |\n", s.Renamed))
	md.WriteString(fmt.Sprintf("| Overwritten | %d |\n", s.Overwritten))
	md.WriteString(fmt.Sprintf("| Errored | %d |\n", s.Errored))
	md.WriteString(fmt.Sprintf("| Bytes Written | %s |\n", humanize.Bytes(uint64(s.BytesWritten))))
	md.WriteString("\n")

	if len(s.Errors) > 0 {
		md.WriteString("## Errors\n\n")
		md.WriteString("| Source | Reason |\n|--------|--------|\n")
		sorted := append([]ErrorLine{}, s.Errors...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].SrcPath < sorted[j].SrcPath })
		for _, e := range sorted {
			md.WriteString(fmt.Sprintf("| `%s` | %s |\n", truncatePath(e.SrcPath, 80), e.Reason))
		}
		md.WriteString("\n")
	}

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("report: write summary: %w", err)
	}
	return nil
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	start := maxLen/2 - 2
	end := len(path) - (maxLen/2 - 2)
	return path[:start] + "..." + path[end:]
}
