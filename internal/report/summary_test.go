package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/adsamcik/photocopy/internal/model"
)

func TestSummaryRecord(t *testing.T) {
	opts := model.Options{Source: "/src", Destination: "/dst", Template: "{year}/{name}"}
	s := NewSummary(opts, "")

	rec := &model.FileRecord{AbsPath: "/src/a.jpg"}
	s.Record(&model.Plan{Source: rec, Disposition: model.DispositionNew}, 100, nil)
	s.Record(&model.Plan{Source: rec, Disposition: model.DispositionSkipIdentical}, 0, nil)
	s.Record(&model.Plan{Source: rec, Disposition: model.DispositionRenamed, Number: 1}, 50, nil)
	s.Record(&model.Plan{Source: rec}, 0, errors.New("permission denied"))

	if s.Planned != 4 {
		t.Errorf("Planned = %d, want 4", s.Planned)
	}
	if s.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", s.Succeeded)
	}
	if s.SkippedIdentical != 1 {
		t.Errorf("SkippedIdentical = %d, want 1", s.SkippedIdentical)
	}
	if s.Renamed != 1 {
		t.Errorf("Renamed = %d, want 1", s.Renamed)
	}
	if s.Errored != 1 {
		t.Errorf("Errored = %d, want 1", s.Errored)
	}
	if s.BytesWritten != 150 {
		t.Errorf("BytesWritten = %d, want 150", s.BytesWritten)
	}
	if len(s.Errors) != 1 || s.Errors[0].Reason != "permission denied" {
		t.Errorf("Errors = %+v, want one permission denied entry", s.Errors)
	}
}

func TestSummaryExitCode(t *testing.T) {
	tests := []struct {
		name    string
		errored int
		want    int
	}{
		{"all succeeded", 0, 0},
		{"partial failure", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Summary{Errored: tt.errored}
			if got := s.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "summary.md")

	s := NewSummary(model.Options{Source: "/src", Destination: "/dst", Template: "{year}/{name}"}, "")
	s.Succeeded = 2
	s.Errored = 1
	s.Errors = []ErrorLine{{SrcPath: "/src/bad.jpg", Reason: "disk full"}}

	if err := WriteMarkdownReport(s, out); err != nil {
		t.Fatalf("WriteMarkdownReport: %v", err)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("report is empty")
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path   string
		maxLen int
	}{
		{"/short.jpg", 80},
		{"/very/long/path/that/exceeds/the/maximum/length/allowed/for/display/purposes/a.jpg", 40},
	}
	for _, tt := range tests {
		got := truncatePath(tt.path, tt.maxLen)
		if len(tt.path) <= tt.maxLen && got != tt.path {
			t.Errorf("truncatePath(%q, %d) = %q, want unchanged", tt.path, tt.maxLen, got)
		}
		if len(tt.path) > tt.maxLen && len(got) >= len(tt.path) {
			t.Errorf("truncatePath(%q, %d) = %q, want shorter", tt.path, tt.maxLen, got)
		}
	}
}
