package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/util"
)

func TestReadFallsBackToMtimeWithoutExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := New()
	dt, coords, err := p.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if dt.Provenance != model.ProvenanceFilesystemMtime {
		t.Errorf("Provenance = %q, want filesystem-mtime", dt.Provenance)
	}
	if coords != nil {
		t.Errorf("expected no GPS coordinates for a non-image file, got %+v", coords)
	}
}

func TestReadMissingFileReturnsAccessError(t *testing.T) {
	p := New()
	_, _, err := p.Read(filepath.Join(t.TempDir(), "nope.jpg"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var accessErr *util.AccessError
	if !errors.As(err, &accessErr) {
		t.Errorf("error = %v, want a *util.AccessError", err)
	}
}

func TestParseFilenameDateRecognizesISOPrefix(t *testing.T) {
	got, ok := parseFilenameDate("/photos/2023-05-17_beach.jpg")
	if !ok {
		t.Fatal("expected a filename-derived date to be found")
	}
	want := time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseFilenameDate = %v, want %v", got, want)
	}
}

func TestParseFilenameDateNoMatch(t *testing.T) {
	if _, ok := parseFilenameDate("/photos/vacation.jpg"); ok {
		t.Error("expected no filename-derived date for a name with no date pattern")
	}
}

func TestPlausibleRejectsOutOfRangeDates(t *testing.T) {
	if plausible(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("a 1970 date predates the camera era and should not be plausible")
	}
	if plausible(time.Now().AddDate(5, 0, 0)) {
		t.Error("a date five years in the future should not be plausible")
	}
	if !plausible(time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Error("an ordinary recent date should be plausible")
	}
}

func TestFallbackPrefersFilenameDateWhenEarlierThanMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2020-01-02_party.jpg")
	os.WriteFile(path, []byte("data"), 0644)

	dt, err := fallbackDateTime(path)
	if err != nil {
		t.Fatalf("fallbackDateTime: %v", err)
	}
	if dt.Provenance != model.ProvenanceFilenameDerived {
		t.Errorf("Provenance = %q, want filename-derived (mtime is 'now', filename date is in the past)", dt.Provenance)
	}
}
