// Package metadata is the default MetadataProvider: reads
// a file's best-known date and optional GPS coordinates.
//
// Grounded on five independent repos in the retrieval pack that each
// choose github.com/rwcarlsen/goexif for this job (bitorbiter-photo-sorter,
// redgoat650-picture-metadata, quidome-media-organizer-go,
// vicendominguez-mediadupes, whatsoevan-backupbozo), and specifically on
// bitorbiter-photo-sorter's determinePhotoDateAndDateSource for the
// EXIF-first, filesystem-mtime-fallback shape. The additional
// filename-derived fallback is grounded on billysbar-photo-meta's
// date-from-filename heuristics.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/ports"
	"github.com/adsamcik/photocopy/internal/util"
)

// filenameDatePatterns recognizes common camera/export filename date
// prefixes, tried in order; the first match wins.
var filenameDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
	regexp.MustCompile(`(\d{4})(\d{2})(\d{2})_`),
	regexp.MustCompile(`IMG_(\d{4})(\d{2})(\d{2})`),
}

// Provider is the default MetadataProvider implementation.
type Provider struct{}

// New returns a Provider.
func New() *Provider { return &Provider{} }

// Read implements ports.MetadataProvider.
func (p *Provider) Read(path string) (model.FileDateTime, *ports.GPSCoordinates, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.FileDateTime{}, nil, &util.AccessError{Path: path, Err: err}
	}
	defer f.Close()

	var coords *ports.GPSCoordinates
	x, decodeErr := exif.Decode(f)
	if decodeErr == nil {
		dt, dtErr := exifDateTime(x)
		coords = exifCoordinates(x)
		if dtErr == nil {
			return model.FileDateTime{Value: dt, Provenance: model.ProvenanceEXIF}, coords, nil
		}
	}

	fallback, fallbackErr := fallbackDateTime(path)
	if fallbackErr != nil {
		return model.FileDateTime{}, nil, &util.MetadataError{Path: path, Err: fallbackErr}
	}
	return fallback, coords, nil
}

func exifDateTime(x *exif.Exif) (time.Time, error) {
	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, err := tag.StringVal(); err == nil {
			if t, err := time.Parse("2006:01:02 15:04:05", s); err == nil {
				return t, nil
			}
		}
	}
	if tag, err := x.Get(exif.DateTime); err == nil {
		if s, err := tag.StringVal(); err == nil {
			if t, err := time.Parse("2006:01:02 15:04:05", s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("metadata: no usable EXIF date tag")
}

func exifCoordinates(x *exif.Exif) *ports.GPSCoordinates {
	lat, lon, err := x.LatLong()
	if err != nil {
		return nil
	}
	return &ports.GPSCoordinates{Latitude: lat, Longitude: lon}
}

// fallbackDateTime falls back to the filesystem mtime, preferring a
// filename-derived date when the filename carries a plausible one earlier
// than the mtime — a sign the file went through a bulk copy that reset
// mtimes.
func fallbackDateTime(path string) (model.FileDateTime, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.FileDateTime{}, err
	}
	mtime := info.ModTime()

	if filenameDate, ok := parseFilenameDate(path); ok && plausible(filenameDate) && filenameDate.Before(mtime) {
		return model.FileDateTime{Value: filenameDate, Provenance: model.ProvenanceFilenameDerived}, nil
	}
	return model.FileDateTime{Value: mtime, Provenance: model.ProvenanceFilesystemMtime}, nil
}

func parseFilenameDate(path string) (time.Time, bool) {
	for _, re := range filenameDatePatterns {
		m := re.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		year, month, day := m[1], m[2], m[3]
		t, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", year, month, day))
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// plausible rejects dates outside a sane camera-era window — a guard
// against matching an unrelated digit run as a date.
func plausible(t time.Time) bool {
	return t.Year() >= 1990 && t.Before(time.Now().AddDate(1, 0, 0))
}
