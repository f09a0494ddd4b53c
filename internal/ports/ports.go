// Package ports declares the three external collaborators the core
// pipeline consumes without knowing their concrete implementation (spec
// §6.1): FileSystem, MetadataProvider, and GeocodingService. Keeping these
// as a small interface-only package (no concrete implementation, no
// third-party imports) lets internal/pipeline, internal/collision, and
// internal/dispatch depend only on behavior, while internal/fsys,
// internal/metadata, and internal/geocode provide the default
// implementations.
package ports

import (
	"context"
	"io"

	"github.com/adsamcik/photocopy/internal/model"
)

// FileSystem is the byte-level filesystem port.
type FileSystem interface {
	// Enumerate walks root and returns every regular file's absolute path.
	Enumerate(ctx context.Context, root string) ([]string, error)
	OpenRead(path string) (io.ReadCloser, error)
	Copy(ctx context.Context, src, dst string) (bytesWritten int64, err error)
	Move(ctx context.Context, src, dst string) (bytesWritten int64, err error)
	Exists(path string) bool
	CreateDirectory(path string) error
	Stat(path string) (size int64, err error)
}

// MetadataProvider reads a file's best-known date and optional GPS
// coordinates. Reverse geocoding is a separate port; a
// MetadataProvider never calls GeocodingService itself.
type MetadataProvider interface {
	Read(path string) (model.FileDateTime, *GPSCoordinates, error)
}

// GPSCoordinates is the coordinate pair a MetadataProvider may extract from
// EXIF, passed by the caller to GeocodingService.Reverse.
type GPSCoordinates struct {
	Latitude  float64
	Longitude float64
}

// GeocodingService maps coordinates to place names.
type GeocodingService interface {
	Reverse(ctx context.Context, lat, lon float64) (*model.LocationData, error)
}
