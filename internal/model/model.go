// Package model holds the data types shared across every PhotoCopy
// pipeline stage: the file and location records, pipeline options, and
// the per-file plan produced by the apply pass.
package model

import "time"

// DateProvenance records where a FileRecord's timestamp came from.
type DateProvenance string

const (
	ProvenanceEXIF           DateProvenance = "exif"
	ProvenanceFilesystemMtime DateProvenance = "filesystem-mtime"
	ProvenanceFilenameDerived DateProvenance = "filename-derived"
)

// FileDateTime is the best-known timestamp for a file plus where it came from.
type FileDateTime struct {
	Value      time.Time
	Provenance DateProvenance
}

// LocationData holds reverse-geocoded place names. Any field may be empty.
type LocationData struct {
	District string
	City     string
	County   string
	State    string
	Country     string
	CountryCode string
}

// Operation is the filesystem action a Plan performs.
type Operation string

const (
	OperationCopy Operation = "copy"
	OperationMove Operation = "move"
)

// DuplicatePolicy controls what the Collision Resolver does when a
// proposed destination already exists with different content.
type DuplicatePolicy string

const (
	PolicySkipIdentical DuplicatePolicy = "skip-identical"
	PolicyOverwrite     DuplicatePolicy = "overwrite"
	PolicyKeepBoth      DuplicatePolicy = "keep-both"
	PolicyFail          DuplicatePolicy = "fail"
)

// RelatedFileMode controls how sidecar files are grouped with their primary file.
type RelatedFileMode string

const (
	RelatedFilesIgnore RelatedFileMode = "ignore"
	RelatedFilesFollow RelatedFileMode = "follow"
)

// LogLevel is the user-facing verbosity option (distinct from util.LogLevel,
// which is the process-wide sink level this option is translated into).
type LogLevel string

const (
	LogLevelErrorsOnly LogLevel = "errorsOnly"
	LogLevelNormal     LogLevel = "normal"
	LogLevelVerbose    LogLevel = "verbose"
)

// Options is the full set of user-supplied pipeline parameters (§6.2).
type Options struct {
	Source      string
	Destination string
	Template    string
	Operation   Operation
	DryRun      bool

	MinDate time.Time
	MaxDate time.Time

	DuplicatePolicy         DuplicatePolicy
	UnknownLocationFallback string
	CountryAsCode           bool
	LogLevel                LogLevel
	RelatedFileMode         RelatedFileMode

	Concurrency int
}

// FileRecord represents one source file. Everything but Checksum is set at
// enumeration time and immutable thereafter; Checksum is computed at most
// once, lazily, by whichever caller first needs it (normally the Collision
// Resolver).
type FileRecord struct {
	AbsPath  string
	RelPath  string // relative to Options.Source
	Name     string
	Size     int64
	DateTime FileDateTime
	Location *LocationData

	RelatedFiles []string // sidecar absolute paths, grouped per Options.RelatedFileMode

	checksum string // memoized, uppercase hex SHA-256; empty until computed
}

// Checksum returns the memoized checksum, or "" if Compute has not run yet.
func (r *FileRecord) Checksum() string { return r.checksum }

// SetChecksum stores a computed checksum. Safe to call more than once with
// the same value; callers serialize first computation themselves (see
// internal/collision, the only caller that computes checksums).
func (r *FileRecord) SetChecksum(sum string) { r.checksum = sum }

// Plan is the per-file apply-pass result (§3, "Plan").
type Plan struct {
	Source      *FileRecord
	DestPath    string
	Operation   Operation
	Disposition Disposition
	Number      int // duplicate counter; 0 unless Disposition is DispositionRenamed
}

// Disposition is the Collision Resolver's per-file decision (§4.G).
type Disposition string

const (
	DispositionNew            Disposition = "new"
	DispositionSkipIdentical  Disposition = "skip-identical"
	DispositionOverwrite      Disposition = "overwrite"
	DispositionRenamed        Disposition = "renamed"
	DispositionError          Disposition = "error"
)
