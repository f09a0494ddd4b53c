// Package collision implements the Collision Resolver: given a
// proposed destination path and a source FileRecord, decide whether the
// Plan is new, skip-identical, overwrite, renamed:N, or an error, and own
// the invariant that no two Plans in one apply pass name the same
// destination path.
//
// Case-(in)sensitive path grouping with a deterministic tie-break, and a
// content-hash equality test to distinguish a genuine duplicate from a
// same-named but different file.
package collision

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adsamcik/photocopy/internal/checksum"
	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/ports"
	"github.com/adsamcik/photocopy/internal/util"
)

// Resolver serializes destination-path reservation across the apply pass
//. Safe for
// concurrent use by a parallel apply pass.
//
// A reservation carries the checksum of the file that made it, not just a
// boolean: the destination file itself may not exist on disk yet (the
// reserving goroutine's Dispatch call hasn't completed), so a later
// colliding Resolve call for the same destination cannot rely on fs.Exists
// to find it. Comparing against the in-memory reservation's checksum
// instead keeps skip-identical correct regardless of write ordering.
type Resolver struct {
	fs            ports.FileSystem
	policy        model.DuplicatePolicy
	caseSensitive bool

	mu       sync.Mutex
	reserved map[string]string // normalized path -> checksum of the reserving file
}

// New builds a Resolver. caseSensitive should reflect the destination
// filesystem (see internal/util.DetectFilesystemCaseSensitivity).
func New(fs ports.FileSystem, policy model.DuplicatePolicy, caseSensitive bool) *Resolver {
	return &Resolver{
		fs:            fs,
		policy:        policy,
		caseSensitive: caseSensitive,
		reserved:      make(map[string]string),
	}
}

// RenderFunc re-renders a template against a duplicate counter, used only
// when the template threads {number} rather than suffixing the filename.
// destPath is relative to the destination root; the resolver joins it
// itself.
type RenderFunc func(number int) (destPath string, err error)

// Resolve decides the disposition for one file whose template rendered to
// proposed (already joined with the destination root). If the template
// references {number}, render must be supplied so the resolver can
// re-render with successive counters; otherwise render may be nil and the
// resolver appends "_N" to the filename stem itself.
func (r *Resolver) Resolve(rec *model.FileRecord, proposed string, render RenderFunc) (*model.Plan, error) {
	srcSum, err := checksum.Ensure(rec.AbsPath, rec.Checksum, rec.SetChecksum)
	if err != nil {
		return nil, fmt.Errorf("collision: checksum source %s: %w", rec.AbsPath, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if reservedSum, ok := r.reservedSum(proposed); ok {
		if reservedSum == srcSum {
			return &model.Plan{Source: rec, DestPath: proposed, Disposition: model.DispositionSkipIdentical}, nil
		}
		return r.disposeCollision(rec, proposed, srcSum, render)
	}

	if r.fs.Exists(proposed) {
		destSum, err := checksum.Compute(proposed)
		if err == nil && destSum == srcSum {
			r.reserve(proposed, srcSum)
			return &model.Plan{Source: rec, DestPath: proposed, Disposition: model.DispositionSkipIdentical}, nil
		}
		return r.disposeCollision(rec, proposed, srcSum, render)
	}

	r.reserve(proposed, srcSum)
	return &model.Plan{Source: rec, DestPath: proposed, Disposition: model.DispositionNew}, nil
}

// disposeCollision must be called with r.mu held, after both the
// reservation and on-disk checks came back non-identical.
func (r *Resolver) disposeCollision(rec *model.FileRecord, proposed, srcSum string, render RenderFunc) (*model.Plan, error) {
	switch r.policy {
	case model.PolicyOverwrite:
		r.reserve(proposed, srcSum)
		return &model.Plan{Source: rec, DestPath: proposed, Disposition: model.DispositionOverwrite}, nil

	case model.PolicyFail:
		return nil, &util.CollisionError{SrcPath: rec.AbsPath, DestPath: proposed}

	case model.PolicySkipIdentical:
		// skip-identical only ever silently skips equal-checksum content
		// (handled above); a genuine content mismatch under this policy
		// has no destructive or renaming instruction to fall back to, so
		// it is reported the same way a "fail" policy would, forcing the
		// caller to choose overwrite or keep-both explicitly.
		return nil, &util.CollisionError{SrcPath: rec.AbsPath, DestPath: proposed}

	case model.PolicyKeepBoth:
		return r.resolveKeepBoth(rec, proposed, srcSum, render)

	default:
		return nil, fmt.Errorf("collision: unknown duplicate policy %q", r.policy)
	}
}

// resolveKeepBoth finds the smallest N >= 1 such that the numbered
// destination is free on disk and not already reserved by another Plan in
// this apply pass.
func (r *Resolver) resolveKeepBoth(rec *model.FileRecord, proposed, srcSum string, render RenderFunc) (*model.Plan, error) {
	for n := 1; ; n++ {
		var candidate string
		if render != nil {
			var err error
			candidate, err = render(n)
			if err != nil {
				return nil, fmt.Errorf("collision: re-render with number=%d: %w", n, err)
			}
		} else {
			candidate = suffixStem(proposed, n)
		}
		if r.reservedOrExists(candidate) {
			continue
		}
		r.reserve(candidate, srcSum)
		return &model.Plan{Source: rec, DestPath: candidate, Disposition: model.DispositionRenamed, Number: n}, nil
	}
}

func suffixStem(p string, n int) string {
	dir, file := filepath.Split(p)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
}

func (r *Resolver) normalize(path string) string {
	return util.NormalizePath(path, r.caseSensitive)
}

// reservedSum must be called with r.mu held.
func (r *Resolver) reservedSum(path string) (string, bool) {
	sum, ok := r.reserved[r.normalize(path)]
	return sum, ok
}

// reservedOrExists must be called with r.mu held.
func (r *Resolver) reservedOrExists(path string) bool {
	if _, ok := r.reservedSum(path); ok {
		return true
	}
	return r.fs.Exists(path)
}

// reserve must be called with r.mu held.
func (r *Resolver) reserve(path, sum string) {
	r.reserved[r.normalize(path)] = sum
}
