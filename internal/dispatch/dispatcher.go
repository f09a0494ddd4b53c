// Package dispatch implements the Operation Dispatcher: given a Plan,
// either logs the intended action (dry-run) or invokes FileSystem.Copy /
// FileSystem.Move, treating dry-run and real execution as the same
// decision tree with the mutating call swapped for a log line.
package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/ports"
	"github.com/adsamcik/photocopy/internal/report"
)

// Dispatcher invokes the filesystem operation a Plan names, or simulates
// it under dry-run.
type Dispatcher struct {
	fs     ports.FileSystem
	dryRun bool
	logger *report.EventLogger
}

// New builds a Dispatcher.
func New(fs ports.FileSystem, dryRun bool, logger *report.EventLogger) *Dispatcher {
	return &Dispatcher{fs: fs, dryRun: dryRun, logger: logger}
}

// Result is the outcome of dispatching one Plan.
type Result struct {
	Plan         *model.Plan
	BytesWritten int64
	Err          error
}

// Dispatch executes (or simulates) plan.Operation. For a skip-identical
// disposition dispatch is a no-op success: the file is already present.
func (d *Dispatcher) Dispatch(ctx context.Context, plan *model.Plan) Result {
	start := time.Now()

	if plan.Disposition == model.DispositionSkipIdentical {
		d.logger.LogDispatch(plan, 0, time.Since(start), nil)
		return Result{Plan: plan}
	}

	// Dry-run still reads the source file's attributes so permission
	// errors surface now rather than only at real execution time (spec
	// §4.H).
	if _, err := d.fs.Stat(plan.Source.AbsPath); err != nil {
		res := Result{Plan: plan, Err: fmt.Errorf("dispatch: stat source: %w", err)}
		d.logger.LogDispatch(plan, 0, time.Since(start), res.Err)
		return res
	}

	if d.dryRun {
		d.logger.LogDispatch(plan, 0, time.Since(start), nil)
		return Result{Plan: plan}
	}

	var (
		written int64
		err     error
	)
	switch plan.Operation {
	case model.OperationMove:
		written, err = d.fs.Move(ctx, plan.Source.AbsPath, plan.DestPath)
	default:
		written, err = d.fs.Copy(ctx, plan.Source.AbsPath, plan.DestPath)
	}

	d.logger.LogDispatch(plan, written, time.Since(start), err)
	if err == nil {
		d.dispatchRelated(ctx, plan)
	}
	return Result{Plan: plan, BytesWritten: written, Err: err}
}

// dispatchRelated copies or moves every sidecar file riding along with
// plan's primary to the same destination directory, renamed to track the
// primary's template-rendered stem. A sidecar failure is logged but never
// fails the primary's Plan.
func (d *Dispatcher) dispatchRelated(ctx context.Context, plan *model.Plan) {
	for _, src := range plan.Source.RelatedFiles {
		dst := relatedDestPath(plan.DestPath, plan.Source.AbsPath, src)

		if d.dryRun {
			d.logger.LogRelated(src, dst, nil)
			continue
		}

		var err error
		switch plan.Operation {
		case model.OperationMove:
			_, err = d.fs.Move(ctx, src, dst)
		default:
			_, err = d.fs.Copy(ctx, src, dst)
		}
		d.logger.LogRelated(src, dst, err)
	}
}

// relatedDestPath derives a sidecar's destination path from the primary's
// rendered destination, preserving whatever distinguishes the sidecar's
// source basename from the primary's source basename (its own extension
// for a stem match like ".xmp"/".aae", or ".ext.json" for a Google
// Takeout-style match) against the primary's new, template-rendered stem.
func relatedDestPath(primaryDestPath, primarySrcPath, sidecarSrcPath string) string {
	primarySrcBase := filepath.Base(primarySrcPath)
	primarySrcStem := strings.TrimSuffix(primarySrcBase, filepath.Ext(primarySrcBase))
	sidecarSrcBase := filepath.Base(sidecarSrcPath)
	suffix := strings.TrimPrefix(sidecarSrcBase, primarySrcStem)

	destBase := filepath.Base(primaryDestPath)
	destStem := strings.TrimSuffix(destBase, filepath.Ext(destBase))
	return filepath.Join(filepath.Dir(primaryDestPath), destStem+suffix)
}
