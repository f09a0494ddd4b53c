// Package pipeline drives the two-pass run: a scan pass that enumerates,
// reads metadata for, validates, and observes every source file, followed
// by an apply pass that renders each accepted file's destination against
// the frozen Statistics, resolves collisions, and dispatches the
// copy/move. Both passes run a worker pool over a buffered channel. The
// scan pass drives a progressbar.ProgressBar from an atomic counter,
// shown only when stdout is a terminal (util.IsTerminal) and LogLevel is
// not errorsOnly; the apply pass shows no bar.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/adsamcik/photocopy/internal/collision"
	"github.com/adsamcik/photocopy/internal/dispatch"
	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/pathtemplate"
	"github.com/adsamcik/photocopy/internal/ports"
	"github.com/adsamcik/photocopy/internal/report"
	"github.com/adsamcik/photocopy/internal/stats"
	"github.com/adsamcik/photocopy/internal/util"
	"github.com/adsamcik/photocopy/internal/validate"
)

// State is the pipeline's run state machine.
type State string

const (
	StateInit      State = "init"
	StateScanning  State = "scanning"
	StateScanned   State = "scanned"
	StateApplying  State = "applying"
	StateDone      State = "done"
)

// Pipeline wires the ports and core components into the two-pass run.
type Pipeline struct {
	fs       ports.FileSystem
	metadata ports.MetadataProvider
	geocoder ports.GeocodingService // nil when the template has no use for it
	logger   *report.EventLogger

	opts      model.Options
	tree      *pathtemplate.Tree
	validator *validate.Chain

	mu    sync.Mutex
	state State
}

// New builds a Pipeline. geocoder may be nil; it is only ever consulted
// when tree references a location variable.
func New(fs ports.FileSystem, metadataProvider ports.MetadataProvider, geocoder ports.GeocodingService, logger *report.EventLogger, opts model.Options, tree *pathtemplate.Tree) *Pipeline {
	return &Pipeline{
		fs:        fs,
		metadata:  metadataProvider,
		geocoder:  geocoder,
		logger:    logger,
		opts:      opts,
		tree:      tree,
		validator: validate.New(opts),
		state:     StateInit,
	}
}

// State returns the pipeline's current run state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run executes the full two-pass pipeline and returns the run summary.
func (p *Pipeline) Run(ctx context.Context) (*report.Summary, error) {
	summary := report.NewSummary(p.opts, p.logger.Path())
	start := time.Now()

	records, coll, err := p.scan(ctx)
	if err != nil {
		return summary, err
	}
	frozen := coll.Freeze()
	p.logger.LogFreeze(len(records))

	if err := p.apply(ctx, records, frozen, summary); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(start)
	p.setState(StateDone)
	return summary, nil
}

// scan is the first pass: enumerate, read metadata, validate, and observe
// every KNOWN_VARIABLE the template references.
func (p *Pipeline) scan(ctx context.Context) ([]*model.FileRecord, *stats.Collector, error) {
	p.setState(StateScanning)

	allPaths, err := p.fs.Enumerate(ctx, p.opts.Source)
	if err != nil {
		return nil, nil, &util.FilesystemFatal{Reason: "enumerate source", Err: err}
	}
	paths, sidecarsByPrimary := groupSidecars(allPaths, p.opts.RelatedFileMode)

	concurrency := p.opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	needsLocation := p.geocoder != nil && pathtemplate.ReferencesLocation(p.tree)

	var (
		mu       sync.Mutex
		records  []*model.FileRecord
		scanErrs []error
		found    atomic.Int64
		done     atomic.Int64
	)
	coll := stats.NewCollector()

	bar := p.newProgressBar(len(paths))

	pathCh := make(chan string, 256)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range pathCh {
				rec, err := p.readRecord(ctx, path, needsLocation)
				done.Add(1)
				if bar != nil {
					bar.Set64(done.Load())
				}
				if err != nil {
					p.logger.LogError(path, err)
					mu.Lock()
					scanErrs = append(scanErrs, err)
					mu.Unlock()
					continue
				}
				rec.RelatedFiles = sidecarsByPrimary[path]
				accepted := p.validator.Accepts(rec)
				p.logger.LogValidate(path, accepted, "date range")
				if !accepted {
					continue
				}
				pathtemplate.ObserveVariables(p.tree, rec, p.opts, coll)
				mu.Lock()
				records = append(records, rec)
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		found.Add(1)
		p.logger.LogScan(path, 0)
		select {
		case pathCh <- path:
		case <-ctx.Done():
			close(pathCh)
			wg.Wait()
			return records, coll, ctx.Err()
		}
	}
	close(pathCh)
	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	p.setState(StateScanned)
	if len(scanErrs) > 0 {
		util.WarnLog("scan: %d file(s) could not be read", len(scanErrs))
	}
	return records, coll, nil
}

// readRecord builds one FileRecord: stat, date/GPS metadata, and an
// optional reverse-geocode lookup.
func (p *Pipeline) readRecord(ctx context.Context, path string, needsLocation bool) (*model.FileRecord, error) {
	size, err := p.fs.Stat(path)
	if err != nil {
		return nil, &util.AccessError{Path: path, Err: err}
	}

	dt, coords, err := p.metadata.Read(path)
	if err != nil {
		return nil, &util.MetadataError{Path: path, Err: err}
	}

	rel, err := filepath.Rel(p.opts.Source, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	rec := &model.FileRecord{
		AbsPath:  path,
		RelPath:  rel,
		Name:     filepath.Base(path),
		Size:     size,
		DateTime: dt,
	}

	if needsLocation && coords != nil {
		loc, err := p.geocoder.Reverse(ctx, coords.Latitude, coords.Longitude)
		if err != nil {
			util.WarnLog("geocode: reverse lookup failed for %s: %v", path, err)
		} else {
			rec.Location = loc
		}
	}
	if rec.Location == nil && p.opts.UnknownLocationFallback != "" {
		fallback := p.opts.UnknownLocationFallback
		rec.Location = &model.LocationData{
			District: fallback, City: fallback, County: fallback,
			State: fallback, Country: fallback, CountryCode: fallback,
		}
	}
	if p.opts.CountryAsCode && rec.Location != nil && rec.Location.CountryCode != "" {
		rec.Location.Country = rec.Location.CountryCode
	}

	return rec, nil
}

// apply is the second pass: render each record's destination against the
// frozen Statistics, resolve collisions, and dispatch.
func (p *Pipeline) apply(ctx context.Context, records []*model.FileRecord, frozen *stats.Statistics, summary *report.Summary) error {
	p.setState(StateApplying)

	resolver := collision.New(p.fs, p.opts.DuplicatePolicy, true)
	dispatcher := dispatch.New(p.fs, p.opts.DryRun, p.logger)
	usesNumber := pathtemplate.ReferencesNumber(p.tree)

	concurrency := p.opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	recCh := make(chan *model.FileRecord, 256)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range recCh {
				p.applyOne(ctx, rec, frozen, resolver, dispatcher, usesNumber, summary, &mu)
			}
		}()
	}

	for _, rec := range records {
		select {
		case recCh <- rec:
		case <-ctx.Done():
			close(recCh)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(recCh)
	wg.Wait()
	return nil
}

func (p *Pipeline) applyOne(ctx context.Context, rec *model.FileRecord, frozen *stats.Statistics, resolver *collision.Resolver, dispatcher *dispatch.Dispatcher, usesNumber bool, summary *report.Summary, mu *sync.Mutex) {
	relDest := pathtemplate.Render(p.tree, rec, frozen, p.opts, 0)
	destPath := filepath.Join(p.opts.Destination, relDest)
	p.logger.LogRender(rec.AbsPath, destPath)

	var render collision.RenderFunc
	if usesNumber {
		render = func(number int) (string, error) {
			rel := pathtemplate.Render(p.tree, rec, frozen, p.opts, number)
			return filepath.Join(p.opts.Destination, rel), nil
		}
	}

	plan, err := resolver.Resolve(rec, destPath, render)
	p.logger.LogCollision(plan, err)
	if err != nil {
		mu.Lock()
		summary.Record(&model.Plan{Source: rec, DestPath: destPath, Operation: p.opts.Operation}, 0, err)
		mu.Unlock()
		return
	}
	plan.Operation = p.opts.Operation

	res := dispatcher.Dispatch(ctx, plan)
	mu.Lock()
	summary.Record(plan, res.BytesWritten, res.Err)
	mu.Unlock()
}

func (p *Pipeline) newProgressBar(total int) *progressbar.ProgressBar {
	if p.opts.LogLevel == model.LogLevelErrorsOnly || !util.IsTerminal(os.Stdout.Fd()) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// ValidateTemplateOnly parses and type-checks a template string without
// running the pipeline, backing the CLI's validate-template subcommand.
func ValidateTemplateOnly(template string) error {
	_, err := pathtemplate.Parse(template)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}
