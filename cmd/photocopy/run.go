package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adsamcik/photocopy/internal/fsys"
	"github.com/adsamcik/photocopy/internal/geocode"
	"github.com/adsamcik/photocopy/internal/metadata"
	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/pathtemplate"
	"github.com/adsamcik/photocopy/internal/pipeline"
	"github.com/adsamcik/photocopy/internal/ports"
	"github.com/adsamcik/photocopy/internal/report"
	"github.com/adsamcik/photocopy/internal/util"
	"github.com/adsamcik/photocopy/internal/validate"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sort photos and videos from source into destination",
	Long: `Scan the source directory, read each file's date and location, and copy
(or move) every file into destination according to --template.

Use --dry-run to preview the plan without touching any file.`,
	RunE: runRun,
}

// planCmd is an alias for "run --dry-run": same flags, same
// pipeline, dry-run forced on.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the run without copying or moving any file (alias for run --dry-run)",
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set("dry-run", true)
		return runRun(cmd, args)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, planCmd} {
		c.Flags().StringP("source", "s", "", "source directory (required)")
		c.Flags().StringP("destination", "d", "", "destination directory (required)")
		c.Flags().StringP("template", "t", "{year}/{month}/{name}", "destination path template")
		c.Flags().String("operation", "copy", "copy or move")
		c.Flags().Bool("dry-run", false, "preview without writing any file")
		c.Flags().String("duplicate-policy", "keep-both", "skip-identical, overwrite, keep-both, or fail")
		c.Flags().String("unknown-location-fallback", "", "value to use for location variables when geocoding yields nothing")
		c.Flags().Bool("country-as-code", false, "render {country} as its ISO country code")
		c.Flags().String("related-files", "ignore", "ignore or follow (group sidecar files with their primary file)")
		c.Flags().String("min-date", "", "exclude files dated before this date (YYYY-MM-DD)")
		c.Flags().String("max-date", "", "exclude files dated after this date (YYYY-MM-DD)")
		c.Flags().Int("concurrency", 4, "number of concurrent workers per pass")
		c.Flags().Bool("geocode", false, "reverse geocode GPS coordinates for location variables")
		c.Flags().String("geocode-cache-db", "photocopy-geocode-cache.db", "SQLite database backing the reverse-geocode cache")
		c.Flags().String("report-dir", "artifacts", "directory for the event log and markdown summary")
		c.Flags().String("nas-mode", "auto", "auto, true, or false: tune concurrency/buffer/retries for network-mounted source or destination")

		viper.BindPFlag("source", c.Flags().Lookup("source"))
		viper.BindPFlag("destination", c.Flags().Lookup("destination"))
		viper.BindPFlag("template", c.Flags().Lookup("template"))

		rootCmd.AddCommand(c)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}

	verbose := viper.GetBool("verbose")
	quiet := viper.GetBool("quiet")
	util.SetVerbose(verbose)
	util.SetQuiet(quiet)

	tree, err := pathtemplate.Parse(opts.Template)
	if err != nil {
		return fmt.Errorf("invalid --template: %w", err)
	}

	logLevel := report.LevelInfo
	if quiet {
		logLevel = report.LevelWarning
	} else if verbose {
		logLevel = report.LevelDebug
	}
	reportDir, _ := cmd.Flags().GetString("report-dir")
	logger, err := report.New(reportDir, logLevel)
	if err != nil {
		util.WarnLog("failed to create event logger: %v", err)
		logger = report.Null()
	}
	defer logger.Close()
	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	nasConfig, err := autoTuneFromFlags(cmd, opts)
	if err != nil {
		util.WarnLog("NAS auto-tuning failed: %v", err)
	} else if nasConfig.IsNASMode {
		util.InfoLog("%s", util.FormatNASSettings(nasConfig))
		opts.Concurrency = nasConfig.Concurrency
	}

	fs := fsys.NewTuned(nasConfig)
	metadataProvider := metadata.New()
	geocoder := buildGeocoder(cmd)

	p := pipeline.New(fs, metadataProvider, geocoder, logger, opts, tree)

	start := time.Now()
	summary, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	summary.Duration = time.Since(start)

	util.SuccessLog("%s", summary.String())
	reportPath := reportDir + "/summary.md"
	if err := report.WriteMarkdownReport(summary, reportPath); err != nil {
		util.WarnLog("failed to write markdown summary: %v", err)
	} else {
		util.InfoLog("Summary report: %s", reportPath)
	}

	if summary.ExitCode() != 0 {
		return fmt.Errorf("run completed with %d error(s)", summary.Errored)
	}
	return nil
}

func autoTuneFromFlags(cmd *cobra.Command, opts model.Options) (*util.NASConfig, error) {
	modeStr, _ := cmd.Flags().GetString("nas-mode")
	var nasMode *bool
	switch modeStr {
	case "true":
		v := true
		nasMode = &v
	case "false":
		v := false
		nasMode = &v
	}
	return util.AutoTuneForPath(opts.Source, opts.Destination, nasMode, opts.Concurrency)
}

// buildGeocoder returns nil (a true nil interface, not a typed nil
// pointer) when geocoding is disabled, so pipeline.Pipeline's
// geocoder != nil check behaves correctly.
func buildGeocoder(cmd *cobra.Command) ports.GeocodingService {
	enabled, _ := cmd.Flags().GetBool("geocode")
	if !enabled {
		return nil
	}
	dbPath, _ := cmd.Flags().GetString("geocode-cache-db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		util.WarnLog("geocode: failed to open cache database %s: %v", dbPath, err)
		return nil
	}
	cache := geocode.NewCache(db, geocode.NewClient())
	if err := cache.EnsureSchema(); err != nil {
		util.WarnLog("geocode: failed to initialize cache schema: %v", err)
		return nil
	}
	return cache
}

func optionsFromFlags(cmd *cobra.Command) (model.Options, error) {
	source, _ := cmd.Flags().GetString("source")
	destination, _ := cmd.Flags().GetString("destination")
	template, _ := cmd.Flags().GetString("template")
	operation, _ := cmd.Flags().GetString("operation")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	policy, _ := cmd.Flags().GetString("duplicate-policy")
	unknownFallback, _ := cmd.Flags().GetString("unknown-location-fallback")
	countryAsCode, _ := cmd.Flags().GetBool("country-as-code")
	relatedMode, _ := cmd.Flags().GetString("related-files")
	minDateStr, _ := cmd.Flags().GetString("min-date")
	maxDateStr, _ := cmd.Flags().GetString("max-date")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	if source == "" {
		return model.Options{}, &util.ConfigurationError{Field: "source", Reason: "required"}
	}
	if destination == "" {
		return model.Options{}, &util.ConfigurationError{Field: "destination", Reason: "required"}
	}

	opts := model.Options{
		Source:                  source,
		Destination:             destination,
		Template:                template,
		Operation:               model.Operation(operation),
		DryRun:                  dryRun,
		DuplicatePolicy:         model.DuplicatePolicy(policy),
		UnknownLocationFallback: unknownFallback,
		CountryAsCode:           countryAsCode,
		RelatedFileMode:         model.RelatedFileMode(relatedMode),
		Concurrency:             concurrency,
	}

	if minDateStr != "" {
		t, err := time.Parse("2006-01-02", minDateStr)
		if err != nil {
			return model.Options{}, &util.ConfigurationError{Field: "min-date", Reason: err.Error()}
		}
		opts.MinDate = validate.ClampDate(t)
	}
	if maxDateStr != "" {
		t, err := time.Parse("2006-01-02", maxDateStr)
		if err != nil {
			return model.Options{}, &util.ConfigurationError{Field: "max-date", Reason: err.Error()}
		}
		opts.MaxDate = validate.ClampDate(t)
	}

	return opts, nil
}
