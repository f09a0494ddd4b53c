// Command photocopy is the PhotoCopy CLI: sorts a source tree of
// photos and videos into a destination layout named by a path template.
//
// Cobra root command plus viper config/env binding, with --verbose/--quiet
// translated into internal/util's process-wide log level.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adsamcik/photocopy/internal/util"
)

var (
	// Version is set at build time via -ldflags.
	Version = "dev"

	cfgFile      string
	watchConfig  bool

	rootCmd = &cobra.Command{
		Use:     "photocopy",
		Short:   "Sort photos and videos into a destination layout named by a path template",
		Long: `photocopy scans a source directory of photos and videos, determines each
file's date (EXIF, falling back to filesystem mtime or a filename-derived
date) and optionally its shooting location (reverse geocoded from GPS),
and copies or moves each file into a destination path built from a
template such as {year}/{month}/{city?min=10}/{name}.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./photocopy.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&watchConfig, "watch-config", false, "reload configuration when the config file changes")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("photocopy")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PHOTOCOPY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}

	if watchConfig {
		viper.OnConfigChange(func(e fsnotify.Event) {
			util.InfoLog("Config file changed (%s), reloaded", e.Name)
		})
		viper.WatchConfig()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a fatal configuration or template-syntax error to exit
// code 2, and anything else (including a partial-failure run summary) to 1.
func exitCodeFor(err error) int {
	var templateErr *util.TemplateSyntaxError
	var configErr *util.ConfigurationError
	if errors.As(err, &templateErr) || errors.As(err, &configErr) {
		return 2
	}
	return 1
}
