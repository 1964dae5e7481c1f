// Package cmd implements the formtree command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/hktouw/formtree/catalogs"
	"github.com/hktouw/formtree/internal/config"
	"github.com/hktouw/formtree/internal/logging"
	"github.com/hktouw/formtree/internal/metrics"
	"github.com/hktouw/formtree/internal/service"
	"github.com/hktouw/formtree/internal/settings"
)

type logFormat int

const (
	logFormatText logFormat = iota
	logFormatJSON
)

var logFormatNames = map[logFormat][]string{
	logFormatText: {"text"},
	logFormatJSON: {"json"},
}

// app carries the state shared by all commands of one invocation.
type app struct {
	configFile string
	logLevel   logging.Level
	logFormat  logFormat

	settings *settings.Settings
	log      *logging.Logger
}

func NewRootCommand() *cobra.Command {
	a := &app{logLevel: logging.Warn}

	root := &cobra.Command{
		Use:   "formtree",
		Short: "Build region-patched form template and filter trees",
		Long: `formtree builds the template and filter trees of a form catalog, with the
patches registered for a region applied to the base definitions.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.finish()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "settings file (default: ./"+settings.FileName+")")
	flags.StringSlice("catalog", nil, "catalog directory, file, URL or git+<repo>[#ref]; later ones take priority (repeatable)")
	flags.Bool("builtin", true, "include the builtin catalog")
	flags.Bool("conflict-error", false, "fail when catalog files set different values for the same key")
	flags.Int("cache-size", 256, "number of built trees to cache (0 disables caching)")
	flags.String("metrics-file", "", "write metrics to this file on exit")
	flags.Var(enumflag.New(&a.logLevel, "level", logging.LevelNames, enumflag.EnumCaseInsensitive),
		"log-level", "log level (debug, info, warn, error)")
	flags.Var(enumflag.New(&a.logFormat, "format", logFormatNames, enumflag.EnumCaseInsensitive),
		"log-format", "log format (text, json)")

	root.AddCommand(
		newBuildCommand(a),
		newRenderAllCommand(a),
		newDiffCommand(a),
		newRegionsCommand(a),
		newValidateCommand(a),
		newSchemaCommand(a),
		newWatchCommand(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	s, err := settings.Load(a.configFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return err
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", s.LogFormat)
	}

	a.settings = s
	a.log = logging.New(logging.Config{Level: level, Format: s.LogFormat, Output: cmd.ErrOrStderr()})
	if s.File != "" {
		a.log.Debugf("using settings file %s", s.File)
	}
	return nil
}

func (a *app) finish() error {
	if a.settings == nil || a.settings.MetricsFile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(a.settings.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func (a *app) loader() *config.Loader {
	l := config.NewLoader(a.settings.Catalogs...).
		WithConflictError(a.settings.ConflictError).
		WithHeaders(a.settings.CatalogHeaders).
		WithLogger(a.log)
	if a.settings.Builtin {
		l = l.WithBuiltin(catalogs.FS)
	}
	return l
}

// newService returns a service without a catalog.
func (a *app) newService() *service.Service {
	return service.New().
		WithLogger(a.log).
		WithCacheSize(a.settings.CacheSize)
}

// service loads the catalog and returns a service serving it.
func (a *app) service(ctx context.Context) (*service.Service, error) {
	root, err := a.loader().Load(ctx)
	if err != nil {
		return nil, err
	}
	return a.newService().WithCatalog(root), nil
}
