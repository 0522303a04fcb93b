// Command relgraph lays out, renders and serves paper relationship graphs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/relgraph/pkg/config"
	"github.com/ha1tch/relgraph/pkg/graphdoc"
	"github.com/ha1tch/relgraph/pkg/logging"
	"github.com/ha1tch/relgraph/pkg/source"
)

var version = "0.3.0"

// app carries state shared by subcommands.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "relgraph",
		Short: "relgraph - paper relationship graph toolkit",
		Long: Brand.Sprint("relgraph") + " - lay out, render and serve paper relationship graphs\n" +
			Subtle.Sprint("Documents are JSON or YAML files, or an analysis backend URL"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetVersionTemplate("relgraph {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", config.Path(), "Config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		renderCmd(a),
		layoutCmd(a),
		dotCmd(a),
		infoCmd(a),
		validateCmd(a),
		serveCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// loadDoc reads a document from a file or fetches it once from a backend.
func (a *app) loadDoc(ctx context.Context, location string) (*graphdoc.Document, error) {
	if !source.IsURL(location) {
		doc, err := graphdoc.ParseFile(location)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", location, err)
		}
		return doc, nil
	}

	var doc *graphdoc.Document
	src := source.NewHTTP(location, source.Options{Logger: a.log})
	if _, err := src.Poll(ctx, func(d *graphdoc.Document) { doc = d }); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("fetch %s: backend has no relationship graph yet", location)
	}
	return doc, nil
}
