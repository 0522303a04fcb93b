// Command relview shows a paper relationship graph in the terminal. Nodes
// can be dragged with the mouse, hovering shows details in the sidebar and
// clicking opens the paper's page in the browser.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/ha1tch/relgraph/pkg/config"
	"github.com/ha1tch/relgraph/pkg/layoutfile"
	"github.com/ha1tch/relgraph/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, layoutPath, logLevel string
	cmd := &cobra.Command{
		Use:   "relview [doc|url]",
		Short: "Interactive terminal view of a paper relationship graph",
		Long: `relview lays out a relationship graph and keeps it live: a document file
is watched for changes and a backend URL is polled. Without an argument the
backend from the config file is used.`,
		Example: `  relview papers.json
  relview papers.yaml --layout papers.layout.toml
  relview http://localhost:8000`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			location := cfg.Source.BaseURL
			if len(args) == 1 {
				location = args[0]
			}

			var layout *layoutfile.Layout
			if layoutPath != "" {
				if layout, err = layoutfile.Read(layoutPath); err != nil {
					return err
				}
			}

			// The terminal belongs to the view, so logs always go to a file.
			logFile := cfg.Log.File
			if logFile == "" {
				logFile = filepath.Join(config.Dir(), "relview.log")
			}
			if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, logFile)
			if err != nil {
				return err
			}
			defer log.Sync()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initializing screen: %w", err)
			}
			defer screen.Fini()
			screen.EnableMouse()
			screen.Clear()

			v := newViewer(screen, cfg, log)
			v.cfgPath = configPath
			if layout != nil {
				v.useLayout(layoutPath, layout)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			v.run(ctx, location)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.Path(), "Config file")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "Restore positions from a layout snapshot")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	return cmd
}
