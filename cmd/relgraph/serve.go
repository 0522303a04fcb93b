package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
	"github.com/ha1tch/relgraph/pkg/server"
	"github.com/ha1tch/relgraph/pkg/source"
)

func serveCmd(a *app) *cobra.Command {
	var addr, location string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live graph over HTTP and websockets",
		Example: `  relgraph serve --source papers.json
  relgraph serve --addr :9000 --source http://localhost:8000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if location == "" {
				location = a.cfg.Source.BaseURL
			}

			srv := server.New(server.Config{
				Addr:           addr,
				Width:          float64(a.cfg.View.Width),
				Height:         float64(a.cfg.View.Height),
				FPS:            a.cfg.View.FPS,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				DetailURL:      a.cfg.DetailURL,
			}, a.log)

			src := source.New(location, source.Options{
				PollInterval: a.cfg.Source.PollInterval.Duration,
				Debounce:     a.cfg.Source.Debounce.Duration,
				Logger:       a.log.Named("source"),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx) })
			g.Go(func() error {
				err := src.Run(ctx, func(doc *graphdoc.Document) {
					rep, err := srv.SetGraph(ctx, doc)
					if err != nil {
						a.log.Warn("apply graph", zap.Error(err))
						return
					}
					if n := rep.Dropped(); n > 0 {
						a.log.Warn("graph entries dropped", zap.Int("dropped", n))
					}
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})

			a.log.Info("serving relationship graph", zap.String("addr", addr), zap.String("source", location))
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address")
	cmd.Flags().StringVar(&location, "source", "", "Graph document file or backend URL")
	return cmd
}
