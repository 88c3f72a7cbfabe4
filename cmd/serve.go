package main

import (
	"context"
	"time"

	"github.com/desertthunder/colorize/internal/server"
	"github.com/desertthunder/colorize/internal/tasks"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the local server until the command context is canceled.
//
// With a file argument the image is colorized first, so /compare, /preview
// and /metrics describe that upload.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := r.config.Server.Addr()
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}

	ctrl := r.newController()
	defer ctrl.Close()

	srv := r.newServer(addr, ctrl)
	if err := srv.Start(); err != nil {
		return err
	}
	defer r.shutdown(srv)
	r.store.SetBase(srv.URL())

	r.logger.Info("serving", "url", srv.URL())
	r.writePlain("Listening on %s\n", srv.URL())
	r.writePlain("  metrics: %s/metrics\n", srv.URL())

	if path := cmd.StringArg("file"); path != "" {
		if _, err := r.submitFile(ctx, ctrl, path, false); err != nil {
			return err
		}

		compareURL := srv.URL() + "/compare"
		r.writePlain("  compare: %s\n", compareURL)
		if cmd.Bool("open") {
			if err := r.open(compareURL); err != nil {
				r.logger.Warn("failed to open browser", "url", compareURL, "error", err)
			}
		}
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-srv.Errors():
		return err
	}
}

func (r *Runner) newServer(addr string, ctrl *tasks.Controller) *server.Server {
	opts := server.Options{
		Addr:    addr,
		Store:   r.store,
		Metrics: r.metrics.Handler(),
		Logger:  r.logger,
		Compare: compareSource(ctrl),
	}
	return server.New(opts)
}

func (r *Runner) shutdown(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		r.logger.Warn("server shutdown failed", "error", err)
	}
}

// compareSource exposes the controller's current before/after pair to the compare page.
func compareSource(ctrl *tasks.Controller) server.CompareSource {
	return func() (server.CompareData, bool) {
		st := ctrl.State()
		urls, ok := ctrl.DisplayURLs()
		if !ok || st.File == nil || st.Preview == nil {
			return server.CompareData{}, false
		}

		return server.CompareData{
			Name:     st.File.Name,
			Before:   ctrl.Store().URL(st.Preview.ID),
			After:    urls.Preview,
			Download: urls.Download,
		}, true
	}
}
