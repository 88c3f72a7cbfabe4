package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/colorize/internal/shared"
	"github.com/desertthunder/colorize/internal/tasks"
	"github.com/desertthunder/colorize/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/colorize-tui.log"

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = defaultTUILog
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	ctrl := r.newController()
	defer ctrl.Close()

	opts := ui.Options{
		OutputDir: cmd.String("output-dir"),
		Open:      r.open,
	}

	if !cmd.Bool("no-server") {
		srv := r.newServer(r.config.Server.Addr(), ctrl)
		if err := srv.Start(); err != nil {
			return err
		}
		defer r.shutdown(srv)

		r.store.SetBase(srv.URL())
		opts.CompareURL = srv.URL() + "/compare"
		r.logger.Info("preview server listening", "url", srv.URL())
	}

	if path := cmd.StringArg("file"); path != "" {
		cand, err := shared.OpenCandidate(path)
		if err != nil {
			return err
		}
		// A rejected file shows up as the initial error state.
		if err := ctrl.Accept(cand); err != nil {
			r.logger.Warn("initial file rejected", "path", path, "error", err)
		}
	}

	model := ui.NewModel(ctx, ctrl, opts)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	unsubscribe := ctrl.Subscribe(func(tasks.State) {
		go p.Send(ui.StateChangedMsg())
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
