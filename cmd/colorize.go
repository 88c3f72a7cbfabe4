package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/colorize/internal/formatter"
	"github.com/desertthunder/colorize/internal/models"
	"github.com/desertthunder/colorize/internal/shared"
	"github.com/desertthunder/colorize/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Run uploads a single image and prints where the colorized result lives.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file path is required", shared.ErrMissingArgument)
	}
	asJSON := cmd.Bool("json")

	ctrl := r.newController()
	defer ctrl.Close()

	start := time.Now()
	result, err := r.submitFile(ctx, ctrl, path, asJSON)
	if err != nil {
		return err
	}

	urls, _ := ctrl.DisplayURLs()
	entry := formatter.Entry{
		Input:       path,
		Status:      result.Status,
		Filename:    result.Filename,
		PreviewURL:  urls.Preview,
		DownloadURL: urls.Download,
		ElapsedMS:   time.Since(start).Milliseconds(),
	}
	if entry.Status == "" {
		entry.Status = "success"
	}

	if cmd.Bool("download") {
		dest, n, err := tasks.SaveResult(ctx, ctrl, cmd.String("output-dir"))
		if err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
		r.logger.Info("result saved", "path", dest, "bytes", n)
		entry.SavedTo = dest
	}

	if cmd.Bool("open") {
		if err := r.open(urls.Preview); err != nil {
			r.logger.Warn("failed to open browser", "url", urls.Preview, "error", err)
		}
	}

	if asJSON {
		return r.writeJSON(entry, true)
	}

	r.writePlain("preview:  %s\n", entry.PreviewURL)
	r.writePlain("download: %s\n", entry.DownloadURL)
	if entry.SavedTo != "" {
		r.writePlain("saved:    %s\n", entry.SavedTo)
	}
	return nil
}

// submitFile accepts path into ctrl and uploads it, printing progress unless quiet.
func (r *Runner) submitFile(ctx context.Context, ctrl *tasks.Controller, path string, quiet bool) (*models.ColorizeResult, error) {
	cand, err := shared.OpenCandidate(path)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Accept(cand); err != nil {
		return nil, err
	}

	r.logger.Info("uploading", "file", cand.Name, "size", cand.Size, "api", r.config.API.BaseURL)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.Upload:
				r.writePlain("\r⏫ %s", update.Message)
			case tasks.Complete:
				r.writePlain("\r✓ %s\n", update.Message)
			case tasks.Failed:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	result, err := ctrl.Submit(ctx, progressCh)
	close(progressCh)
	<-done

	return result, err
}

// Batch colorizes each argument in turn, then prints and optionally writes a report.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	outputDir := r.config.Batch.OutputDir
	if cmd.IsSet("output-dir") {
		outputDir = cmd.String("output-dir")
	}
	if cmd.Bool("no-download") {
		outputDir = ""
	}

	rateLimit := r.config.Batch.RateLimit
	if cmd.IsSet("rate-limit") {
		rateLimit = cmd.Float("rate-limit")
	}

	ctrl := r.newController()
	defer ctrl.Close()

	r.logger.Info("starting batch", "files", len(paths), "output", outputDir, "rate", rateLimit)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.BatchItem:
				r.logger.Info(update.Message)
			case tasks.BatchDownload, tasks.Failed:
				r.logger.Debug(update.Message)
			}
		}
	}()

	res, err := tasks.RunBatch(ctx, ctrl, paths, tasks.BatchOpts{
		RateLimit: rateLimit,
		OutputDir: outputDir,
	}, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	data, err := formatter.Render(res, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if outputDir != "" && cmd.Bool("manifest") {
		path := filepath.Join(outputDir, formatter.ManifestName(format))
		if err := formatter.WriteManifest(res, format, path); err != nil {
			return err
		}
		r.logger.Info("manifest written", "path", path)
	}

	if res.Failed > 0 && res.Succeeded == 0 {
		return fmt.Errorf("%w: all %d files failed", shared.ErrAPIRequest, res.Failed)
	}
	return nil
}

// Health reports whether the backend is reachable and its model is loaded.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	ctrl := r.newController()
	defer ctrl.Close()

	status, err := ctrl.Health(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, false)
	}

	r.writePlainHeader("Backend: " + r.config.API.BaseURL)
	r.writePlain("Status:  %s\n", status.Status)
	if status.Service != "" {
		r.writePlain("Service: %s\n", status.Service)
	}
	if status.ModelLoaded {
		r.writePlain("Model:   ✓ loaded\n")
	} else {
		r.writePlain("Model:   ✗ not loaded\n")
	}
	return nil
}
