package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/colorize/internal/models"
	"github.com/desertthunder/colorize/internal/shared"
	"golang.org/x/time/rate"
)

// BatchOpts contains configuration for sequential multi-file runs.
type BatchOpts struct {
	RateLimit float64                                     // Submissions per second (default: 1)
	OutputDir string                                      // Directory for downloaded results; empty skips downloads
	Open      func(path string) (models.Candidate, error) // Candidate loader (default: shared.OpenCandidate)
}

// BatchItemResult is the outcome for one input path.
type BatchItemResult struct {
	Path    string
	Name    string
	Result  *models.ColorizeResult
	URLs    models.DisplayURLs
	SavedTo string
	Error   error
	Elapsed time.Duration
}

// Success reports whether the item was colorized (and saved, when requested).
func (r BatchItemResult) Success() bool {
	return r.Error == nil && r.Result != nil
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	OutputDir string
	Items     []BatchItemResult
}

// RunBatch colorizes paths one at a time through ctrl.
//
// Uploads never overlap: each item is accepted and submitted before the next
// begins, and submissions are paced by a token bucket. A failing item is
// recorded and the batch continues. Only context cancellation stops the run early.
func RunBatch(ctx context.Context, ctrl *Controller, paths []string, opts BatchOpts, progress chan<- ProgressUpdate) (*BatchResult, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("%w: controller not initialized", shared.ErrServiceUnavailable)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files given", shared.ErrMissingArgument)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}
	if opts.Open == nil {
		opts.Open = shared.OpenCandidate
	}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	result := &BatchResult{
		Total:     len(paths),
		OutputDir: opts.OutputDir,
		Items:     make([]BatchItemResult, 0, len(paths)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	for i, path := range paths {
		if err := limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("batch interrupted after %d of %d: %w", i, len(paths), err)
		}

		sendProgress(progress, batchItemUpdate(i+1, len(paths), path))

		item := runBatchItem(ctx, ctrl, path, opts, progress, i+1, len(paths))
		result.Items = append(result.Items, item)
		if item.Success() {
			result.Succeeded++
		} else {
			result.Failed++
			ctrl.logger.Warn("batch item failed", "path", path, "error", item.Error)
		}
	}

	sendProgress(progress, batchDoneUpdate(result))
	return result, nil
}

func runBatchItem(ctx context.Context, ctrl *Controller, path string, opts BatchOpts, progress chan<- ProgressUpdate, step, total int) (item BatchItemResult) {
	start := time.Now()
	item = BatchItemResult{Path: path, Name: filepath.Base(path)}
	defer func() { item.Elapsed = time.Since(start) }()

	cand, err := opts.Open(path)
	if err != nil {
		item.Error = err
		return item
	}
	item.Name = cand.Name

	if err := ctrl.Accept(cand); err != nil {
		item.Error = err
		return item
	}

	res, err := ctrl.Submit(ctx, progress)
	if err != nil {
		item.Error = err
		return item
	}
	item.Result = res
	item.URLs, _ = ctrl.DisplayURLs()

	if opts.OutputDir == "" {
		return item
	}

	dest := filepath.Join(opts.OutputDir, OutputName(cand.Name, res))
	sendProgress(progress, batchDownloadUpdate(step, total, dest))

	if _, err := saveTo(ctx, ctrl, dest); err != nil {
		item.Error = err
		return item
	}
	item.SavedTo = dest
	return item
}

// SaveResult downloads the current result of ctrl into dir and returns the written path.
func SaveResult(ctx context.Context, ctrl *Controller, dir string) (string, int64, error) {
	file := ctrl.SelectedFile()
	result := ctrl.State().Result
	if file == nil || result == nil {
		return "", 0, fmt.Errorf("%w: no result to download", shared.ErrInvalidInput)
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	dest := filepath.Join(dir, OutputName(file.Name, result))
	n, err := saveTo(ctx, ctrl, dest)
	return dest, n, err
}

// saveTo writes the download to dest, removing the partial file on failure.
func saveTo(ctx context.Context, ctrl *Controller, dest string) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	n, err := ctrl.Download(ctx, f)
	if err != nil {
		f.Close()
		os.Remove(dest)
		return 0, err
	}
	return n, f.Close()
}

// OutputName picks the local filename for a colorized result.
//
// The backend's filename is preferred; otherwise the input name gets a "colorized_" prefix.
func OutputName(inputName string, r *models.ColorizeResult) string {
	if r != nil && r.Filename != "" {
		if name := filepath.Base(r.Filename); name != "." && name != string(filepath.Separator) {
			return name
		}
	}
	name := filepath.Base(inputName)
	if strings.HasPrefix(name, "colorized_") {
		return name
	}
	return "colorized_" + name
}
