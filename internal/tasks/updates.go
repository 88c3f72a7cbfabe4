package tasks

import (
	"fmt"

	"github.com/desertthunder/colorize/internal/models"
)

// ProgressUpdate represents a progress event during a submission or batch run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Percent int    // Upload percentage in [0, 100]
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Upload Phase = iota
	Complete
	Failed
	BatchItem
	BatchDownload
	BatchDone
)

func (p Phase) String() string {
	switch p {
	case Upload:
		return "upload"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	case BatchItem:
		return "batch_item"
	case BatchDownload:
		return "batch_download"
	case BatchDone:
		return "batch_done"
	default:
		return ""
	}
}

func uploadUpdate(name string, percent int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    percent,
		Total:   100,
		Percent: percent,
		Message: fmt.Sprintf("Uploading %s... %d%%", name, percent),
	}
}

func completeUpdate(name string, r *models.ColorizeResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Percent: 100,
		Message: fmt.Sprintf("Colorized %s", name),
		Data:    r,
	}
}

func failedUpdate(name, msg string, percent int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Step:    1,
		Total:   1,
		Percent: percent,
		Message: fmt.Sprintf("✗ %s: %s", name, msg),
	}
}

func batchItemUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, path),
	}
}

func batchDownloadUpdate(step, total int, dest string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchDownload,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Saving %s...", step, total, dest),
	}
}

func batchDoneUpdate(res *BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchDone,
		Step:    res.Total,
		Total:   res.Total,
		Message: fmt.Sprintf("Done: %d succeeded, %d failed", res.Succeeded, res.Failed),
		Data:    res,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

// percent converts transport byte counts into a rounded percentage clamped to [0, 100].
func percent(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	p := (sent*100 + total/2) / total
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return int(p)
	}
}
