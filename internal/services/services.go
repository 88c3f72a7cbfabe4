// package services defines HTTP clients for the colorize backend
package services

import (
	"context"
	"io"

	"github.com/desertthunder/colorize/internal/models"
)

// ProgressFunc reports upload progress as bytes handed to the transport out of the body total.
//
// Called repeatedly while the request body is read: (32768, 1048576), (65536, 1048576), ...
type ProgressFunc func(sent, total int64)

// Colorizer is implemented by clients of the colorization backend.
type Colorizer interface {
	// Colorize uploads file as a multipart form and returns the decoded result.
	// onProgress may be nil.
	Colorize(ctx context.Context, file *models.SelectedFile, onProgress ProgressFunc) (*models.ColorizeResult, error)

	// Health reports backend status and whether the model is loaded.
	Health(ctx context.Context) (*models.HealthStatus, error)

	// Download streams an absolute download URL into w and returns the bytes written.
	Download(ctx context.Context, url string, w io.Writer) (int64, error)

	// BaseURL returns the API base that result paths are relative to.
	BaseURL() string
}
