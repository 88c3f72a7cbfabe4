// Colorize backend [Colorizer] implementation
//
// Talks to the FastAPI service exposing POST /api/colorize, GET /api/health
// and GET /api/download/{filename}.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/colorize/internal/models"
	"github.com/desertthunder/colorize/internal/shared"
)

const (
	colorizePath = "/api/colorize"
	healthPath   = "/api/health"

	// Error bodies larger than this are not inspected for a detail field.
	maxErrorBody = 1 << 20
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ColorizeService implements [Colorizer] over HTTP.
type ColorizeService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewColorizeService creates a client for the backend at baseURL.
//
// A nil client uses [http.DefaultClient]; deadlines come from the caller's context.
func NewColorizeService(baseURL string, client *http.Client, logger *log.Logger) *ColorizeService {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &ColorizeService{
		baseURL:    shared.NormalizeBaseURL(baseURL),
		httpClient: client,
		logger:     logger,
	}
}

// BaseURL returns the normalized API base.
func (c *ColorizeService) BaseURL() string {
	return c.baseURL
}

// Colorize uploads file to POST /api/colorize as the multipart part "file".
func (c *ColorizeService) Colorize(ctx context.Context, file *models.SelectedFile, onProgress ProgressFunc) (*models.ColorizeResult, error) {
	if file == nil {
		return nil, shared.NewValidationError(shared.ErrNoFile, "")
	}

	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return nil, err
	}

	total := int64(len(body))
	reader := &progressReader{r: bytes.NewReader(body), total: total, fn: onProgress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+colorizePath, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	requestID := shared.GenerateID()
	req.Header.Set("X-Request-ID", requestID)

	logger := c.logger.With("request_id", requestID)
	logger.Debug("uploading image", "name", file.Name, "media_type", file.MediaType, "bytes", total)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := decodeServiceError(resp)
		logger.Warn("colorize rejected", "status", resp.StatusCode, "detail", serr.Detail)
		return nil, serr
	}

	var result models.ColorizeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, classifyTransportError(ctx, ctxErr)
		}
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrMalformedResponse, err)
	}

	if result.PreviewURL == "" || result.DownloadURL == "" {
		return nil, fmt.Errorf("%w: missing preview_url or download_url", shared.ErrMalformedResponse)
	}

	logger.Info("image colorized", "filename", result.Filename, "preview_url", result.PreviewURL)
	return &result, nil
}

// Health calls GET /api/health.
func (c *ColorizeService) Health(ctx context.Context) (*models.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeServiceError(resp)
	}

	var status models.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("%w: failed to decode health: %v", shared.ErrMalformedResponse, err)
	}
	return &status, nil
}

// Download streams the file at url into w.
func (c *ColorizeService) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, decodeServiceError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to write download: %w", err)
	}

	c.logger.Debug("download complete", "url", url, "bytes", n)
	return n, nil
}

// encodeMultipart builds the request body and its content type.
func encodeMultipart(file *models.SelectedFile) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", file.MediaType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", fmt.Errorf("failed to write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

// decodeServiceError reads an error body and keeps "detail" only when it is a JSON string.
//
// FastAPI validation failures return a list under detail; those fall back to the generic message.
func decodeServiceError(resp *http.Response) *shared.ServiceError {
	serr := &shared.ServiceError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return serr
	}

	var errResp struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &errResp); err != nil || len(errResp.Detail) == 0 {
		return serr
	}

	var detail string
	if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
		serr.Detail = detail
	}
	return serr
}

// classifyTransportError maps client failures onto [shared.TransportError].
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &shared.TransportError{Err: err, Timeout: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &shared.TransportError{Err: err, Timeout: true}
	}

	return &shared.TransportError{Err: err}
}

// progressReader reports cumulative bytes read to fn.
type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}
