// Raw access to the colorize backend, used by `colorize api get`
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/colorize/internal/shared"
)

// Raw bodies are truncated past this size.
const maxRawBody = 8 << 20

// APIService issues unshaped GET requests against the backend (root, docs, health, processed files).
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a raw client for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    shared.NormalizeBaseURL(baseURL),
		httpClient: client,
	}
}

// APIResponse is a backend reply kept as-is.
//
// JSONData is set only when the body parses as JSON. Detail carries the
// backend's "detail" string for non-2xx replies.
type APIResponse struct {
	StatusCode int
	RequestID  string
	Headers    http.Header
	Body       []byte
	Truncated  bool
	IsJSON     bool
	JSONData   any
	Detail     string
}

// OK reports whether the backend answered with a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns a [shared.ServiceError] for non-2xx replies and nil otherwise.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}
	return &shared.ServiceError{StatusCode: r.StatusCode, Detail: r.Detail}
}

// Get fetches path relative to the API base.
//
// Network failures and deadlines come back as [shared.TransportError]; a
// non-2xx status is not an error here, see [APIResponse.Err].
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	requestID := shared.GenerateID()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrInvalidArgument, err)
	}
	req.Header.Set("Accept", "application/json, */*")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRawBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		Headers:    resp.Header,
		Body:       body,
	}
	if len(body) > maxRawBody {
		apiResp.Body = body[:maxRawBody]
		apiResp.Truncated = true
		return apiResp, nil
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	if !apiResp.OK() {
		if obj, ok := jsonData.(map[string]any); ok {
			if detail, ok := obj["detail"].(string); ok {
				apiResp.Detail = detail
			}
		}
	}

	return apiResp, nil
}
