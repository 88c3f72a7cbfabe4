package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/colorize/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestOutcome(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: OutcomeSuccess},
		{name: "validation", err: shared.NewValidationError(shared.ErrNoFile, ""), want: OutcomeValidation},
		{name: "timeout", err: &shared.TransportError{Err: context.DeadlineExceeded, Timeout: true}, want: OutcomeTimeout},
		{name: "canceled", err: &shared.TransportError{Err: fmt.Errorf("post: %w", context.Canceled)}, want: OutcomeCanceled},
		{name: "refused", err: &shared.TransportError{Err: errors.New("connection refused")}, want: OutcomeTransport},
		{name: "service", err: &shared.ServiceError{StatusCode: 500}, want: OutcomeService},
		{name: "malformed", err: fmt.Errorf("%w: no preview", shared.ErrMalformedResponse), want: OutcomeMalformed},
		{name: "other", err: errors.New("boom"), want: OutcomeOther},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outcome(tt.err); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestReason(t *testing.T) {
	tc := map[error]string{
		shared.NewValidationError(shared.ErrNotImage, ""):     "not_image",
		shared.NewValidationError(shared.ErrFileTooLarge, ""): "too_large",
		shared.ErrNoFile:         "no_file",
		errors.New("read fail"): "unreadable",
	}

	for err, want := range tc {
		if got := Reason(err); got != want {
			t.Errorf("Reason(%v): expected %s, got %s", err, want, got)
		}
	}
}

func TestCollector(t *testing.T) {
	t.Run("Observe Upload", func(t *testing.T) {
		c := New()
		c.ObserveUpload(nil, 2*time.Second, 1024)
		c.ObserveUpload(&shared.ServiceError{StatusCode: 500}, time.Second, 512)

		if v := counterValue(t, c.uploads.WithLabelValues(OutcomeSuccess)); v != 1 {
			t.Errorf("expected 1 success, got %v", v)
		}
		if v := counterValue(t, c.uploads.WithLabelValues(OutcomeService)); v != 1 {
			t.Errorf("expected 1 service failure, got %v", v)
		}
		if v := counterValue(t, c.bytes); v != 1536 {
			t.Errorf("expected 1536 bytes, got %v", v)
		}
	})

	t.Run("Observe Rejection", func(t *testing.T) {
		c := New()
		c.ObserveRejection(shared.NewValidationError(shared.ErrNotImage, ""))

		if v := counterValue(t, c.rejections.WithLabelValues("not_image")); v != 1 {
			t.Errorf("expected 1 rejection, got %v", v)
		}
	})

	t.Run("Nil Collector", func(t *testing.T) {
		var c *Collector
		c.ObserveUpload(nil, time.Second, 1)
		c.ObserveRejection(shared.ErrNoFile)
	})

	t.Run("Separate Registries", func(t *testing.T) {
		a, b := New(), New()
		a.ObserveUpload(nil, time.Second, 1)

		if v := counterValue(t, b.uploads.WithLabelValues(OutcomeSuccess)); v != 0 {
			t.Errorf("expected independent registries, got %v", v)
		}
	})

	t.Run("Handler", func(t *testing.T) {
		c := New(WithNamespace("test"))
		c.ObserveUpload(nil, time.Second, 10)

		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		body, _ := io.ReadAll(rec.Body)
		if !strings.Contains(string(body), `test_uploads_total{outcome="success"} 1`) {
			t.Errorf("expected exposition to contain upload counter, got:\n%s", body)
		}
	})
}
