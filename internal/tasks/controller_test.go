package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/colorize/internal/models"
	"github.com/desertthunder/colorize/internal/preview"
	"github.com/desertthunder/colorize/internal/services"
	"github.com/desertthunder/colorize/internal/shared"
	tu "github.com/desertthunder/colorize/internal/testing"
)

var sampleResult = &models.ColorizeResult{
	Status:      "success",
	Filename:    "colorized_abc.png",
	PreviewURL:  "/processed/colorized_abc.png",
	DownloadURL: "/api/download/colorized_abc.png",
}

type fakeObserver struct {
	mu         sync.Mutex
	uploads    []error
	rejections []error
}

func (f *fakeObserver) ObserveUpload(err error, elapsed time.Duration, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, err)
}

func (f *fakeObserver) ObserveRejection(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejections = append(f.rejections, err)
}

func pngCandidate(t *testing.T, name string) models.Candidate {
	return models.CandidateFromBytes(name, "image/png", tu.PNG(t))
}

func newTestController(svc services.Colorizer, opts ControllerOpts) (*Controller, *preview.Store) {
	store := preview.NewStore("")
	return NewController(svc, store, opts), store
}

func TestControllerAccept(t *testing.T) {
	t.Run("Initial State Is Empty", func(t *testing.T) {
		ctrl, _ := newTestController(&tu.MockColorizer{}, ControllerOpts{})
		s := ctrl.State()

		if s.Mode != models.Empty || s.File != nil || s.Preview != nil || s.Busy {
			t.Errorf("expected empty state, got %+v", s)
		}
	})

	t.Run("Valid Image", func(t *testing.T) {
		ctrl, store := newTestController(&tu.MockColorizer{}, ControllerOpts{})

		if err := ctrl.Accept(pngCandidate(t, "photo.png")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		s := ctrl.State()
		if s.Mode != models.HasFileNoResult {
			t.Errorf("expected HasFileNoResult, got %s", s.Mode)
		}
		if s.File == nil || s.File.Name != "photo.png" || s.File.MediaType != "image/png" {
			t.Errorf("unexpected file %+v", s.File)
		}
		if s.Preview == nil {
			t.Fatal("expected preview handle")
		}

		blob, err := store.Lookup(s.Preview.ID)
		if err != nil {
			t.Fatalf("expected preview to be reachable: %v", err)
		}
		if !bytes.Equal(blob.Content, tu.PNG(t)) {
			t.Error("expected preview content to match file")
		}
	})

	t.Run("Non Image Leaves Selection Unchanged", func(t *testing.T) {
		tc := []struct {
			name  string
			prior bool
		}{
			{name: "no prior file", prior: false},
			{name: "prior valid file", prior: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				obs := &fakeObserver{}
				ctrl, store := newTestController(&tu.MockColorizer{}, ControllerOpts{Observer: obs})
				if tt.prior {
					if err := ctrl.Accept(pngCandidate(t, "first.png")); err != nil {
						t.Fatal(err)
					}
				}
				before := ctrl.State()

				err := ctrl.Accept(models.CandidateFromBytes("notes.pdf", "application/pdf", []byte("%PDF-1.4")))

				var verr *shared.ValidationError
				if !errors.As(err, &verr) || !errors.Is(err, shared.ErrNotImage) {
					t.Fatalf("expected ValidationError wrapping ErrNotImage, got %v", err)
				}

				after := ctrl.State()
				if after.Error != "please upload an image (JPG/PNG/WebP)" {
					t.Errorf("unexpected error state %q", after.Error)
				}
				if after.Mode != before.Mode {
					t.Errorf("expected mode %s to be kept, got %s", before.Mode, after.Mode)
				}
				if tt.prior && (after.File == nil || after.File.Name != "first.png") {
					t.Errorf("expected prior file to be kept, got %+v", after.File)
				}
				if !tt.prior && after.File != nil {
					t.Errorf("expected no file, got %+v", after.File)
				}

				wantLive := 0
				if tt.prior {
					wantLive = 1
				}
				if store.Len() != wantLive {
					t.Errorf("expected %d live previews, got %d", wantLive, store.Len())
				}
				if len(obs.rejections) != 1 {
					t.Errorf("expected one rejection observed, got %d", len(obs.rejections))
				}
			})
		}
	})

	t.Run("Too Large Is Rejected Without Reading", func(t *testing.T) {
		ctrl, store := newTestController(&tu.MockColorizer{}, ControllerOpts{})
		opened := false

		cand := models.Candidate{
			Name:      "huge.jpg",
			MediaType: "image/jpeg",
			Size:      16 << 20,
			Open: func() (io.ReadCloser, error) {
				opened = true
				return io.NopCloser(strings.NewReader("")), nil
			},
		}

		err := ctrl.Accept(cand)
		if !errors.Is(err, shared.ErrFileTooLarge) {
			t.Fatalf("expected ErrFileTooLarge, got %v", err)
		}
		if opened {
			t.Error("expected oversized file not to be opened")
		}
		if store.Len() != 0 {
			t.Error("expected no preview to be created")
		}
		if got := ctrl.State().Error; got != "file too large (max 15 MB)" {
			t.Errorf("unexpected error state %q", got)
		}
	})

	t.Run("Size Exactly At Limit Is Accepted", func(t *testing.T) {
		ctrl, _ := newTestController(&tu.MockColorizer{}, ControllerOpts{MaxBytes: 8})
		err := ctrl.Accept(models.CandidateFromBytes("tiny.png", "image/png", []byte("12345678")))
		if err != nil {
			t.Errorf("expected file at limit to be accepted, got %v", err)
		}
	})

	t.Run("Understated Size Is Caught While Reading", func(t *testing.T) {
		ctrl, _ := newTestController(&tu.MockColorizer{}, ControllerOpts{MaxBytes: 4})
		cand := models.CandidateFromBytes("liar.png", "image/png", []byte("123456789"))
		cand.Size = 2

		if err := ctrl.Accept(cand); !errors.Is(err, shared.ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("Unreadable Candidate", func(t *testing.T) {
		ctrl, _ := newTestController(&tu.MockColorizer{}, ControllerOpts{})
		cand := models.Candidate{
			Name:      "gone.png",
			MediaType: "image/png",
			Size:      10,
			Open:      func() (io.ReadCloser, error) { return nil, errors.New("permission denied") },
		}

		err := ctrl.Accept(cand)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if ctrl.State().Error == "" {
			t.Error("expected error state to be set")
		}
	})

	t.Run("Replace Twice Keeps Only Second Preview", func(t *testing.T) {
		ctrl, store := newTestController(&tu.MockColorizer{}, ControllerOpts{})

		if err := ctrl.Accept(pngCandidate(t, "one.png")); err != nil {
			t.Fatal(err)
		}
		first := ctrl.State().Preview

		if err := ctrl.Accept(pngCandidate(t, "two.png")); err != nil {
			t.Fatal(err)
		}
		s := ctrl.State()

		if s.Mode != models.HasFileNoResult || s.File.Name != "two.png" {
			t.Errorf("expected HasFileNoResult with two.png, got %s %+v", s.Mode, s.File)
		}
		if _, err := store.Lookup(first.ID); !errors.Is(err, preview.ErrRevoked) {
			t.Errorf("expected first preview to be revoked, got %v", err)
		}
		if store.Len() != 1 {
			t.Errorf("expected exactly one live preview, got %d", store.Len())
		}
	})

	t.Run("Replace Clears Result And Error", func(t *testing.T) {
		ctrl, _ := newTestController(&tu.MockColorizer{Result: sampleResult}, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "one.png"))
		if _, err := ctrl.Submit(context.Background(), nil); err != nil {
			t.Fatal(err)
		}
		ctrl.Accept(models.CandidateFromBytes("bad.txt", "text/plain", []byte("x")))

		if s := ctrl.State(); s.Mode != models.HasResult || s.Error == "" {
			t.Fatalf("expected result kept with error, got %s %q", s.Mode, s.Error)
		}

		ctrl.Accept(pngCandidate(t, "two.png"))
		s := ctrl.State()
		if s.Mode != models.HasFileNoResult || s.Result != nil || s.Error != "" {
			t.Errorf("expected clean HasFileNoResult, got %+v", s)
		}
		if _, ok := ctrl.DisplayURLs(); ok {
			t.Error("expected no display URLs after replace")
		}
	})
}

func TestControllerSubmit(t *testing.T) {
	t.Run("No File Makes No Request", func(t *testing.T) {
		svc := &tu.MockColorizer{Result: sampleResult}
		ctrl, _ := newTestController(svc, ControllerOpts{})

		_, err := ctrl.Submit(context.Background(), nil)

		var verr *shared.ValidationError
		if !errors.As(err, &verr) || !errors.Is(err, shared.ErrNoFile) {
			t.Fatalf("expected ValidationError wrapping ErrNoFile, got %v", err)
		}
		if len(svc.Calls()) != 0 {
			t.Errorf("expected zero requests, got %d", len(svc.Calls()))
		}
		if s := ctrl.State(); s.Error != "no file selected" || s.Mode != models.Empty {
			t.Errorf("unexpected state %+v", s)
		}
	})

	t.Run("Success", func(t *testing.T) {
		svc := &tu.MockColorizer{
			Base:     "http://api.test",
			Result:   sampleResult,
			Progress: [][2]int64{{0, 200}, {100, 200}, {200, 200}},
		}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))

		progress := make(chan ProgressUpdate, 16)
		res, err := ctrl.Submit(context.Background(), progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.PreviewURL != sampleResult.PreviewURL {
			t.Errorf("unexpected result %+v", res)
		}

		s := ctrl.State()
		if s.Mode != models.HasResult || s.Busy || s.Progress != 100 || s.Error != "" {
			t.Errorf("unexpected state %+v", s)
		}

		urls, ok := ctrl.DisplayURLs()
		if !ok {
			t.Fatal("expected display URLs")
		}
		if urls.Preview != "http://api.test/processed/colorized_abc.png" {
			t.Errorf("unexpected preview URL %s", urls.Preview)
		}
		if urls.Download != "http://api.test/api/download/colorized_abc.png" {
			t.Errorf("unexpected download URL %s", urls.Download)
		}

		close(progress)
		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if len(phases) == 0 || phases[len(phases)-1] != Complete {
			t.Errorf("expected final Complete update, got %v", phases)
		}
	})

	t.Run("Service Detail Becomes Error State", func(t *testing.T) {
		svc := &tu.MockColorizer{Err: &shared.ServiceError{StatusCode: 500, Detail: "model unavailable"}}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))

		_, err := ctrl.Submit(context.Background(), nil)
		if err == nil {
			t.Fatal("expected error")
		}

		s := ctrl.State()
		if s.Error != "model unavailable" {
			t.Errorf("expected error state 'model unavailable', got %q", s.Error)
		}
		if s.Busy || s.Mode != models.HasFileNoResult {
			t.Errorf("expected idle HasFileNoResult, got %+v", s)
		}
	})

	t.Run("Service Error Without Detail", func(t *testing.T) {
		svc := &tu.MockColorizer{Err: &shared.ServiceError{StatusCode: 502}}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))
		ctrl.Submit(context.Background(), nil)

		if got := ctrl.State().Error; !strings.HasPrefix(got, shared.GenericFailureMessage) {
			t.Errorf("expected generic message, got %q", got)
		}
	})

	t.Run("Timeout Releases Busy", func(t *testing.T) {
		svc := &tu.MockColorizer{
			ColorizeFunc: func(ctx context.Context, file *models.SelectedFile, onProgress services.ProgressFunc) (*models.ColorizeResult, error) {
				<-ctx.Done()
				return nil, &shared.TransportError{Err: ctx.Err(), Timeout: true}
			},
		}
		ctrl, _ := newTestController(svc, ControllerOpts{Timeout: 20 * time.Millisecond})
		ctrl.Accept(pngCandidate(t, "slow.png"))

		_, err := ctrl.Submit(context.Background(), nil)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}

		s := ctrl.State()
		if s.Busy {
			t.Error("expected busy to be released")
		}
		if s.Error != "request timed out after 20ms" {
			t.Errorf("unexpected error state %q", s.Error)
		}
	})

	t.Run("Not Re-entrant While Busy", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		svc := &tu.MockColorizer{
			ColorizeFunc: func(ctx context.Context, file *models.SelectedFile, onProgress services.ProgressFunc) (*models.ColorizeResult, error) {
				close(started)
				<-release
				return sampleResult, nil
			},
		}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))

		done := make(chan error, 1)
		go func() {
			_, err := ctrl.Submit(context.Background(), nil)
			done <- err
		}()
		<-started

		if s := ctrl.State(); s.Mode != models.Submitting || !s.Busy {
			t.Errorf("expected Submitting, got %+v", s)
		}

		if _, err := ctrl.Submit(context.Background(), nil); !errors.Is(err, shared.ErrBusy) {
			t.Errorf("expected ErrBusy, got %v", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(svc.Calls()) != 1 {
			t.Errorf("expected exactly one request, got %d", len(svc.Calls()))
		}
		if ctrl.State().Mode != models.HasResult {
			t.Errorf("expected HasResult, got %s", ctrl.State().Mode)
		}
	})

	t.Run("Progress Stays In Range", func(t *testing.T) {
		svc := &tu.MockColorizer{
			Result:   sampleResult,
			Progress: [][2]int64{{0, 0}, {1, 3}, {2, 3}, {5, 3}, {-4, 10}, {3, 3}},
		}

		var mu sync.Mutex
		var seen []int
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Subscribe(func(s State) {
			mu.Lock()
			seen = append(seen, s.Progress)
			mu.Unlock()
		})
		ctrl.Accept(pngCandidate(t, "photo.png"))

		progress := make(chan ProgressUpdate, 64)
		if _, err := ctrl.Submit(context.Background(), progress); err != nil {
			t.Fatal(err)
		}
		close(progress)

		for u := range progress {
			if u.Percent < 0 || u.Percent > 100 {
				t.Errorf("progress update out of range: %d", u.Percent)
			}
		}
		mu.Lock()
		defer mu.Unlock()
		for _, p := range seen {
			if p < 0 || p > 100 {
				t.Errorf("state progress out of range: %d", p)
			}
		}
	})

	t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
		svc := &tu.MockColorizer{Result: sampleResult, Progress: [][2]int64{{1, 4}, {2, 4}, {3, 4}, {4, 4}}}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))

		progress := make(chan ProgressUpdate)
		if _, err := ctrl.Submit(context.Background(), progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("Replaced File Discards Late Result", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		svc := &tu.MockColorizer{
			ColorizeFunc: func(ctx context.Context, file *models.SelectedFile, onProgress services.ProgressFunc) (*models.ColorizeResult, error) {
				close(started)
				<-release
				onProgress(10, 10)
				return sampleResult, nil
			},
		}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "old.png"))

		done := make(chan error, 1)
		go func() {
			_, err := ctrl.Submit(context.Background(), nil)
			done <- err
		}()
		<-started

		if err := ctrl.Accept(pngCandidate(t, "new.png")); err != nil {
			t.Fatal(err)
		}
		close(release)

		if err := <-done; !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}

		s := ctrl.State()
		if s.Mode != models.HasFileNoResult || s.File.Name != "new.png" || s.Result != nil {
			t.Errorf("expected HasFileNoResult for new.png, got %+v", s)
		}
		if s.Progress != 0 {
			t.Errorf("expected stale progress to be ignored, got %d", s.Progress)
		}
	})

	t.Run("Panic Still Releases Busy", func(t *testing.T) {
		svc := &tu.MockColorizer{
			ColorizeFunc: func(ctx context.Context, file *models.SelectedFile, onProgress services.ProgressFunc) (*models.ColorizeResult, error) {
				panic("transport exploded")
			},
		}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))

		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic to propagate")
				}
			}()
			ctrl.Submit(context.Background(), nil)
		}()

		if ctrl.State().Busy {
			t.Error("expected busy to be released after panic")
		}
	})

	t.Run("Resubmit After Failure", func(t *testing.T) {
		svc := &tu.MockColorizer{Err: &shared.TransportError{Err: errors.New("connection refused")}}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))

		ctrl.Submit(context.Background(), nil)
		if got := ctrl.State().Error; got != shared.GenericFailureMessage {
			t.Fatalf("expected generic error state after refused connection, got %q", got)
		}

		svc.Err = nil
		svc.Result = sampleResult
		if _, err := ctrl.Submit(context.Background(), nil); err != nil {
			t.Fatalf("expected resubmit to succeed, got %v", err)
		}
		if s := ctrl.State(); s.Error != "" || s.Mode != models.HasResult {
			t.Errorf("expected cleared error and HasResult, got %+v", s)
		}
	})

	t.Run("Observer Sees Outcomes", func(t *testing.T) {
		obs := &fakeObserver{}
		svc := &tu.MockColorizer{Result: sampleResult}
		ctrl, _ := newTestController(svc, ControllerOpts{Observer: obs})

		ctrl.Submit(context.Background(), nil)
		ctrl.Accept(pngCandidate(t, "photo.png"))
		ctrl.Submit(context.Background(), nil)

		if len(obs.rejections) != 1 || len(obs.uploads) != 1 || obs.uploads[0] != nil {
			t.Errorf("unexpected observations: %+v", obs)
		}
	})
}

func TestControllerLifecycle(t *testing.T) {
	t.Run("Subscribe And Cancel", func(t *testing.T) {
		ctrl, _ := newTestController(&tu.MockColorizer{Result: sampleResult}, ControllerOpts{})

		var modes []models.Mode
		cancel := ctrl.Subscribe(func(s State) { modes = append(modes, s.Mode) })

		ctrl.Accept(pngCandidate(t, "photo.png"))
		ctrl.Submit(context.Background(), nil)

		if len(modes) == 0 {
			t.Fatal("expected notifications")
		}
		if modes[0] != models.HasFileNoResult {
			t.Errorf("expected first notification HasFileNoResult, got %s", modes[0])
		}
		if modes[len(modes)-1] != models.HasResult {
			t.Errorf("expected last notification HasResult, got %s", modes[len(modes)-1])
		}

		sawSubmitting := false
		for _, m := range modes {
			if m == models.Submitting {
				sawSubmitting = true
			}
		}
		if !sawSubmitting {
			t.Error("expected a Submitting notification")
		}

		cancel()
		n := len(modes)
		ctrl.Accept(pngCandidate(t, "again.png"))
		if len(modes) != n {
			t.Error("expected no notifications after cancel")
		}
	})

	t.Run("Close Revokes Preview", func(t *testing.T) {
		ctrl, store := newTestController(&tu.MockColorizer{}, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))

		ctrl.Close()
		if store.Len() != 0 {
			t.Errorf("expected no live previews after Close, got %d", store.Len())
		}
		if ctrl.State().Preview != nil {
			t.Error("expected preview handle to be cleared")
		}
	})

	t.Run("Health", func(t *testing.T) {
		svc := &tu.MockColorizer{Status: &models.HealthStatus{Status: "healthy", ModelLoaded: true}}
		ctrl, _ := newTestController(svc, ControllerOpts{})

		status, err := ctrl.Health(context.Background())
		if err != nil || !status.ModelLoaded {
			t.Errorf("unexpected health %+v, %v", status, err)
		}
	})

	t.Run("Download Requires Result", func(t *testing.T) {
		ctrl, _ := newTestController(&tu.MockColorizer{}, ControllerOpts{})
		if _, err := ctrl.Download(context.Background(), io.Discard); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Download Streams Result", func(t *testing.T) {
		svc := &tu.MockColorizer{Result: sampleResult, DownloadBody: "colorized"}
		ctrl, _ := newTestController(svc, ControllerOpts{})
		ctrl.Accept(pngCandidate(t, "photo.png"))
		ctrl.Submit(context.Background(), nil)

		var buf bytes.Buffer
		if _, err := ctrl.Download(context.Background(), &buf); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "colorized" {
			t.Errorf("unexpected download %q", buf.String())
		}
	})
}

func TestPercent(t *testing.T) {
	tc := []struct {
		sent, total int64
		want        int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1},
		{1, 201, 0},
		{3, 3, 100},
		{5, 3, 100},
		{10, 0, 0},
		{-5, 10, 0},
	}

	for _, tt := range tc {
		if got := percent(tt.sent, tt.total); got != tt.want {
			t.Errorf("percent(%d, %d): expected %d, got %d", tt.sent, tt.total, tt.want, got)
		}
	}
}
