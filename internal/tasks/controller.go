package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/colorize/internal/models"
	"github.com/desertthunder/colorize/internal/preview"
	"github.com/desertthunder/colorize/internal/services"
	"github.com/desertthunder/colorize/internal/shared"
)

const (
	DefaultMaxBytes int64 = 15 << 20
	DefaultTimeout        = 120 * time.Second
)

// ErrSuperseded is returned by Submit when the file was replaced while its upload was in flight.
var ErrSuperseded = errors.New("file replaced during upload")

// Observer receives submission and validation outcomes, e.g. a metrics collector.
type Observer interface {
	ObserveUpload(err error, elapsed time.Duration, size int64)
	ObserveRejection(err error)
}

// ControllerOpts configures a [Controller]. Zero values select the defaults.
type ControllerOpts struct {
	MaxBytes int64
	Timeout  time.Duration
	Logger   *log.Logger
	Observer Observer
}

// FileInfo is the metadata of the selected file exposed in a [State].
type FileInfo struct {
	Name      string
	MediaType string
	Size      int64
}

// State is a snapshot of the controller.
type State struct {
	Mode     models.Mode
	File     *FileInfo
	Preview  *preview.Handle
	Progress int
	Busy     bool
	Result   *models.ColorizeResult
	Error    string
}

// Controller owns the upload-and-result workflow for one session.
//
// All methods are safe for concurrent use. Submit is not re-entrant: while an
// upload is in flight further calls fail with [shared.ErrBusy].
type Controller struct {
	svc    services.Colorizer
	store  *preview.Store
	opts   ControllerOpts
	logger *log.Logger

	mu       sync.Mutex
	file     *models.SelectedFile
	handle   *preview.Handle
	progress int
	busy     bool
	result   *models.ColorizeResult
	errMsg   string
	gen      uint64

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// NewController creates a Controller in the Empty mode.
func NewController(svc services.Colorizer, store *preview.Store, opts ControllerOpts) *Controller {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if store == nil {
		store = preview.NewStore("")
	}

	return &Controller{
		svc:    svc,
		store:  store,
		opts:   opts,
		logger: opts.Logger,
		subs:   make(map[int]func(State)),
	}
}

// Store returns the preview store backing this controller.
func (c *Controller) Store() *preview.Store {
	return c.store
}

// Accept validates a candidate and makes it the selected file.
//
// On failure the previous selection, preview and result are kept and the
// error state is set. On success the previous preview is revoked.
func (c *Controller) Accept(cand models.Candidate) error {
	if !cand.IsImage() {
		return c.reject(cand, shared.NewValidationError(shared.ErrNotImage, ""))
	}
	if cand.Size > c.opts.MaxBytes {
		return c.reject(cand, c.tooLarge())
	}

	content, err := c.read(cand)
	if err != nil {
		return c.reject(cand, err)
	}

	handle := c.store.Create(cand.Name, cand.MediaType, content)

	c.mu.Lock()
	old := c.handle
	c.file = &models.SelectedFile{
		Name:      cand.Name,
		MediaType: cand.MediaType,
		Size:      int64(len(content)),
		Content:   content,
	}
	c.handle = &handle
	c.result = nil
	c.errMsg = ""
	c.progress = 0
	c.gen++
	c.mu.Unlock()

	if old != nil {
		c.store.Revoke(old.ID)
	}

	c.logger.Info("file accepted", "name", cand.Name, "media_type", cand.MediaType, "size", shared.FormatBytes(int64(len(content))))
	c.notify()
	return nil
}

// read loads candidate content, never more than MaxBytes+1 bytes.
func (c *Controller) read(cand models.Candidate) ([]byte, error) {
	if cand.Open == nil {
		return nil, fmt.Errorf("%w: %s has no content", shared.ErrInvalidInput, cand.Name)
	}

	rc, err := cand.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", shared.ErrInvalidInput, cand.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, c.opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", shared.ErrInvalidInput, cand.Name, err)
	}
	if int64(len(content)) > c.opts.MaxBytes {
		return nil, c.tooLarge()
	}
	return content, nil
}

func (c *Controller) tooLarge() error {
	limit := c.opts.MaxBytes
	if limit%(1<<20) == 0 {
		return shared.NewValidationError(shared.ErrFileTooLarge, "file too large (max %d MB)", limit>>20)
	}
	return shared.NewValidationError(shared.ErrFileTooLarge, "file too large (max %s)", shared.FormatBytes(limit))
}

func (c *Controller) reject(cand models.Candidate, err error) error {
	c.mu.Lock()
	c.errMsg = shared.UserMessage(err)
	c.mu.Unlock()

	c.logger.Warn("file rejected", "name", cand.Name, "media_type", cand.MediaType, "size", cand.Size, "error", err)
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveRejection(err)
	}
	c.notify()
	return err
}

// Submit uploads the selected file and stores the result.
//
// Percentages are forwarded to progress without blocking; progress may be nil.
// The busy flag is released on every exit path.
func (c *Controller) Submit(ctx context.Context, progress chan<- ProgressUpdate) (*models.ColorizeResult, error) {
	c.mu.Lock()
	if c.file == nil {
		err := shared.NewValidationError(shared.ErrNoFile, "")
		c.errMsg = err.Error()
		c.mu.Unlock()

		if c.opts.Observer != nil {
			c.opts.Observer.ObserveRejection(err)
		}
		c.notify()
		return nil, err
	}
	if c.busy {
		c.mu.Unlock()
		return nil, shared.ErrBusy
	}

	c.busy = true
	c.progress = 0
	c.errMsg = ""
	c.result = nil
	file := c.file
	gen := c.gen
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
		c.notify()
	}()

	c.notify()
	sendProgress(progress, uploadUpdate(file.Name, 0))

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	logger := c.logger.With("name", file.Name)
	logger.Info("submitting", "size", shared.FormatBytes(file.Size), "timeout", c.opts.Timeout)

	onProgress := func(sent, total int64) {
		pct := percent(sent, total)

		c.mu.Lock()
		changed := c.gen == gen && c.progress != pct
		if changed {
			c.progress = pct
		}
		c.mu.Unlock()

		if changed {
			sendProgress(progress, uploadUpdate(file.Name, pct))
			c.notify()
		}
	}

	start := time.Now()
	result, err := c.svc.Colorize(ctx, file, onProgress)
	elapsed := time.Since(start)

	var terr *shared.TransportError
	if errors.As(err, &terr) && terr.Timeout && terr.After == 0 {
		terr.After = c.opts.Timeout
	}
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveUpload(err, elapsed, file.Size)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		logger.Warn("discarding result for replaced file", "error", err)
		return nil, ErrSuperseded
	}

	if err != nil {
		c.errMsg = shared.UserMessage(err)
		pct := c.progress
		c.mu.Unlock()

		logger.Error("colorize failed", "error", err, "elapsed", elapsed)
		sendProgress(progress, failedUpdate(file.Name, shared.UserMessage(err), pct))
		return nil, err
	}

	c.result = result
	c.progress = 100
	c.mu.Unlock()

	logger.Info("colorize complete", "preview_url", result.PreviewURL, "elapsed", elapsed)
	sendProgress(progress, completeUpdate(file.Name, result))
	return result, nil
}

// DisplayURLs returns absolute URLs for the current result, if any.
func (c *Controller) DisplayURLs() (models.DisplayURLs, bool) {
	c.mu.Lock()
	result := c.result
	c.mu.Unlock()

	if result == nil {
		return models.DisplayURLs{}, false
	}
	return models.ResolveURLs(c.svc.BaseURL(), result), true
}

// SelectedFile returns the current selection or nil.
func (c *Controller) SelectedFile() *models.SelectedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	s := State{
		Mode:     c.mode(),
		Progress: c.progress,
		Busy:     c.busy,
		Error:    c.errMsg,
	}
	if c.file != nil {
		s.File = &FileInfo{Name: c.file.Name, MediaType: c.file.MediaType, Size: c.file.Size}
	}
	if c.handle != nil {
		h := *c.handle
		s.Preview = &h
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

// mode derives the display mode; callers hold mu.
func (c *Controller) mode() models.Mode {
	switch {
	case c.busy:
		return models.Submitting
	case c.result != nil:
		return models.HasResult
	case c.file != nil:
		return models.HasFileNoResult
	default:
		return models.Empty
	}
}

// Subscribe registers fn to be called with a snapshot after every state change.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) notify() {
	s := c.State()

	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Health reports backend status.
func (c *Controller) Health(ctx context.Context) (*models.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	return c.svc.Health(ctx)
}

// Download streams the current result into w.
func (c *Controller) Download(ctx context.Context, w io.Writer) (int64, error) {
	urls, ok := c.DisplayURLs()
	if !ok {
		return 0, fmt.Errorf("%w: no result to download", shared.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	return c.svc.Download(ctx, urls.Download, w)
}

// Close revokes the live preview and drops subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	old := c.handle
	c.handle = nil
	c.mu.Unlock()

	if old != nil {
		c.store.Revoke(old.ID)
	}

	c.subMu.Lock()
	c.subs = make(map[int]func(State))
	c.subMu.Unlock()
}
