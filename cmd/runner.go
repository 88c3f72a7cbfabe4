package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/colorize/internal/metrics"
	"github.com/desertthunder/colorize/internal/preview"
	"github.com/desertthunder/colorize/internal/services"
	"github.com/desertthunder/colorize/internal/shared"
	"github.com/desertthunder/colorize/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	colorizer  services.Colorizer
	api        *services.APIService
	store      *preview.Store
	metrics    *metrics.Collector
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	open       func(url string) error

	ownsColorizer bool
	ownsAPI       bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Colorizer  services.Colorizer     // Backend client (default: built from Config)
	API        *services.APIService   // Raw GET client (default: built from Config)
	Metrics    *metrics.Collector     // Upload metrics (default: a fresh collector)
	HTTPClient *http.Client           // Shared by the default clients
	Logger     *log.Logger            // Default: stderr
	Output     io.Writer              // Default: stdout
	Open       func(url string) error // Browser launcher (default: shared.OpenBrowser)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	r := &Runner{
		config:        opts.Config,
		configPath:    opts.ConfigPath,
		colorizer:     opts.Colorizer,
		api:           opts.API,
		store:         preview.NewStore(""),
		metrics:       opts.Metrics,
		httpClient:    opts.HTTPClient,
		logger:        opts.Logger,
		output:        opts.Output,
		open:          opts.Open,
		ownsColorizer: opts.Colorizer == nil,
		ownsAPI:       opts.API == nil,
	}
	r.buildClients()
	return r
}

// buildClients (re)creates the backend clients the runner owns from the current config and logger.
func (r *Runner) buildClients() {
	base := r.config.API.BaseURL
	if r.ownsColorizer {
		r.colorizer = services.NewColorizeService(base, r.httpClient, r.logger)
	}
	if r.ownsAPI {
		r.api = services.NewAPIService(base, r.httpClient)
	}
}

// Before loads configuration and applies global flags ahead of every command.
//
// Precedence: --api-url (or its environment sources), then the config file, then the built-in default.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.configPath = path
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	r.config.ApplyEnv(os.LookupEnv)
	if cmd.IsSet("api-url") {
		r.config.API.BaseURL = shared.NormalizeBaseURL(cmd.String("api-url"))
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if err := shared.SetLogLevel(r.logger, level); err != nil {
		return ctx, err
	}

	r.buildClients()
	r.logger.Debug("configured", "api", r.config.API.BaseURL, "config", r.configPath)
	return ctx, nil
}

// SetLogger replaces the runner's logger, rebuilding owned clients so they log to it too.
func (r *Runner) SetLogger(l *log.Logger) {
	l.SetLevel(r.logger.GetLevel())
	r.logger = l
	r.buildClients()
}

// newController creates a single-session controller over the runner's backend client.
func (r *Runner) newController() *tasks.Controller {
	return tasks.NewController(r.colorizer, r.store, tasks.ControllerOpts{
		MaxBytes: r.config.API.MaxUploadBytes(),
		Timeout:  r.config.API.Timeout(),
		Logger:   r.logger,
		Observer: r.metrics,
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, batchCommand, healthCommand, apiCommand, tuiCommand, serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
