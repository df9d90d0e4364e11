package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mimo/internal/app"
	"github.com/desertthunder/mimo/internal/cache"
	"github.com/desertthunder/mimo/internal/services"
	"github.com/desertthunder/mimo/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The [app.App] is built lazily on first use so that setup commands never open the cache store.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	providers  []services.Provider
	store      cache.Store
	core       *app.App
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config      // Used as-is, skipping file and environment loading
	ConfigPath string              // Overrides the --config flag
	HTTPClient *http.Client        // Shared by both providers
	Logger     *log.Logger         // Root logger
	Output     io.Writer           // Command output (default: os.Stdout)
	Providers  []services.Provider // Replaces the configured providers
	Store      cache.Store         // Replaces the configured cache store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		providers:  opts.Providers,
		store:      opts.Store,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("MIMO_CONFIG"),
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, trendingCommand, cacheCommand, setupCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration and sets the log level ahead of any command action.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if r.config == nil {
		config, err := r.loadConfig()
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level, err := shared.ParseLevel(r.config.Log.Level)
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// loadConfig reads the config file when present, falling back to defaults, then applies MIMO_* overrides.
func (r *Runner) loadConfig() (*shared.Config, error) {
	config := shared.DefaultConfig()

	if _, err := os.Stat(r.configPath); err == nil {
		if config, err = shared.LoadConfig(r.configPath); err != nil {
			return nil, err
		}
		r.logger.Debug("loaded config", "path", r.configPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// App returns the application core, building it on first call.
func (r *Runner) App(ctx context.Context) (*app.App, error) {
	if r.core != nil {
		return r.core, nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	opts := []app.Option{app.WithLogger(r.logger)}
	if r.httpClient != nil {
		opts = append(opts, app.WithHTTPClient(r.httpClient))
	}
	if r.providers != nil {
		opts = append(opts, app.WithProviders(r.providers...))
	}
	if r.store != nil {
		opts = append(opts, app.WithStore(r.store))
	}

	core, err := app.New(ctx, r.config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	r.core = core
	return core, nil
}

// Close releases the application core if one was built.
func (r *Runner) Close() error {
	if r.core == nil {
		return nil
	}
	return r.core.Close()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
