package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/nguyentayninh0710/mpx/internal/repositories"
	"github.com/nguyentayninh0710/mpx/internal/services"
	"github.com/nguyentayninh0710/mpx/internal/session"
	"github.com/nguyentayninh0710/mpx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *services.MusicPlayerService
	raw        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// lazily opened, shared across actions within a run
	db    *sql.DB
	guard *session.Guard
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	API        *services.MusicPlayerService
	Raw        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}
	if opts.API == nil {
		opts.API = services.NewMusicPlayerService(opts.Config.API.BaseURL, opts.HTTPClient)
	}
	if opts.Raw == nil {
		opts.Raw = services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		api:        opts.API,
		raw:        opts.Raw,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when a TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	fns := []func(*Runner) *cli.Command{
		setupCommand,
		authCommand,
		songsCommand,
		apiCommand,
		tuiCommand,
	}

	commands := make([]*cli.Command, 0, len(fns))
	for _, fn := range fns {
		commands = append(commands, fn(r))
	}
	return commands
}

// database opens (and migrates) the configured database once per run.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	// Migrations are idempotent, so commands work without an explicit setup run.
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	return db, nil
}

// session builds the token guard over the persistent store once per run.
func (r *Runner) session() (*session.Guard, error) {
	if r.guard != nil {
		return r.guard, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	store := session.NewStore(repositories.NewSessionKV(db))
	r.guard = session.NewGuard(session.GuardOpts{
		Store:  store,
		API:    r.api,
		Logger: r.logger,
		Leeway: r.config.Session.Leeway(),
		Redirect: func(origin string) {
			r.logger.Debug("session redirect", "origin", origin)
			// An explicit logout prints its own confirmation.
			if origin == "logout" {
				return
			}
			r.writePlain("✗ Session expired (%s). Run 'mpx auth login' to sign in again.\n", origin)
		},
	})

	return r.guard, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
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
