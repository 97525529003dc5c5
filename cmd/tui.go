package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nguyentayninh0710/mpx/internal/repositories"
	"github.com/nguyentayninh0710/mpx/internal/shared"
	"github.com/nguyentayninh0710/mpx/internal/tasks"
	"github.com/nguyentayninh0710/mpx/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// TUI launches the interactive catalogue browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/mpx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	repo := repositories.NewSongRepository(db)
	limiter := rate.NewLimiter(rate.Limit(4), 1)
	engine := tasks.NewLibraryEngine(r.api, repo, limiter)

	model := ui.NewModel(ctx, repo, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
