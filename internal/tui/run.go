package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/toxref/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the browser until the user quits or ctx is cancelled.
func Run(ctx context.Context, records []model.ClassificationRecord, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	p := tea.NewProgram(New(records, opts...), programOpts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
