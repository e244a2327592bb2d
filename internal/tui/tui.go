// Package tui renders the interactive creation progress view on top of the
// vault engine's async task API.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tjdeveng/KeepTower-sub013/internal/logger"
	"github.com/tjdeveng/KeepTower-sub013/internal/vault"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

var ErrUserQuit = errors.New("cancelled by user")

type TUI struct {
	engine vault.Service
}

func New(engine vault.Service, _ *logger.Logger) (*TUI, error) {
	return &TUI{engine: engine}, nil
}

// RunCreate drives an async vault creation and renders each pipeline step as
// it completes. Ctrl+C cancels the context under the task; the view then
// waits for the pipeline to wind down before quitting, so no goroutine is
// left writing behind the terminal's back.
func (t *TUI) RunCreate(ctx context.Context, params models.CreationParams) (*models.CreationResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	task := t.engine.CreateAsync(ctx, params)

	finalModel, runErr := tea.NewProgram(newCreateModel(cancel, task, params.Path)).Run()
	if runErr != nil {
		return nil, runErr
	}

	result, ok := finalModel.(createModel)
	if !ok {
		return nil, tea.ErrProgramKilled
	}
	if result.quitByUser {
		return nil, ErrUserQuit
	}
	return task.Result()
}
