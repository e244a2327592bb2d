// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/vault"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// createModel renders the eight-step creation pipeline as a checklist that
// fills in as progress events arrive from the task's channel.
type createModel struct {
	cancel context.CancelFunc
	task   *vault.CreationTask
	path   string

	spinner    spinner.Model
	done       []models.StepProgress
	finished   bool
	err        error
	quitByUser bool
}

func newCreateModel(cancel context.CancelFunc, task *vault.CreationTask, path string) createModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return createModel{cancel: cancel, task: task, path: path, spinner: s}
}

// waitForStep blocks on the task's progress channel and converts one receive
// into a message. Update re-issues it after every step, so the channel is
// drained exactly as fast as the pipeline produces.
func waitForStep(task *vault.CreationTask) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-task.Progress()
		if !ok {
			return stepsDoneMsg{}
		}
		return stepMsg{progress: p}
	}
}

func waitForResult(task *vault.CreationTask) tea.Cmd {
	return func() tea.Msg {
		<-task.Done()
		result, err := task.Result()
		return creationDoneMsg{result: result, err: err}
	}
}

func (m createModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForStep(m.task), waitForResult(m.task))
}

func (m createModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.finished {
				return m, tea.Quit
			}
			// Cancel the pipeline but keep the program alive until the
			// task reports back, so the final state on screen is real.
			m.quitByUser = true
			m.cancel()
		}
		return m, nil

	case stepMsg:
		m.done = append(m.done, msg.progress)
		return m, waitForStep(m.task)

	case stepsDoneMsg:
		return m, nil

	case creationDoneMsg:
		m.finished = true
		m.err = msg.err
		if m.quitByUser && msg.err == nil && msg.result != nil {
			// Cancel arrived after the file was already written; nobody
			// will consume the result, so its key copy is erased here.
			crypto.Zero(msg.result.DEK)
		}
		return m, tea.Quit

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m createModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CREATE VAULT"))
	b.WriteString("\n")
	b.WriteString(m.path)
	b.WriteString("\n\n")

	for _, p := range m.done {
		fmt.Fprintf(&b, "✓ [%d/%d] %s\n", p.Step, p.Total, p.Description)
	}

	switch {
	case m.finished && m.quitByUser:
		b.WriteString("\nCancelled.\n")
	case m.finished && m.err != nil:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Creation failed: " + m.err.Error()))
		b.WriteString("\n")
	case m.finished:
		b.WriteString("\nVault written.\n")
	case m.quitByUser:
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" cancelling...\n")
	default:
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" working...\n")
	}

	if !m.finished {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("ctrl+c: cancel"))
	}
	return appStyle.Render(b.String())
}
