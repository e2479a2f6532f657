package cli

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	coreapp "javakg/internal/core/app"
)

// runUI shows a progress view while the run executes. Quitting the view
// cancels the run.
func runUI(ctx context.Context, app *coreapp.App) (*coreapp.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(initialModel(filepath.Base(app.Config.Source.Root)), tea.WithContext(ctx))

	app.SetProgressHandler(func(update coreapp.Progress) {
		p.Send(progressMsg(update))
	})
	defer app.SetProgressHandler(nil)

	done := make(chan runDoneMsg, 1)
	go func() {
		res, err := app.Run(ctx)
		msg := runDoneMsg{result: res, err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		slog.Warn("terminal view failed", "error", err)
	}
	cancel()
	out := <-done
	return out.result, out.err
}
