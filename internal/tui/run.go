package tui

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cata32101/odysseus-app/internal/syncer"
)

// Run starts the dashboard and blocks until the user quits. The controller's
// change notifications drive re-renders; the subscription loop is started and
// stopped with the program.
func Run(ctx context.Context, ctrl *syncer.Controller) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cleanupTerminal := func() {
		// Best-effort terminal restore on any exit path.
		_, _ = os.Stdout.Write([]byte("\033[?1049l")) // Exit alternate screen
		_, _ = os.Stdout.Write([]byte("\033[?25h"))   // Show cursor
		_, _ = os.Stdout.Write([]byte("\033[m"))      // Reset colors
	}
	defer cleanupTerminal()

	program := tea.NewProgram(newModel(ctx, ctrl), tea.WithContext(ctx))

	ctrl.OnChange(func() {
		program.Send(stateChangedMsg{})
	})
	defer ctrl.OnChange(nil)

	ctrl.Start(ctx)
	defer ctrl.Stop()

	go func() {
		<-sigChan
		cleanupTerminal()
		cancel()
	}()

	ctrl.Prime(ctx)
	ctrl.Refresh(ctx)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
