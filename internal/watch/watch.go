package watch

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ipu69/gen2sim/internal/sim"
)

// Run drives sc's pass to completion while rendering a live bubbletea
// view of its progress: reader state, slot/round counters, and running
// tag statistics, refreshed from the scene's Observer hook. The
// simulation itself runs single-threaded on its own goroutine exactly
// as sim.Run always runs it; the TUI only ever reads Snapshot values
// handed to it over a channel, never Scene's live fields.
func Run(sc *sim.Scene) (float64, error) {
	updates := make(chan sim.Snapshot, 1)
	sc.Observer = func(snap sim.Snapshot) {
		select {
		case updates <- snap:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- snap
		}
	}

	// modelDone feeds the TUI's own doneMsg; finalDone is read by this
	// function after the program exits. Both are written once by the
	// same goroutine so neither consumer can starve the other.
	modelDone := make(chan runResult, 1)
	finalDone := make(chan runResult, 1)
	go func() {
		t, err := sim.Run(sc)
		r := runResult{finalTime: t, err: err}
		modelDone <- r
		finalDone <- r
		close(updates)
	}()

	program := tea.NewProgram(newModel(updates, modelDone), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return 0, fmt.Errorf("watch: run live view: %w", err)
	}

	r := <-finalDone
	return r.finalTime, r.err
}
