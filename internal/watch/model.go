package watch

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ipu69/gen2sim/internal/sim"
)

// runResult is what the background simulation goroutine reports back
// once the scheduler drains: the final sim time and any fatal error.
type runResult struct {
	finalTime float64
	err       error
}

// model is the bubbletea model for a running pass: the latest snapshot
// pushed by the scene's Observer hook, plus whether the pass has
// finished.
type model struct {
	updates <-chan sim.Snapshot
	done    <-chan runResult

	spinner spinner.Model
	width   int

	startedAt time.Time
	last      sim.Snapshot
	finished  bool
	result    runResult
	quitting  bool
}

func newModel(updates <-chan sim.Snapshot, done <-chan runResult) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return model{
		updates:   updates,
		done:      done,
		spinner:   s,
		startedAt: time.Now(),
	}
}

type snapMsg sim.Snapshot
type doneMsg runResult

func waitForSnapshot(updates <-chan sim.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapMsg(snap)
	}
}

func waitForDone(done <-chan runResult) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-done
		if !ok {
			return nil
		}
		return doneMsg(r)
	}
}

//nolint:gocritic // hugeParam: model must be value receiver to implement tea.Model interface
func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.updates), waitForDone(m.done))
}
