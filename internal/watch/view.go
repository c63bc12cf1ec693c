package watch

import (
	"fmt"
	"strings"
	"time"
)

//nolint:gocritic // hugeParam: model must be value receiver to implement tea.Model interface
func (m model) View() string {
	if m.quitting {
		return "\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Gen2 air-interface pass"))
	b.WriteString("\n")

	if m.finished {
		if m.result.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("aborted: %v", m.result.err)))
		} else {
			b.WriteString(doneStyle.Render(fmt.Sprintf("pass complete at t=%.6fs", m.result.finalTime)))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(m.spinner.View() + " running…\n")
	}

	stats := fmt.Sprintf(
		"%s %s  %s %s  %s %d/%d  %s %d  %s %d  %s %d  %s %d",
		statLabelStyle.Render("t="), statValueStyle.Render(fmt.Sprintf("%.6fs", m.last.Time)),
		statLabelStyle.Render("reader="), statValueStyle.Render(m.last.ReaderState),
		statLabelStyle.Render("slot="), m.last.Slot, m.last.NumSlots,
		statLabelStyle.Render("round="), m.last.NumRounds,
		statLabelStyle.Render("collisions="), m.last.NumCollisions,
		statLabelStyle.Render("tags_on="), m.last.TagsOn,
		statLabelStyle.Render("reads="), m.last.TagsReadTotal,
	)
	b.WriteString(boxStyle.Render(stats))
	b.WriteString("\n")

	uptime := time.Since(m.startedAt).Round(time.Second)
	b.WriteString(helpStyle.Render(fmt.Sprintf("elapsed %s · q: quit", uptime)))

	return b.String()
}
