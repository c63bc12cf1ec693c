package des

import "fmt"

// ScheduleError reports a simulated-time invariant breach: a handler
// tried to schedule an event before the scheduler's current time (a
// negative delay). The kernel itself has no notion of a "valid"
// domain error taxonomy — it panics with this type and leaves
// deciding whether/how to recover it to the caller of Run.
type ScheduleError struct {
	Code Code
	Now  float64
	At   float64
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("des: cannot schedule code %d at %.9f: current time is %.9f", e.Code, e.At, e.Now)
}
