package sim

import "fmt"

// ProtocolError reports a reader or tag command/reply received while
// its state machine was in a state that does not expect it. It is
// fatal: a correct protocol implementation never produces one. Schedule
// invariant breaches (negative-delay scheduling) surface as
// *des.ScheduleError instead, raised by the kernel itself.
type ProtocolError struct {
	State   string
	Command string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("sim: protocol error: command %q received in state %q", e.Command, e.State)
}
