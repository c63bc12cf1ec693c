package sim

import "github.com/ipu69/gen2sim/internal/des"

// Event kinds, the closed enumeration driving the scheduler. Multi-tag
// events (everything touching a single tag/channel pair) are dispatched
// with the tag's index into Scene.Links as the event's index field, so
// one Reader can broadcast to many tags without per-tag event codes.
const (
	EvReaderLeft des.Code = iota
	EvUpdatePositions
	EvStartRound
	EvReaderTxEnd
	EvReaderRxStart
	EvReaderRxEnd
	EvSendCommand
	EvReaderAbortRx
	EvReaderNoReply
	EvSendReply
	EvTagTxEnd
	EvTagRxStart
	EvTagRxEnd
	EvTagPowerOn
	EvTagPowerOff
)
