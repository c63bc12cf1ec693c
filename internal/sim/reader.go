package sim

import (
	"fmt"

	"github.com/ipu69/gen2sim/internal/radio"
	"github.com/ipu69/gen2sim/pkg/gen2"
)

// Reader states.
const (
	ReaderIdle = iota
	ReaderTX
	ReaderRX
)

// ReaderStateName renders a reader state for logging.
func ReaderStateName(state int) string {
	switch state {
	case ReaderIdle:
		return "IDLE"
	case ReaderTX:
		return "TX"
	case ReaderRX:
		return "RX"
	default:
		return fmt.Sprintf("?%d", state)
	}
}

// ReaderCommands is the fixed set of command frames a reader needs
// during a round, built once from its configuration so handlers never
// re-encode a frame on the hot path.
type ReaderCommands struct {
	Query    gen2.ReaderFrame
	QueryRep gen2.ReaderFrame
	Ack      gen2.ReaderFrame
	ReqRN    gen2.ReaderFrame
	Read     gen2.ReaderFrame
}

// RxOp is one frame arriving at the reader: started/finished timestamps
// and whether a collision or TX-state conflict has marked it broken.
// TagIndex identifies which (tag, channel) pair this RXOP originated
// from, used to attribute statistics and look up the right channel
// telemetry once the RXOP window closes.
type RxOp struct {
	Frame     gen2.TagFrame
	TagIndex  int
	StartedAt float64
	FinishAt  float64
	Broken    bool
}

// Reader is the Gen2 interrogator state machine: round/slot
// bookkeeping, in-flight TX/RX bookkeeping, and the derived timing and
// command set that follow from its configuration.
type Reader struct {
	Position radio.Position
	Speed    radio.Position

	Q       int
	M       gen2.TagEncoding
	Sel     gen2.Sel
	TRext   bool
	DR      gen2.DR
	Tari    float64
	RTcal   float64
	TRcal   float64
	Session gen2.Session
	Target  gen2.InventoryFlag
	WordCnt int
	TxPower float64
	CirculatorNoise float64

	State             int
	Slot              int
	PositionUpdatedAt float64
	NumRounds         int

	TxFrame  *gen2.ReaderFrame
	RXOps    []*RxOp
	RxEndsAt float64
	TxEndsAt float64

	EndOfTxEventID int64
	EndOfRxEventID int64
	NoReplyEventID int64

	BLF                   float64
	InterCommandInterval  float64
	NumSlots              int
	Commands              ReaderCommands
}

// NewReader derives a Reader's cached timing/frame state from its
// configuration, mirroring the original model's __post_init__.
func NewReader(
	position, speed radio.Position,
	q int, m gen2.TagEncoding, sel gen2.Sel, trext bool, dr gen2.DR,
	tari, rtcal, trcal float64, session gen2.Session, target gen2.InventoryFlag,
	wordcnt int, txPower, circulatorNoise float64,
) *Reader {
	r := &Reader{
		Position: position, Speed: speed,
		Q: q, M: m, Sel: sel, TRext: trext, DR: dr,
		Tari: tari, RTcal: rtcal, TRcal: trcal,
		Session: session, Target: target, WordCnt: wordcnt,
		TxPower: txPower, CirculatorNoise: circulatorNoise,
		EndOfTxEventID: -1, EndOfRxEventID: -1, NoReplyEventID: -1,
	}
	r.BLF = gen2.GetBLF(dr, trcal)
	r.InterCommandInterval = gen2.MaxT1(rtcal, r.BLF) + gen2.T3()
	r.NumSlots = 1 << uint(q)

	preamble := gen2.NewReaderPreamble(tari, rtcal, trcal)
	sync := gen2.NewReaderSync(tari, rtcal)

	r.Commands = ReaderCommands{
		Query:    gen2.NewReaderFrame(preamble, gen2.Query{Q: q, M: m, DR: dr, TRext: trext, Sel: sel, Session: session, Target: target}),
		QueryRep: gen2.NewReaderFrame(sync, gen2.QueryRep{Session: session}),
		Ack:      gen2.NewReaderFrame(sync, gen2.Ack{RN: 0xAAAA}),
		ReqRN:    gen2.NewReaderFrame(sync, gen2.ReqRN{RN: 0xAAAA, CRC16: 0xAAAA}),
		Read:     gen2.NewReaderFrame(sync, gen2.Read{Bank: gen2.BankUser, WordPtr: 0, WordCnt: wordcnt, RN: 0xAAAA, CRC16: 0xAAAA}),
	}
	return r
}

// UpdatePosition advances the reader's position along its velocity
// vector by the time elapsed since the last update.
func (r *Reader) UpdatePosition(time float64) {
	dt := time - r.PositionUpdatedAt
	r.Position.X += r.Speed.X * dt
	r.Position.Y += r.Speed.Y * dt
	r.Position.Z += r.Speed.Z * dt
	r.PositionUpdatedAt = time
}

// GetNextCommand decides the reader's next action given the reply just
// received: the bool reports whether the round is now complete (the
// reader has no slots left in the round after a Data reply).
func (r *Reader) GetNextCommand(reply gen2.Reply) (newRound bool, frame gen2.ReaderFrame, err error) {
	switch reply.(type) {
	case gen2.RN16:
		return false, r.Commands.Ack, nil
	case gen2.EPC:
		return false, r.Commands.ReqRN, nil
	case gen2.Handle:
		return false, r.Commands.Read, nil
	case gen2.Data:
		if r.Slot >= r.NumSlots {
			return true, gen2.ReaderFrame{}, nil
		}
		return false, r.Commands.QueryRep, nil
	default:
		return false, gen2.ReaderFrame{}, fmt.Errorf("sim: unexpected reply %T", reply)
	}
}

// StartRound resets the slot counter and bumps the round count. The
// caller must ensure the reader is IDLE first.
func (r *Reader) StartRound() {
	r.Slot = 1
	r.NumRounds++
}

// StartSlot advances to the next slot of the current round.
func (r *Reader) StartSlot() {
	r.Slot++
}

// HasNextSlot reports whether the round has slots left to run.
func (r *Reader) HasNextSlot() bool {
	return r.Slot < r.NumSlots
}
