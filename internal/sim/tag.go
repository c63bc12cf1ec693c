package sim

import (
	"fmt"

	"github.com/ipu69/gen2sim/internal/radio"
	"github.com/ipu69/gen2sim/pkg/gen2"
)

// Tag states.
const (
	TagOff = iota
	TagReady
	TagArbitrate
	TagReply
	TagAcknowledged
)

// TagStateName renders a tag state for logging.
func TagStateName(state int) string {
	switch state {
	case TagOff:
		return "OFF"
	case TagReady:
		return "READY"
	case TagArbitrate:
		return "ARBITRATE"
	case TagReply:
		return "REPLY"
	case TagAcknowledged:
		return "ACKNOWLEDGED"
	default:
		return fmt.Sprintf("?%d", state)
	}
}

// TagReplies is the fixed set of reply frames a tag needs during a
// round, encoded once from its configuration.
type TagReplies struct {
	RN16   gen2.TagFrame
	EPCID  gen2.TagFrame
	Handle gen2.TagFrame
	Data   gen2.TagFrame
}

// Tag is the Gen2 transponder state machine: arbitration counter, the
// reply set it was built with, and in-flight TX/RX bookkeeping.
type Tag struct {
	Position radio.Position

	Sensitivity    float64
	ModulationLoss float64
	EPC            string
	Data           string
	T1             float64
	NumSlots       int
	Replies        TagReplies

	State    int
	Counter  int
	// SessionFlags holds this tag's inventoried flag (A/B) for each of
	// the four Gen2 sessions (S0..S3); a Query only recruits the tag
	// into a round if its Target matches the flag for its Session.
	SessionFlags [4]gen2.InventoryFlag
	TxFrame      *gen2.TagFrame
	RxFrame      *gen2.ReaderFrame
	TxEndsAt     float64
	RxEndsAt     float64

	TxStartEventID int64
	TxEndEventID   int64
	RxEndEventID   int64

	NumEPCIDSent     int
	NumEPCIDReceived int
	NumDataSent      int
	NumDataReceived  int
}

// NewTag derives a Tag's cached EPC/data payloads and reply frames from
// its own configuration and the reader parameters it will be talking
// to, mirroring the original model's __post_init__.
func NewTag(
	position radio.Position, sensitivity, modulationLoss float64,
	epc, data string,
	m gen2.TagEncoding, trext bool, rtcal, trcal float64, dr gen2.DR, q int,
) *Tag {
	t := &Tag{
		Position: position, Sensitivity: sensitivity, ModulationLoss: modulationLoss,
		EPC: epc, Data: data,
		TxStartEventID: -1, TxEndEventID: -1, RxEndEventID: -1,
	}
	blf := gen2.GetBLF(dr, trcal)
	t.T1 = gen2.NominalT1(rtcal, blf)
	t.NumSlots = 1 << uint(q)

	preamble := gen2.NewTagPreamble(m, trext, blf)
	t.Replies = TagReplies{
		RN16:   gen2.NewTagFrame(preamble, gen2.RN16{Value: 0xAAAA}),
		EPCID:  gen2.NewTagFrame(preamble, gen2.EPC{PC: 0, Epc: epc, CRC16: 0}),
		Handle: gen2.NewTagFrame(preamble, gen2.Handle{RN: 0xAAAA, CRC16: 0}),
		Data:   gen2.NewTagFrame(preamble, gen2.Data{Words: data, RN: 0, CRC16: 0}),
	}
	return t
}

// Powered reports whether the tag currently has power (not OFF).
func (t *Tag) Powered() bool {
	return t.State != TagOff
}

// PowerOn transitions the tag to READY and resets all four session
// flags to A, per spec.md's power_on rule.
func (t *Tag) PowerOn() {
	t.State = TagReady
	for i := range t.SessionFlags {
		t.SessionFlags[i] = gen2.FlagA
	}
}

// Matches reports whether a Query's (session, target) recruits this
// tag into the round: the query matches only if its target equals the
// tag's own flag for that session.
func (t *Tag) Matches(q gen2.Query) bool {
	return t.SessionFlags[q.Session] == q.Target
}

// randHexString returns n random hex digits drawn from rng, used to
// seed a tag's EPC and user-data payloads at scene construction time.
func randHexString(rng RNG, n int) string {
	const digits = "0123456789ABCDEF"
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[rng.Intn(16)]
	}
	return string(b)
}
