package sim

import (
	"testing"

	"github.com/ipu69/gen2sim/internal/des"
	"github.com/ipu69/gen2sim/internal/radio"
	"github.com/ipu69/gen2sim/pkg/gen2"
)

func newTestReader(q int) *Reader {
	return NewReader(
		radio.Position{}, radio.Position{},
		q, gen2.FM0, gen2.SelAll, false, gen2.DR8,
		6.25e-6, 15.0e-6, 20.0e-6, gen2.S0, gen2.FlagA,
		4, 31.5, -80.0,
	)
}

func newTestTag(sensitivity float64, q int) *Tag {
	tag := NewTag(
		radio.Position{}, sensitivity, -10.0,
		"AAAAAAAAAAAAAAAAAAAAAAAA", "AAAAAAAA",
		gen2.FM0, false, 15.0e-6, 20.0e-6, gen2.DR8, q,
	)
	return tag
}

func newTestLink(tag *Tag) *Link {
	channel := radio.NewConstantChannel(11.0, -40.0, -200.0, 0.0)
	state := radio.NewState(channel, radio.DefaultThermalNoise, radio.DefaultSpeedOfLight)
	return &Link{Tag: tag, Channel: channel, State: state}
}

// TestRoundAlgebra is property 7: num_slots = 2^Q, and a complete round
// with no replies emits exactly num_slots reader commands (1 Query +
// (num_slots-1) QueryReps). A tag whose sensitivity can never be
// reached stays OFF for the whole run, so no reply ever interrupts the
// slot sequence; bounding the scene to one round isolates exactly that
// sequence's command count.
func TestRoundAlgebra(t *testing.T) {
	const q = 2
	wantSlots := 1 << q

	tag := newTestTag(1000.0, q) // unreachable sensitivity: tag never powers on
	link := newTestLink(tag)

	sc := NewScene(newTestReader(q), []*Link{link}, 1000.0, 1.0, 1, false, false, NewRNG(1))

	scheduler := des.NewScheduler()
	scheduler.SetupContext(sc, nil)
	Bind(scheduler)

	txEnds := 0
	scheduler.Bind(EvReaderTxEnd, des.EmptyHandler(func(ctx *des.Context) {
		txEnds++
	}), des.SpecEmpty)

	scheduler.Run()

	if sc.Reader.NumSlots != wantSlots {
		t.Fatalf("NumSlots = %d, want %d", sc.Reader.NumSlots, wantSlots)
	}
	if txEnds != wantSlots {
		t.Fatalf("reader emitted %d commands during the round, want %d (1 Query + %d QueryRep)", txEnds, wantSlots, wantSlots-1)
	}
}

// TestCollisionGuaranteedSingleSlot is S2: two tags within range with
// Q=0 (a single slot) always draw the same counter (0), so every round
// collides and neither tag is ever read.
func TestCollisionGuaranteedSingleSlot(t *testing.T) {
	const q = 0

	tagA := newTestTag(-20.0, q)
	tagB := newTestTag(-20.0, q)
	linkA := newTestLink(tagA)
	linkB := newTestLink(tagB)

	sc := NewScene(newTestReader(q), []*Link{linkA, linkB}, 1000.0, 1.0, 3, false, false, NewRNG(7))

	scheduler := des.NewScheduler()
	scheduler.SetupContext(sc, nil)
	Bind(scheduler)

	scheduler.Run()

	if sc.NumCollisions < 1 {
		t.Fatalf("NumCollisions = %d, want at least 1", sc.NumCollisions)
	}
	if tagA.NumDataReceived != 0 || tagB.NumDataReceived != 0 {
		t.Fatalf("expected both tags to be read 0 times, got A=%d B=%d", tagA.NumDataReceived, tagB.NumDataReceived)
	}
}

// TestPowerOffMidReplyAbortsRX is S3: a tag powered off mid-transmission
// leaves a broken RXOP behind; the reader must recover through
// READER_ABORT_RX into a fresh READER_NO_REPLY wait rather than getting
// stuck in RX or crashing on the now-powered-off tag's index.
func TestPowerOffMidReplyAbortsRX(t *testing.T) {
	tag := newTestTag(-20.0, 0)
	tag.State = TagReply
	link := newTestLink(tag)

	sc := NewScene(newTestReader(0), []*Link{link}, 1000.0, 1.0, -1, false, false, NewRNG(1))

	scheduler := des.NewScheduler()
	scheduler.SetupContext(sc, nil)
	ctx := scheduler.Context()

	sendReply(ctx, 0, tag.Replies.RN16)
	readerRxStart(ctx, 0, tag.Replies.RN16)

	if sc.Reader.State != ReaderRX {
		t.Fatalf("reader state = %v, want RX after RXOP starts", ReaderStateName(sc.Reader.State))
	}

	tagPowerOffLink(ctx, 0)
	if tag.State != TagOff {
		t.Fatalf("tag state = %v, want OFF", TagStateName(tag.State))
	}

	readerAbortRx(ctx, 0)

	if sc.Reader.State != ReaderIdle {
		t.Fatalf("reader state = %v, want IDLE after aborting a broken RXOP", ReaderStateName(sc.Reader.State))
	}
	if len(sc.Reader.RXOps) != 0 {
		t.Fatalf("RXOps not cleared after abort: %v", sc.Reader.RXOps)
	}
	if sc.Reader.NoReplyEventID < 0 {
		t.Fatalf("expected a READER_NO_REPLY event to be scheduled after the abort")
	}
}

// TestZeroBerNonOverlappingWindowsSeparatePasses adapts S1 to this
// model's linear (not circular) reader motion: tags spaced far enough
// apart that only one is ever within connection_distance at a time
// guarantees zero collisions deterministically, and a wide-enough
// per-tag window makes at least one successful read overwhelmingly
// likely for any seed. Because switch_target is not implemented (see
// DESIGN.md), a tag already read keeps matching subsequent rounds as
// long as it stays in range, so this does not assert "read exactly
// twice" the way the original scenario does over a circular orbit —
// only the invariants that hold independent of that design choice.
func TestZeroBerNonOverlappingWindowsSeparatePasses(t *testing.T) {
	const q = 2
	const connectionDistance = 2.0
	const height = 1.0
	const spacing = 10.0

	buildScene := func(seed int64) *Scene {
		reader := newTestReader(q)
		reader.Position = radio.Position{X: -1, Y: 0, Z: height}
		reader.Speed = radio.Position{X: 2, Y: 0, Z: 0}

		var links []*Link
		for i := 0; i < 3; i++ {
			tag := newTestTag(-20.0, q)
			tag.Position = radio.Position{X: float64(i) * spacing, Y: 0, Z: 0}
			channel := radio.NewConstantChannel(connectionDistance, -40.0, -200.0, 0.0)
			state := radio.NewState(channel, radio.DefaultThermalNoise, radio.DefaultSpeedOfLight)
			links = append(links, &Link{Tag: tag, Channel: channel, State: state})
		}

		return NewScene(reader, links, 3.0, 0.05, -1, false, false, NewRNG(seed))
	}

	for pass := 0; pass < 2; pass++ {
		sc := buildScene(int64(pass))
		if _, err := Run(sc); err != nil {
			t.Fatalf("pass %d: Run failed: %v", pass, err)
		}
		if sc.NumCollisions != 0 {
			t.Fatalf("pass %d: NumCollisions = %d, want 0 (tags are spaced beyond the connection window)", pass, sc.NumCollisions)
		}
	}
}
