package sim

import "github.com/ipu69/gen2sim/internal/radio"

// RoundRecord summarizes one completed inventory round, appended to
// Scene.Rounds as rounds finish.
type RoundRecord struct {
	Index         int
	TStart        float64
	TFinish       float64
	TagsOn        int
	TagsTurnedOff int
	TagsRead      int
}

// Link pairs one tag with the channel state modeling its link to the
// shared reader. Scene holds a slice of these instead of a single tag,
// generalizing the single-tag model to the multi-tag scenarios named
// in its test scenarios (a reader passing several tags on a circle, or
// two tags colliding in the same slot).
type Link struct {
	Tag     *Tag
	Channel radio.Channel
	State   *radio.State

	ReadTimestamps []float64
}

// Scene orchestrates one reader against a set of independent tag
// links: it owns the reader, every link, and the running statistics
// produced as the pass unfolds.
type Scene struct {
	Reader *Reader
	Links  []*Link

	MaxDistance             float64
	PositionUpdateInterval  float64
	MaxNumRounds            int
	RecordReadTimestamps    bool
	Verbose                 bool

	RNG RNG

	Rounds        []RoundRecord
	NumCollisions int

	// Observer, when set, is invoked after every position update and
	// every completed round with a snapshot of the scene's running
	// state — the hook through which a live-view frontend (internal/watch)
	// receives updates instead of reading Scene fields directly from
	// another goroutine.
	Observer func(Snapshot)

	currentRoundStart float64
	tagsReadThisRound int
}

// Snapshot is a point-in-time view of a running Scene, safe to copy and
// hand to a renderer: no pointers into Scene's live state.
type Snapshot struct {
	Time          float64
	ReaderState   string
	Slot          int
	NumSlots      int
	NumRounds     int
	NumCollisions int
	TagsOn        int
	TagsOff       int
	TagsReadTotal int
}

// snapshot builds a Snapshot of the scene's current state at the given
// simulated time.
func (s *Scene) snapshot(time float64) Snapshot {
	tagsOn, tagsOff, read := 0, 0, 0
	for _, link := range s.Links {
		if link.Tag.Powered() {
			tagsOn++
		} else {
			tagsOff++
		}
		read += link.Tag.NumDataReceived
	}
	return Snapshot{
		Time:          time,
		ReaderState:   ReaderStateName(s.Reader.State),
		Slot:          s.Reader.Slot,
		NumSlots:      s.Reader.NumSlots,
		NumRounds:     s.Reader.NumRounds,
		NumCollisions: s.NumCollisions,
		TagsOn:        tagsOn,
		TagsOff:       tagsOff,
		TagsReadTotal: read,
	}
}

// notify pushes a fresh Snapshot to Observer, if one is set.
func (s *Scene) notify(time float64) {
	if s.Observer != nil {
		s.Observer(s.snapshot(time))
	}
}

// NewScene builds a Scene from an already-constructed reader and set
// of links.
func NewScene(reader *Reader, links []*Link, maxDistance, positionUpdateInterval float64, maxNumRounds int, recordReadTimestamps, verbose bool, rng RNG) *Scene {
	return &Scene{
		Reader:                 reader,
		Links:                  links,
		MaxDistance:            maxDistance,
		PositionUpdateInterval: positionUpdateInterval,
		MaxNumRounds:           maxNumRounds,
		RecordReadTimestamps:   recordReadTimestamps,
		Verbose:                verbose,
		RNG:                    rng,
	}
}

// AllTagsOutOfRange reports whether the reader has moved beyond
// MaxDistance of every tag — the multi-tag generalization of the
// original single-tag "reader left" distance check.
func (s *Scene) AllTagsOutOfRange() bool {
	for _, link := range s.Links {
		if radio.Distance(s.Reader.Position, link.Tag.Position) < s.MaxDistance {
			return false
		}
	}
	return true
}
