package sim

import (
	"github.com/ipu69/gen2sim/internal/des"
	"github.com/ipu69/gen2sim/internal/radio"
	"github.com/ipu69/gen2sim/pkg/gen2"
)

// ReaderParams is the resolved (symbolic strings already parsed into
// gen2 enums) configuration for the scene's single reader.
type ReaderParams struct {
	Position, Speed                radio.Position
	Q                               int
	M                               gen2.TagEncoding
	Sel                             gen2.Sel
	TRext                           bool
	DR                              gen2.DR
	Tari, RTcal, TRcal              float64
	Session                         gen2.Session
	Target                          gen2.InventoryFlag
	WordCnt                         int
	TxPower, CirculatorNoise        float64
}

// TagParams is the resolved configuration for one tag in the scene.
// EPC and Data are generated at construction time if left empty.
type TagParams struct {
	Position       radio.Position
	Sensitivity    float64
	EPCWordCnt     int
	ModulationLoss float64
	EPC            string
	Data           string
}

// ChannelParams selects and configures one channel variant per tag
// link. Exactly one of Constant/AWGN should be set.
type ChannelParams struct {
	ThermalNoise float64
	SpeedOfLight float64

	Constant *ConstantChannelParams
	AWGN     *AWGNChannelParams
}

// ConstantChannelParams configures radio.ConstantChannel.
type ConstantChannelParams struct {
	ConnectionDistance float64
	PathLossDB         float64
	NoconnPathLossDB   float64
	BER                float64
}

// AWGNChannelParams configures radio.AWGNChannel.
type AWGNChannelParams struct {
	Frequency float64
	Height    float64
}

// SceneParams is the fully-resolved configuration for one Scene:
// spec.md §6's scene/reader/tag/channel sections after symbolic fields
// have been parsed and validated.
type SceneParams struct {
	Reader                 ReaderParams
	Tags                   []TagParams
	Channel                ChannelParams
	MaxDistance            float64
	PositionUpdateInterval float64
	MaxNumRounds           int
	RecordReadTimestamps   bool
	Verbose                bool
}

func newChannel(p ChannelParams) radio.Channel {
	switch {
	case p.Constant != nil:
		return radio.NewConstantChannel(p.Constant.ConnectionDistance, p.Constant.PathLossDB, p.Constant.NoconnPathLossDB, p.Constant.BER)
	case p.AWGN != nil:
		return radio.NewAWGNChannel(p.AWGN.Frequency, p.AWGN.Height, p.SpeedOfLight)
	default:
		return radio.NewConstantChannel(11.0, -40.0, -200.0, 0.01)
	}
}

// NewSceneFromParams builds a Scene from resolved parameters: one
// reader, one independent (tag, channel) Link per p.Tags entry.
func NewSceneFromParams(p SceneParams, rng RNG) *Scene {
	reader := NewReader(
		p.Reader.Position, p.Reader.Speed,
		p.Reader.Q, p.Reader.M, p.Reader.Sel, p.Reader.TRext, p.Reader.DR,
		p.Reader.Tari, p.Reader.RTcal, p.Reader.TRcal,
		p.Reader.Session, p.Reader.Target, p.Reader.WordCnt,
		p.Reader.TxPower, p.Reader.CirculatorNoise,
	)

	links := make([]*Link, 0, len(p.Tags))
	for _, tp := range p.Tags {
		epc := tp.EPC
		if epc == "" {
			epc = randHexString(rng, tp.EPCWordCnt*4)
		}
		data := tp.Data
		if data == "" {
			data = randHexString(rng, p.Reader.WordCnt*4)
		}
		tag := NewTag(
			tp.Position, tp.Sensitivity, tp.ModulationLoss,
			epc, data,
			p.Reader.M, p.Reader.TRext, p.Reader.RTcal, p.Reader.TRcal, p.Reader.DR, p.Reader.Q,
		)
		channel := newChannel(p.Channel)
		state := radio.NewState(channel, p.Channel.ThermalNoise, p.Channel.SpeedOfLight)
		links = append(links, &Link{Tag: tag, Channel: channel, State: state})
	}

	return NewScene(reader, links, p.MaxDistance, p.PositionUpdateInterval, p.MaxNumRounds, p.RecordReadTimestamps, p.Verbose, rng)
}

// Run wires handlers onto a fresh Scheduler for scene, runs it to
// completion, and recovers any fatal error raised by a handler or by
// the scheduler itself (des.ScheduleError, ProtocolError), returning it
// as a normal error instead of a crash.
func Run(sc *Scene) (finalTime float64, err error) {
	scheduler := des.NewScheduler()
	scheduler.SetupContext(sc, nil)
	Bind(scheduler)

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	scheduler.Run()
	return scheduler.Time(), nil
}
