// Package radio implements the link model between a reader and a tag:
// time-indexed telemetry maps and the path-loss/BER variants that turn
// geometry into a frame survival probability for the protocol layer.
package radio

import "math"

const (
	// DefaultThermalNoise is the thermal noise floor in dBm.
	DefaultThermalNoise = -110.0
	// DefaultSpeedOfLight is c in m/s.
	DefaultSpeedOfLight = 299792458.0
)

// Dbm2W converts a power level in dBm to watts.
func Dbm2W(dbm float64) float64 {
	return math.Pow(10, dbm/10-3)
}

// W2Dbm converts a power level in watts to dBm. Values below -120dBm
// worth of power collapse to -Inf, mirroring the reference model's
// treatment of vanishingly small signals.
func W2Dbm(watt float64) float64 {
	if watt >= 1e-15 {
		return 10*math.Log10(watt) + 30
	}
	return math.Inf(-1)
}

// Db2Lin converts a ratio in dB to linear scale.
func Db2Lin(db float64) float64 {
	return math.Pow(10, db/10)
}

// Lin2Db converts a linear-scale ratio to dB, collapsing near-zero
// ratios to -Inf rather than a large negative number.
func Lin2Db(linear float64) float64 {
	if linear >= 1e-15 {
		return 10 * math.Log10(linear)
	}
	return math.Inf(-1)
}

// Signal2Noise computes the linear SNR from two power levels in dBm.
func Signal2Noise(rxPower, noisePower float64) float64 {
	return Db2Lin(rxPower - noisePower)
}

// qFunction is the Gaussian tail probability used by the AWGN BER model.
func qFunction(x float64) float64 {
	return 0.5 - 0.5*math.Erf(x/math.Sqrt2)
}

// BerOverAWGN computes the bit error rate of BPSK over an AWGN channel
// given the (possibly extended) SNR.
func BerOverAWGN(snr float64) float64 {
	t := qFunction(math.Sqrt(snr))
	return 2 * t * (1 - t)
}

// DipoleRP returns a dipole antenna's directional gain at the given
// azimuth.
func DipoleRP(azimuth float64) float64 {
	c := math.Cos(azimuth)
	s := math.Sin(azimuth)
	if c > 1e-9 {
		return math.Abs(math.Cos(math.Pi/2*s) / c)
	}
	return 0.0
}

// FreeSpacePathLoss computes the free-space signal attenuation between
// a reader at the given height above a tag at distance d, for a signal
// of wavelength wavelen, in linear scale. Both ends use a dipole-like
// radiation pattern.
func FreeSpacePathLoss(distance, height, wavelen float64) float64 {
	alpha := math.Acos(height / distance)
	g := DipoleRP(alpha) * DipoleRP(alpha)
	k := wavelen / (4 * math.Pi * distance)
	return g * k * k
}

// TimeValueMap is an append-only sequence of (time, value) samples with
// a configurable default for queries before the first recorded sample.
type TimeValueMap struct {
	time    []float64
	values  []float64
	deflt   float64
}

// NewTimeValueMap returns an empty map that answers deflt until the
// first Record call.
func NewTimeValueMap(deflt float64) *TimeValueMap {
	return &TimeValueMap{deflt: deflt}
}

// Record appends a new (time, value) sample. Callers are expected to
// record in non-decreasing time order, as Get and GetMin rely on it.
func (m *TimeValueMap) Record(time, value float64) {
	m.time = append(m.time, time)
	m.values = append(m.values, value)
}

// Len returns the number of recorded samples.
func (m *TimeValueMap) Len() int { return len(m.time) }

// Last returns the most recently recorded value, or the default if
// nothing has been recorded yet.
func (m *TimeValueMap) Last() float64 {
	if len(m.values) == 0 {
		return m.deflt
	}
	return m.values[len(m.values)-1]
}

// Get returns the most recently recorded value at or before time,
// searching from the tail since recent queries dominate in practice.
func (m *TimeValueMap) Get(time float64) float64 {
	for i := len(m.time) - 1; i >= 0; i-- {
		if m.time[i] <= time {
			return m.values[i]
		}
	}
	return m.deflt
}

// GetMin returns the minimum recorded value over samples whose
// timestamp falls in a window starting at or before t1 and ending at
// or after t0 (t0 <= t1); the default if no sample qualifies.
func (m *TimeValueMap) GetMin(t0, t1 float64) float64 {
	if len(m.time) == 0 {
		return m.deflt
	}
	if t0 >= m.time[len(m.time)-1] {
		return m.values[len(m.values)-1]
	}

	i1 := 0
	for i := len(m.time) - 1; i >= 0; i-- {
		if m.time[i] <= t1 {
			i1 = i + 1
			break
		}
	}

	i0 := -1
	for i := i1 - 1; i >= 0; i-- {
		if m.time[i] <= t0 {
			i0 = i
			break
		}
	}
	if i0 < 0 {
		return m.deflt
	}

	min := m.values[i0]
	for _, v := range m.values[i0:i1] {
		if v < min {
			min = v
		}
	}
	return min
}

// Position is a point in 3D space.
type Position struct {
	X, Y, Z float64
}

// Distance returns the Euclidean distance between two positions.
func Distance(a, b Position) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// LinkEndpoint is the minimal set of properties a Channel needs from
// the reader and tag at each end of the link to update its telemetry.
type LinkEndpoint struct {
	Position       Position
	TxPower        float64 // dBm, reader only
	ModulationLoss float64 // dB, tag only
	CirculatorNoise float64 // dBm, reader only
}

// Channel is the capability every path-loss/BER variant implements:
// turn distance into path loss, and SNR into a bit error rate.
type Channel interface {
	PathLoss(distance float64) float64
	BER(snr float64) float64
}

// State holds one (reader, tag) pair's running telemetry: every map
// spec.md names, plus the cached reader noise floor.
type State struct {
	ThermalNoise  float64
	SpeedOfLight  float64
	channel       Channel

	DistanceMap     *TimeValueMap
	DxMap           *TimeValueMap
	DyMap           *TimeValueMap
	DzMap           *TimeValueMap
	PathLossMap     *TimeValueMap
	TagRxPowerMap   *TimeValueMap
	TagTxPowerMap   *TimeValueMap
	ReaderRxPowerMap *TimeValueMap
	SNRMap          *TimeValueMap
	BERMap          *TimeValueMap

	readerNoiseWatt float64
	readerNoiseDbm  float64
	noiseCached     bool
}

// NewState wraps a Channel variant with a fresh set of telemetry maps.
func NewState(channel Channel, thermalNoise, speedOfLight float64) *State {
	return &State{
		ThermalNoise: thermalNoise,
		SpeedOfLight: speedOfLight,
		channel:      channel,

		DistanceMap:      NewTimeValueMap(0),
		DxMap:            NewTimeValueMap(math.Inf(1)),
		DyMap:            NewTimeValueMap(math.Inf(1)),
		DzMap:            NewTimeValueMap(math.Inf(1)),
		PathLossMap:      NewTimeValueMap(math.Inf(-1)),
		TagRxPowerMap:    NewTimeValueMap(math.Inf(-1)),
		TagTxPowerMap:    NewTimeValueMap(math.Inf(-1)),
		ReaderRxPowerMap: NewTimeValueMap(math.Inf(-1)),
		SNRMap:           NewTimeValueMap(0),
		BERMap:           NewTimeValueMap(1.0),
	}
}

// UpdatePower records a new telemetry sample at time, deriving distance,
// path loss, and the reader/tag power chain from the reader and tag
// endpoints, and caching the reader's noise floor on first use.
func (s *State) UpdatePower(time float64, reader, tag LinkEndpoint) {
	d := Distance(reader.Position, tag.Position)
	s.DistanceMap.Record(time, d)
	s.DxMap.Record(time, reader.Position.X-tag.Position.X)
	s.DyMap.Record(time, reader.Position.Y-tag.Position.Y)
	s.DzMap.Record(time, reader.Position.Z-tag.Position.Z)

	pl := s.channel.PathLoss(d)
	tagRx := reader.TxPower + pl
	tagTx := tagRx + tag.ModulationLoss
	readerRx := tagTx + pl

	s.TagTxPowerMap.Record(time, tagTx)
	s.TagRxPowerMap.Record(time, tagRx)
	s.ReaderRxPowerMap.Record(time, readerRx)
	s.PathLossMap.Record(time, pl)

	if !s.noiseCached {
		s.readerNoiseWatt = Dbm2W(reader.CirculatorNoise) + Dbm2W(s.ThermalNoise)
		s.readerNoiseDbm = W2Dbm(s.readerNoiseWatt)
		s.noiseCached = true
	}

	snr := Signal2Noise(readerRx, s.readerNoiseDbm)
	s.SNRMap.Record(time, snr)

	ber := s.channel.BER(snr)
	s.BERMap.Record(time, ber)
}

// ConstantChannel is a fixed-BER channel with a hard connection-range
// cutoff: within connectionDistance the path loss is a constant dB
// figure, beyond it the link is effectively disconnected.
type ConstantChannel struct {
	ConnectionDistance float64
	PathLossDB         float64
	NoconnPathLossDB   float64
	Ber                float64
}

// NewConstantChannel returns a constant channel with the given parameters.
func NewConstantChannel(connectionDistance, pathLossDB, noconnPathLossDB, ber float64) *ConstantChannel {
	return &ConstantChannel{
		ConnectionDistance: connectionDistance,
		PathLossDB:         pathLossDB,
		NoconnPathLossDB:   noconnPathLossDB,
		Ber:                ber,
	}
}

func (c *ConstantChannel) PathLoss(d float64) float64 {
	if d <= c.ConnectionDistance {
		return c.PathLossDB
	}
	return c.NoconnPathLossDB
}

func (c *ConstantChannel) BER(snr float64) float64 {
	if snr < 0.5 {
		return 1.0
	}
	return c.Ber
}

// AWGNChannel is a free-space-path-loss, additive-white-Gaussian-noise
// channel: path loss follows the dipole-pattern free-space formula, and
// BER follows the BPSK-over-AWGN Q-function model.
type AWGNChannel struct {
	Frequency    float64 // Hz
	Height       float64 // reader mount height, m
	SpeedOfLight float64
}

// NewAWGNChannel returns an AWGN channel with the given carrier
// frequency and reader mount height.
func NewAWGNChannel(frequency, height, speedOfLight float64) *AWGNChannel {
	return &AWGNChannel{Frequency: frequency, Height: height, SpeedOfLight: speedOfLight}
}

func (c *AWGNChannel) PathLoss(d float64) float64 {
	wavelen := c.SpeedOfLight / c.Frequency
	return Lin2Db(FreeSpacePathLoss(d, c.Height, wavelen))
}

func (c *AWGNChannel) BER(snr float64) float64 {
	return BerOverAWGN(snr)
}
