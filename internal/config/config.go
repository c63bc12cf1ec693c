// Package config provides configuration types and loading for the
// Gen2 discrete-event simulator.
package config

import "github.com/ipu69/gen2sim/pkg/gen2"

// Config represents the complete application configuration: the scene
// under simulation, plus ambient output/logging settings.
type Config struct {
	Scene   SceneConfig    `mapstructure:"scene"`
	Reader  ReaderConfig   `mapstructure:"reader"`
	Tags    []TagConfig    `mapstructure:"tags"`
	Channel ChannelConfig  `mapstructure:"channel"`
	Outputs []OutputConfig `mapstructure:"outputs"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

// SceneConfig controls the overall pass: how long the reader's
// trajectory runs and what gets recorded along the way.
type SceneConfig struct {
	MaxDistance            float64 `mapstructure:"max_distance"`
	PositionUpdateInterval float64 `mapstructure:"position_update_interval"`
	MaxNumRounds           int     `mapstructure:"max_num_rounds"`
	RecordReadTimestamps   bool    `mapstructure:"record_read_timestamps"`
	Verbose                bool    `mapstructure:"verbose"`
	Seed                   int64   `mapstructure:"seed"`
	NumPasses              int     `mapstructure:"num_passes"`
}

// ReaderConfig is the reader's position, trajectory, and Gen2 protocol
// parameters — symbolic fields (M, Sel, DR, Session, Target) are
// strings here, resolved to gen2 enums by Resolve.
type ReaderConfig struct {
	Position        [3]float64 `mapstructure:"position"`
	Speed           [3]float64 `mapstructure:"speed"`
	Q               int        `mapstructure:"q"`
	M               string     `mapstructure:"m"`
	Sel             string     `mapstructure:"sel"`
	TRext           bool       `mapstructure:"trext"`
	DR              string     `mapstructure:"dr"`
	Tari            float64    `mapstructure:"tari"`
	RTcal           float64    `mapstructure:"rtcal"`
	TRcal           float64    `mapstructure:"trcal"`
	Session         string     `mapstructure:"session"`
	Target          string     `mapstructure:"target"`
	WordCnt         int        `mapstructure:"wordcnt"`
	TxPower         float64    `mapstructure:"tx_power"`
	CirculatorNoise float64    `mapstructure:"circulator_noise"`
}

// TagConfig is one tag's position and physical parameters. EPC and
// Data, left blank, are generated randomly at scene construction.
type TagConfig struct {
	Position       [3]float64 `mapstructure:"position"`
	Sensitivity    float64    `mapstructure:"sensitivity"`
	EPCWordCnt     int        `mapstructure:"epcid_wordcnt"`
	ModulationLoss float64    `mapstructure:"modulation_loss"`
	EPC            string     `mapstructure:"epc"`
	Data           string     `mapstructure:"data"`
}

// ChannelConfig is variant-tagged: Type selects Constant or AWGN, and
// only the matching sub-struct's fields apply.
type ChannelConfig struct {
	Type         string  `mapstructure:"type"` // constant, awgn
	ThermalNoise float64 `mapstructure:"thermal_noise"`
	SpeedOfLight float64 `mapstructure:"speed_of_light"`

	Constant ConstantChannelConfig `mapstructure:"constant"`
	AWGN     AWGNChannelConfig     `mapstructure:"awgn"`
}

// ConstantChannelConfig configures the constant-BER channel variant.
type ConstantChannelConfig struct {
	ConnectionDistance float64 `mapstructure:"connection_distance"`
	PathLoss           float64 `mapstructure:"path_loss"`
	NoconnPathLoss     float64 `mapstructure:"noconn_path_loss"`
	BER                float64 `mapstructure:"ber"`
}

// AWGNChannelConfig configures the free-space/AWGN channel variant.
type AWGNChannelConfig struct {
	Frequency float64 `mapstructure:"frequency"`
	Height    float64 `mapstructure:"height"`
}

// OutputConfig defines a single report sink destination.
type OutputConfig struct {
	Type    string                 `mapstructure:"type"` // stdout, file, mqtt
	Enabled bool                   `mapstructure:"enabled"`
	Options map[string]interface{} `mapstructure:",remain"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// DefaultConfig returns a configuration matching spec.md's defaults: a
// single tag, a constant channel, one pass, stdout JSON reporting.
func DefaultConfig() *Config {
	return &Config{
		Scene: SceneConfig{
			MaxDistance:            15.0,
			PositionUpdateInterval: 0.1,
			MaxNumRounds:           -1,
			Verbose:                false,
			Seed:                   1,
			NumPasses:              1,
		},
		Reader: ReaderConfig{
			Position:        [3]float64{0, 0, 10.0},
			Speed:           [3]float64{1.0, 0, 0},
			Q:               2,
			M:               "M2",
			Sel:             "All",
			DR:              "64/3",
			Tari:            6.25e-6,
			RTcal:           15.0e-6,
			TRcal:           20.0e-6,
			Session:         "S0",
			Target:          "A",
			WordCnt:         4,
			TxPower:         31.5,
			CirculatorNoise: -80.0,
		},
		Tags: []TagConfig{{
			Position:       [3]float64{0, 0, 0},
			Sensitivity:    -18.0,
			EPCWordCnt:     6,
			ModulationLoss: -10.0,
		}},
		Channel: ChannelConfig{
			Type:         "constant",
			ThermalNoise: -110.0,
			SpeedOfLight: 299792458.0,
			Constant: ConstantChannelConfig{
				ConnectionDistance: 11.0,
				PathLoss:           -40.0,
				NoconnPathLoss:     -200.0,
				BER:                0.01,
			},
			AWGN: AWGNChannelConfig{
				Frequency: 860e6,
				Height:    10.0,
			},
		},
		Outputs: []OutputConfig{{Type: "stdout", Enabled: true, Options: map[string]interface{}{"format": "json"}}},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Validate checks symbolic fields and structural invariants, returning
// a *gen2.ConfigError for any unrecognized symbolic value.
func (c *Config) Validate() error {
	if _, err := gen2.ParseTagEncoding(c.Reader.M); err != nil {
		return err
	}
	if _, err := gen2.ParseSel(c.Reader.Sel); err != nil {
		return err
	}
	if _, err := gen2.ParseDR(c.Reader.DR); err != nil {
		return err
	}
	if _, err := gen2.ParseSession(c.Reader.Session); err != nil {
		return err
	}
	if _, err := gen2.ParseInventoryFlag(c.Reader.Target); err != nil {
		return err
	}
	switch c.Channel.Type {
	case "constant", "awgn":
	default:
		return &gen2.ConfigError{Field: "channel.type", Value: c.Channel.Type}
	}
	if len(c.Tags) == 0 {
		return &gen2.ConfigError{Field: "tags", Value: "(empty)"}
	}
	for _, out := range c.Outputs {
		switch out.Type {
		case "stdout", "file", "mqtt":
		default:
			return &gen2.ConfigError{Field: "outputs[].type", Value: out.Type}
		}
	}
	return nil
}
