package config

import (
	"github.com/spf13/viper"

	"github.com/ipu69/gen2sim/internal/radio"
	"github.com/ipu69/gen2sim/internal/sim"
	"github.com/ipu69/gen2sim/pkg/gen2"
)

// Load reads the configuration from viper and returns a Config struct.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("scene.max_distance") {
		cfg.Scene.MaxDistance = viper.GetFloat64("scene.max_distance")
	}
	if viper.IsSet("scene.position_update_interval") {
		cfg.Scene.PositionUpdateInterval = viper.GetFloat64("scene.position_update_interval")
	}
	if viper.IsSet("scene.max_num_rounds") {
		cfg.Scene.MaxNumRounds = viper.GetInt("scene.max_num_rounds")
	}
	cfg.Scene.RecordReadTimestamps = viper.GetBool("scene.record_read_timestamps")
	cfg.Scene.Verbose = viper.GetBool("scene.verbose")
	if viper.IsSet("scene.seed") {
		cfg.Scene.Seed = viper.GetInt64("scene.seed")
	}
	if n := viper.GetInt("scene.num_passes"); n > 0 {
		cfg.Scene.NumPasses = n
	}

	if viper.IsSet("reader.position") {
		cfg.Reader.Position = toVec3(viper.Get("reader.position"), cfg.Reader.Position)
	}
	if viper.IsSet("reader.speed") {
		cfg.Reader.Speed = toVec3(viper.Get("reader.speed"), cfg.Reader.Speed)
	}
	if viper.IsSet("reader.q") {
		cfg.Reader.Q = viper.GetInt("reader.q")
	}
	if s := viper.GetString("reader.m"); s != "" {
		cfg.Reader.M = s
	}
	if s := viper.GetString("reader.sel"); s != "" {
		cfg.Reader.Sel = s
	}
	cfg.Reader.TRext = viper.GetBool("reader.trext")
	if s := viper.GetString("reader.dr"); s != "" {
		cfg.Reader.DR = s
	}
	if viper.IsSet("reader.tari") {
		cfg.Reader.Tari = viper.GetFloat64("reader.tari")
	}
	if viper.IsSet("reader.rtcal") {
		cfg.Reader.RTcal = viper.GetFloat64("reader.rtcal")
	}
	if viper.IsSet("reader.trcal") {
		cfg.Reader.TRcal = viper.GetFloat64("reader.trcal")
	}
	if s := viper.GetString("reader.session"); s != "" {
		cfg.Reader.Session = s
	}
	if s := viper.GetString("reader.target"); s != "" {
		cfg.Reader.Target = s
	}
	if viper.IsSet("reader.wordcnt") {
		cfg.Reader.WordCnt = viper.GetInt("reader.wordcnt")
	}
	if viper.IsSet("reader.tx_power") {
		cfg.Reader.TxPower = viper.GetFloat64("reader.tx_power")
	}
	if viper.IsSet("reader.circulator_noise") {
		cfg.Reader.CirculatorNoise = viper.GetFloat64("reader.circulator_noise")
	}

	if tagsRaw, ok := viper.Get("tags").([]interface{}); ok && len(tagsRaw) > 0 {
		template := cfg.Tags[0]
		cfg.Tags = make([]TagConfig, 0, len(tagsRaw))
		for _, raw := range tagsRaw {
			m, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			tag := template
			if v, ok := m["position"]; ok {
				tag.Position = toVec3(v, tag.Position)
			}
			if v := getFloat(m, "sensitivity", tag.Sensitivity); v != tag.Sensitivity {
				tag.Sensitivity = v
			}
			if v := getInt(m, "epcid_wordcnt", tag.EPCWordCnt); v != tag.EPCWordCnt {
				tag.EPCWordCnt = v
			}
			if v := getFloat(m, "modulation_loss", tag.ModulationLoss); v != tag.ModulationLoss {
				tag.ModulationLoss = v
			}
			tag.EPC = getString(m, "epc")
			tag.Data = getString(m, "data")
			cfg.Tags = append(cfg.Tags, tag)
		}
	}

	if s := viper.GetString("channel.type"); s != "" {
		cfg.Channel.Type = s
	}
	if viper.IsSet("channel.thermal_noise") {
		cfg.Channel.ThermalNoise = viper.GetFloat64("channel.thermal_noise")
	}
	if viper.IsSet("channel.speed_of_light") {
		cfg.Channel.SpeedOfLight = viper.GetFloat64("channel.speed_of_light")
	}
	if viper.IsSet("channel.constant.connection_distance") {
		cfg.Channel.Constant.ConnectionDistance = viper.GetFloat64("channel.constant.connection_distance")
	}
	if viper.IsSet("channel.constant.path_loss") {
		cfg.Channel.Constant.PathLoss = viper.GetFloat64("channel.constant.path_loss")
	}
	if viper.IsSet("channel.constant.noconn_path_loss") {
		cfg.Channel.Constant.NoconnPathLoss = viper.GetFloat64("channel.constant.noconn_path_loss")
	}
	if viper.IsSet("channel.constant.ber") {
		cfg.Channel.Constant.BER = viper.GetFloat64("channel.constant.ber")
	}
	if viper.IsSet("channel.awgn.frequency") {
		cfg.Channel.AWGN.Frequency = viper.GetFloat64("channel.awgn.frequency")
	}
	if viper.IsSet("channel.awgn.height") {
		cfg.Channel.AWGN.Height = viper.GetFloat64("channel.awgn.height")
	}

	outputsRaw := viper.Get("outputs")
	if outputsRaw != nil {
		if outputs, ok := outputsRaw.([]interface{}); ok {
			cfg.Outputs = make([]OutputConfig, 0, len(outputs))
			for _, out := range outputs {
				if outMap, ok := out.(map[string]interface{}); ok {
					cfg.Outputs = append(cfg.Outputs, OutputConfig{
						Type:    getString(outMap, "type"),
						Enabled: getBool(outMap, "enabled"),
						Options: outMap,
					})
				}
			}
		}
	}

	cfg.Logging.Level = viper.GetString("logging.level")
	cfg.Logging.Format = viper.GetString("logging.format")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	return cfg, nil
}

// Resolve converts a validated Config into sim.SceneParams, parsing
// every symbolic Gen2 field into its enum.
func Resolve(c *Config) (sim.SceneParams, error) {
	m, err := gen2.ParseTagEncoding(c.Reader.M)
	if err != nil {
		return sim.SceneParams{}, err
	}
	sel, err := gen2.ParseSel(c.Reader.Sel)
	if err != nil {
		return sim.SceneParams{}, err
	}
	dr, err := gen2.ParseDR(c.Reader.DR)
	if err != nil {
		return sim.SceneParams{}, err
	}
	session, err := gen2.ParseSession(c.Reader.Session)
	if err != nil {
		return sim.SceneParams{}, err
	}
	target, err := gen2.ParseInventoryFlag(c.Reader.Target)
	if err != nil {
		return sim.SceneParams{}, err
	}

	reader := sim.ReaderParams{
		Position:        vec3ToPosition(c.Reader.Position),
		Speed:           vec3ToPosition(c.Reader.Speed),
		Q:               c.Reader.Q,
		M:               m,
		Sel:             sel,
		TRext:           c.Reader.TRext,
		DR:              dr,
		Tari:            c.Reader.Tari,
		RTcal:           c.Reader.RTcal,
		TRcal:           c.Reader.TRcal,
		Session:         session,
		Target:          target,
		WordCnt:         c.Reader.WordCnt,
		TxPower:         c.Reader.TxPower,
		CirculatorNoise: c.Reader.CirculatorNoise,
	}

	tags := make([]sim.TagParams, 0, len(c.Tags))
	for _, t := range c.Tags {
		tags = append(tags, sim.TagParams{
			Position:       vec3ToPosition(t.Position),
			Sensitivity:    t.Sensitivity,
			EPCWordCnt:     t.EPCWordCnt,
			ModulationLoss: t.ModulationLoss,
			EPC:            t.EPC,
			Data:           t.Data,
		})
	}

	channel := sim.ChannelParams{
		ThermalNoise: c.Channel.ThermalNoise,
		SpeedOfLight: c.Channel.SpeedOfLight,
	}
	switch c.Channel.Type {
	case "awgn":
		channel.AWGN = &sim.AWGNChannelParams{Frequency: c.Channel.AWGN.Frequency, Height: c.Channel.AWGN.Height}
	default:
		channel.Constant = &sim.ConstantChannelParams{
			ConnectionDistance: c.Channel.Constant.ConnectionDistance,
			PathLossDB:         c.Channel.Constant.PathLoss,
			NoconnPathLossDB:   c.Channel.Constant.NoconnPathLoss,
			BER:                c.Channel.Constant.BER,
		}
	}

	return sim.SceneParams{
		Reader:                 reader,
		Tags:                   tags,
		Channel:                channel,
		MaxDistance:            c.Scene.MaxDistance,
		PositionUpdateInterval: c.Scene.PositionUpdateInterval,
		MaxNumRounds:           c.Scene.MaxNumRounds,
		RecordReadTimestamps:   c.Scene.RecordReadTimestamps,
		Verbose:                c.Scene.Verbose,
	}, nil
}

func vec3ToPosition(v [3]float64) radio.Position {
	return radio.Position{X: v[0], Y: v[1], Z: v[2]}
}

func toVec3(v interface{}, deflt [3]float64) [3]float64 {
	slice, ok := v.([]interface{})
	if !ok || len(slice) != 3 {
		return deflt
	}
	out := deflt
	for i, item := range slice {
		switch n := item.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		}
	}
	return out
}

// Helper functions, in the style of map-backed option lookups.

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func getFloat(m map[string]interface{}, key string, deflt float64) float64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return deflt
}

func getInt(m map[string]interface{}, key string, deflt int) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return deflt
}
