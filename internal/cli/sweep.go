package cli

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ipu69/gen2sim/internal/config"
	"github.com/ipu69/gen2sim/internal/logging"
	"github.com/ipu69/gen2sim/internal/report"
	"github.com/ipu69/gen2sim/internal/sim"
)

var (
	sweepParam   string
	sweepValues  []string
	sweepWorkers int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the scenario once per value of a scalar config key",
	Long: `Sweep runs the configured scenario once for every value in
--values, overriding the single --param key each time, fanned out over
a bounded worker pool. Each worker owns a private, independently-seeded
Scene and Scheduler instance; no mutable state crosses goroutines.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "dotted config key to vary (reader.q, reader.tx_power, scene.seed, scene.max_num_rounds, channel.constant.ber)")
	sweepCmd.Flags().StringSliceVar(&sweepValues, "values", nil, "comma-separated values for --param")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 4, "max concurrent passes")
}

func runSweep(_ *cobra.Command, _ []string) error {
	logCfg := logging.Config{Level: viper.GetString("logging.level"), Format: viper.GetString("logging.format")}
	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if sweepParam == "" || len(sweepValues) == 0 {
		return fmt.Errorf("sweep requires --param and --values")
	}

	base, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := base.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sinks, err := buildSinks(base)
	if err != nil {
		return err
	}
	defer closeSinks(sinks)

	// report.Sink implementations are shared across workers; guard Fan
	// with a mutex since none of them promise concurrent-safe Send.
	var sinksMu sync.Mutex

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(sweepWorkers)

	for i, value := range sweepValues {
		i, value := i, value
		g.Go(func() error {
			cfg := *base
			cfg.Tags = append([]config.TagConfig(nil), base.Tags...)
			cfg.Outputs = append([]config.OutputConfig(nil), base.Outputs...)
			if err := applyOverride(&cfg, sweepParam, value); err != nil {
				return err
			}

			params, err := config.Resolve(&cfg)
			if err != nil {
				return fmt.Errorf("variant %s=%s: %w", sweepParam, value, err)
			}
			scene := sim.NewSceneFromParams(params, sim.NewRNG(cfg.Scene.Seed+int64(i)))

			finalTime, err := sim.Run(scene)
			if err != nil {
				return fmt.Errorf("variant %s=%s: %w", sweepParam, value, err)
			}

			result := report.NewResult(fmt.Sprintf("%s=%s", sweepParam, value), scene, finalTime)
			sinksMu.Lock()
			for _, sendErr := range report.Fan(sinks, result) {
				logging.Error("report sink delivery failed", zap.Error(sendErr))
			}
			sinksMu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

// applyOverride sets one scalar field on cfg, identified by its dotted
// config key, to value. Only the keys a sweep is meaningfully run over
// are supported; an unknown key is a user error, surfaced immediately
// rather than silently ignored.
func applyOverride(cfg *config.Config, key, value string) error {
	switch key {
	case "reader.q":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("reader.q: %w", err)
		}
		cfg.Reader.Q = n
	case "reader.tx_power":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("reader.tx_power: %w", err)
		}
		cfg.Reader.TxPower = f
	case "scene.seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("scene.seed: %w", err)
		}
		cfg.Scene.Seed = n
	case "scene.max_num_rounds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("scene.max_num_rounds: %w", err)
		}
		cfg.Scene.MaxNumRounds = n
	case "channel.constant.ber":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("channel.constant.ber: %w", err)
		}
		cfg.Channel.Constant.BER = f
	default:
		return fmt.Errorf("sweep: unsupported --param %q", key)
	}
	return nil
}
