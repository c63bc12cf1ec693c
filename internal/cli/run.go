package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ipu69/gen2sim/internal/config"
	"github.com/ipu69/gen2sim/internal/logging"
	"github.com/ipu69/gen2sim/internal/report"
	"github.com/ipu69/gen2sim/internal/sim"
	"github.com/ipu69/gen2sim/internal/watch"
)

var (
	dryRun      bool
	interactive bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one or more passes for a single scenario",
	Long: `Run builds a Scene from the configured reader/tag/channel
parameters and drives it to completion with the event-driven simulator,
once per scene.num_passes, printing or streaming a report for each pass
to every enabled output sink.

Use --interactive or -i to watch the first pass live; any further
passes still run and are reported as usual.`,
	RunE: runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate configuration without running")
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "show the first pass in a live view")
}

func runScenario(_ *cobra.Command, _ []string) error {
	logCfg := logging.Config{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	}
	if interactive {
		logCfg.Format = "text"
		logCfg.Level = "error"
	}
	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		logging.Info("using config file", zap.String("path", cfgFile))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if dryRun {
		fmt.Println("Configuration is valid!")
		fmt.Printf("  Tags: %d\n", len(cfg.Tags))
		fmt.Printf("  Channel: %s\n", cfg.Channel.Type)
		fmt.Printf("  Passes: %d\n", cfg.Scene.NumPasses)
		return nil
	}

	sinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer closeSinks(sinks)

	numPasses := cfg.Scene.NumPasses
	if numPasses < 1 {
		numPasses = 1
	}
	if interactive && numPasses > 1 {
		logging.Warn("interactive mode only shows the first pass", zap.Int("num_passes", numPasses))
	}

	for pass := 0; pass < numPasses; pass++ {
		params, err := config.Resolve(cfg)
		if err != nil {
			return fmt.Errorf("failed to resolve configuration: %w", err)
		}
		scene := sim.NewSceneFromParams(params, sim.NewRNG(cfg.Scene.Seed+int64(pass)))

		var finalTime float64
		if interactive && pass == 0 {
			finalTime, err = watch.Run(scene)
		} else {
			finalTime, err = sim.Run(scene)
		}
		if err != nil {
			return fmt.Errorf("pass %d failed: %w", pass, err)
		}

		result := report.NewResult(fmt.Sprintf("pass-%d", pass), scene, finalTime)
		for _, sendErr := range report.Fan(sinks, result) {
			logging.Error("report sink delivery failed", zap.Error(sendErr))
		}
	}

	return nil
}

// buildSinks constructs one report.Sink per enabled entry in cfg.Outputs.
func buildSinks(cfg *config.Config) ([]report.Sink, error) {
	sinks := make([]report.Sink, 0, len(cfg.Outputs))
	for _, outCfg := range cfg.Outputs {
		if !outCfg.Enabled {
			continue
		}
		sink, err := report.New(outCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s sink: %w", outCfg.Type, err)
		}
		sinks = append(sinks, sink)
	}
	if len(sinks) == 0 {
		logging.Warn("no output sinks enabled; results will not be reported")
	}
	return sinks, nil
}

func closeSinks(sinks []report.Sink) {
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			logging.Error("error closing sink", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}
