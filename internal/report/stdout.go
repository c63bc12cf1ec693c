package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ipu69/gen2sim/internal/config"
)

// Stdout prints a Result to standard output, either as a single JSON
// line or as a short human-readable summary.
type Stdout struct {
	format string
}

// NewStdout builds a stdout sink from cfg.Options["format"] (json or
// text; defaults to json).
func NewStdout(cfg config.OutputConfig) (*Stdout, error) {
	format := "json"
	if f, ok := cfg.Options["format"].(string); ok && f != "" {
		format = f
	}
	return &Stdout{format: format}, nil
}

func (s *Stdout) Send(result *Result) error {
	if s.format == "json" {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	fmt.Fprintf(os.Stdout, "%s: final_time=%.6fs rounds=%d collisions=%d tags=%d\n",
		result.ScenarioName, result.FinalTime, result.NumRounds, result.NumCollisions, len(result.Tags))
	for _, tag := range result.Tags {
		fmt.Fprintf(os.Stdout, "  tag[%d] epc=%s epcid_rx=%d data_rx=%d\n",
			tag.Index, tag.EPC, tag.NumEPCIDReceived, tag.NumDataReceived)
	}
	return nil
}

func (s *Stdout) Close() error { return nil }

func (s *Stdout) Name() string { return "stdout" }
