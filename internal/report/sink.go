package report

import (
	"fmt"

	"github.com/ipu69/gen2sim/internal/config"
)

// Sink delivers a finished Result somewhere: stdout, a file, an MQTT
// topic. Implementations mirror the teacher's output.Output shape
// (Send/Close/Name) applied to round telemetry instead of
// relayed mesh packets.
type Sink interface {
	// Send delivers result to the sink. Returns an error if delivery
	// fails; Fan never aborts the remaining sinks on one failure.
	Send(result *Result) error

	// Close releases any resources the sink is holding (files, broker
	// connections).
	Close() error

	// Name identifies the sink for logging.
	Name() string
}

// New builds the Sink described by cfg.
func New(cfg config.OutputConfig) (Sink, error) {
	switch cfg.Type {
	case "stdout":
		return NewStdout(cfg)
	case "file":
		return NewFile(cfg)
	case "mqtt":
		return NewMQTT(cfg)
	default:
		return nil, fmt.Errorf("report: unknown sink type %q", cfg.Type)
	}
}

// Fan sends result to every enabled sink, collecting (not stopping on)
// individual delivery errors.
func Fan(sinks []Sink, result *Result) []error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Send(result); err != nil {
			errs = append(errs, fmt.Errorf("report: sink %s: %w", sink.Name(), err))
		}
	}
	return errs
}
