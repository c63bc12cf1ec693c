// Package report aggregates simulation results and fans them out to
// one or more output sinks.
package report

import "github.com/ipu69/gen2sim/internal/sim"

// TagResult summarizes one tag's outcome over a completed pass.
type TagResult struct {
	Index            int       `json:"index"`
	EPC              string    `json:"epc"`
	NumEPCIDSent     int       `json:"num_epcid_sent"`
	NumEPCIDReceived int       `json:"num_epcid_received"`
	NumDataSent      int       `json:"num_data_sent"`
	NumDataReceived  int       `json:"num_data_received"`
	ReadTimestamps   []float64 `json:"read_timestamps,omitempty"`
}

// Result is the final report.md-level summary of one scene run: the
// closing sim time, the round log, and per-tag statistics.
type Result struct {
	ScenarioName  string        `json:"scenario_name,omitempty"`
	FinalTime     float64       `json:"final_time"`
	NumRounds     int           `json:"num_rounds"`
	NumCollisions int           `json:"num_collisions"`
	Rounds        []sim.RoundRecord `json:"rounds"`
	Tags          []TagResult   `json:"tags"`
}

// NewResult builds a Result from a finished Scene and the final sim
// time returned by sim.Run.
func NewResult(name string, sc *sim.Scene, finalTime float64) *Result {
	tags := make([]TagResult, 0, len(sc.Links))
	for i, link := range sc.Links {
		tags = append(tags, TagResult{
			Index:            i,
			EPC:              link.Tag.EPC,
			NumEPCIDSent:     link.Tag.NumEPCIDSent,
			NumEPCIDReceived: link.Tag.NumEPCIDReceived,
			NumDataSent:      link.Tag.NumDataSent,
			NumDataReceived:  link.Tag.NumDataReceived,
			ReadTimestamps:   link.ReadTimestamps,
		})
	}

	return &Result{
		ScenarioName:  name,
		FinalTime:     finalTime,
		NumRounds:     len(sc.Rounds),
		NumCollisions: sc.NumCollisions,
		Rounds:        sc.Rounds,
		Tags:          tags,
	}
}
