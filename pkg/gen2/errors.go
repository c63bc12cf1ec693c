package gen2

import "fmt"

// ConfigError reports an unrecognized symbolic configuration value (an
// unknown DR, M, Sel, Session, Target, or Bank). Configuration errors are
// returned by config.Validate and config.Resolve, before any run starts.
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gen2: unrecognized %s value %q", e.Field, e.Value)
}
