package pda

import "fmt"

// InvalidConfigError reports a Config that CreateApp cannot build an App
// from.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("pda: invalid config: %s", e.Reason)
}
