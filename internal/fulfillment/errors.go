package fulfillment

import "fmt"

// ValidationError reports a missing or malformed parameter together with the re-prompt to show.
type ValidationError struct {
	Param  string
	Prompt string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid parameter %s: %v", e.Param, e.Err)
	}
	return fmt.Sprintf("missing parameter %s", e.Param)
}

func (e *ValidationError) Unwrap() error { return e.Err }
