package enrich

import "fmt"

// Error is a failed enrichment or synthesis call: the model was
// unreachable, returned no text, or returned output that does not conform
// to the expected shape. Output carries the cleaned model text for
// diagnosis; it is never swallowed silently.
type Error struct {
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("enrichment failed: %v (output: %s)", e.Err, e.Output)
	}
	return fmt.Sprintf("enrichment failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
