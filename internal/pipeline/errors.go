package pipeline

import (
	"errors"
	"fmt"

	"github.com/sells-group/insight-pipeline/internal/enrich"
)

// ValidationError is a missing or malformed input field, detected before
// any external call is made.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}

// EnrichmentError is a failed model call or non-conforming model output.
// The type lives with the enrichment service; the alias keeps the taxonomy
// addressable from the pipeline package.
type EnrichmentError = enrich.Error

// NotFoundError is a referenced entity that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsEnrichment reports whether err is an EnrichmentError.
func IsEnrichment(err error) bool {
	var ee *EnrichmentError
	return errors.As(err, &ee)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
