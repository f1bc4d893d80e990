package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a single prop type mismatch.
type ValidationError struct {
	Path   string // Tree path of the node
	Kind   string
	Prop   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s) prop %q: %s", e.Path, e.Kind, e.Prop, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
