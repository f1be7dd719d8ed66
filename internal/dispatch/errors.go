package dispatch

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/Hypercubed/typed-function/internal/registry"
)

// Error categories carried by ArgumentsError for programmatic recovery.
const (
	CategoryTooFew    = "tooFewArgs"
	CategoryTooMany   = "tooManyArgs"
	CategoryWrongType = "wrongType"
)

// ArgumentsError is the only error a materialized dispatcher produces
// itself: the runtime arguments did not match any compiled signature.
type ArgumentsError struct {
	Category string
	Fn       string
	Index    int
	Actual   any
	// ActualType is the registry classification of Actual.
	ActualType string
	// Expected lists the acceptable type names at Index, or is nil for a
	// too-many-arguments failure.
	Expected []string
	// Argc is the number of arguments the call supplied.
	Argc int
}

func (e *ArgumentsError) Error() string {
	name := e.Fn
	if name == "" {
		name = "unnamed"
	}
	switch e.Category {
	case CategoryTooMany:
		return fmt.Sprintf("too many arguments in function %s (expected: %d, actual: %d)", name, e.Index, e.Argc)
	case CategoryWrongType:
		return fmt.Sprintf("unexpected type of argument in function %s (expected: %s, actual: %s, index: %d)",
			name, strings.Join(e.Expected, ", "), e.ActualType, e.Index)
	default:
		return fmt.Sprintf("too few arguments in function %s (expected: %s, index: %d)",
			name, strings.Join(e.Expected, ", "), e.Index)
	}
}

// errorFactory builds ArgumentsError values for one dispatcher, closing over
// its name and the registry snapshot used for classification.
type errorFactory struct {
	fn  string
	reg *registry.Registry
}

// create classifies a dispatch failure. A nil expected list means the call
// supplied more arguments than any signature accepts. Otherwise the failure
// is a wrong type when the argument exists and the expectation is concrete,
// and too few arguments when the call ran out of arguments.
func (f *errorFactory) create(argc, index int, actual any, expected []string) *ArgumentsError {
	err := &ArgumentsError{
		Fn:       f.fn,
		Index:    index,
		Actual:   actual,
		Expected: expected,
		Argc:     argc,
	}
	switch {
	case expected == nil:
		err.Category = CategoryTooMany
	case argc > index && !lo.Contains(expected, registry.Any):
		err.Category = CategoryWrongType
		err.ActualType = f.reg.TypeOf(actual)
	default:
		err.Category = CategoryTooFew
	}
	return err
}
