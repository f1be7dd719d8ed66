// Package typed composes a set of (signature → implementation) bindings
// into a single callable that dispatches on the runtime types of its
// positional arguments. It supports union types, variadic parameters, an
// any wildcard, a user-extensible type registry, and user-declared
// conversions that let a call site match a signature by coercing one
// argument type into another.
//
//	add, err := typed.Compose(
//		typed.Pair{Signature: "number, number", Fn: addNumbers},
//		typed.Pair{Signature: "string, string", Fn: concat},
//	)
//	res, err := add.Call(2, 3)
//
// The package-level functions operate on a shared default system; New
// returns a fresh isolated system with its own registry, conversion list
// and ignore list.
package typed

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Hypercubed/typed-function/internal/dispatch"
	"github.com/Hypercubed/typed-function/internal/registry"
	"github.com/Hypercubed/typed-function/internal/signature"
)

type (
	// Handler is a user implementation; it receives the bound positional
	// arguments, with a variadic tail delivered as a single []any.
	Handler = signature.Handler

	// Entry is a named runtime type with its membership predicate.
	Entry = registry.Entry

	// Conversion declares that a From-typed value may satisfy a To-typed
	// parameter after passing through Convert.
	Conversion = registry.Conversion

	// Pair binds one signature text to an implementation.
	Pair = dispatch.Pair

	// Dispatcher is the materialized callable produced by Compose.
	Dispatcher = dispatch.Dispatcher

	// SignatureEntry is one conversion-free expanded signature attached to
	// a Dispatcher.
	SignatureEntry = dispatch.SignatureEntry

	// ArgumentsError is returned by Dispatcher.Call when the runtime
	// arguments match no compiled signature.
	ArgumentsError = dispatch.ArgumentsError
)

// System is one isolated instance: a type registry, a conversion list and
// an ignore list. Mutations affect dispatchers compiled afterwards, never
// already-compiled ones.
type System struct {
	id  uuid.UUID
	reg *registry.Registry
}

// New returns a fresh isolated system with the default type universe.
func New() *System {
	return &System{id: uuid.New(), reg: registry.New()}
}

// ID is the unique identity of this system instance.
func (s *System) ID() string {
	return s.id.String()
}

func (s *System) String() string {
	return fmt.Sprintf("typed-function system %s", s.id)
}

// Compose compiles an ordered set of signature bindings into an unnamed
// dispatcher.
func (s *System) Compose(pairs ...Pair) (*Dispatcher, error) {
	return dispatch.Compile("", pairs, s.reg)
}

// ComposeNamed is Compose with a dispatcher name, used in error messages
// and for merge-time consistency.
func (s *System) ComposeNamed(name string, pairs ...Pair) (*Dispatcher, error) {
	return dispatch.Compile(name, pairs, s.reg)
}

// Merge composes already-composed dispatchers by merging their attached
// signature maps. Identical implementations for a shared signature
// collapse; differing implementations, or conflicting non-empty names, are
// errors.
func (s *System) Merge(dispatchers ...*Dispatcher) (*Dispatcher, error) {
	return dispatch.Merge(s.reg, "", dispatchers...)
}

// Find returns the implementation bound to the exact conversion-free
// expanded signature. No coercion and no any-matching take place.
func (s *System) Find(d *Dispatcher, signatureText string) (Handler, error) {
	parsed, err := signature.Parse(signatureText, nil, s.reg)
	if err != nil {
		return nil, err
	}
	fn, ok := d.Handler(parsed.Key())
	if !ok {
		return nil, fmt.Errorf("signature not found (signature: %s)", parsed.Key())
	}
	return fn, nil
}

// Convert applies the first conversion from the value's runtime type to the
// named target type; converting to the value's own type is the identity.
func (s *System) Convert(value any, to string) (any, error) {
	return s.reg.ConvertValue(value, to)
}

// AddType appends a type entry to the registry.
func (s *System) AddType(e Entry) error {
	return s.reg.AddType(e)
}

// AddConversion appends a conversion to the conversion list. Earlier
// conversions win ties.
func (s *System) AddConversion(c Conversion) error {
	return s.reg.AddConversion(c)
}

// Ignore appends type names to the ignore list; signatures mentioning them
// are dropped at compile time.
func (s *System) Ignore(names ...string) {
	s.reg.Ignore(names...)
}

// TypeOf classifies a runtime value against the registry.
func (s *System) TypeOf(value any) string {
	return s.reg.TypeOf(value)
}

// Default is the shared system behind the package-level functions.
var Default = New()

func Compose(pairs ...Pair) (*Dispatcher, error) { return Default.Compose(pairs...) }

func ComposeNamed(name string, pairs ...Pair) (*Dispatcher, error) {
	return Default.ComposeNamed(name, pairs...)
}

func Merge(dispatchers ...*Dispatcher) (*Dispatcher, error) { return Default.Merge(dispatchers...) }

func Find(d *Dispatcher, signatureText string) (Handler, error) {
	return Default.Find(d, signatureText)
}

func Convert(value any, to string) (any, error) { return Default.Convert(value, to) }

func AddType(e Entry) error { return Default.AddType(e) }

func AddConversion(c Conversion) error { return Default.AddConversion(c) }

func Ignore(names ...string) { Default.Ignore(names...) }

func TypeOf(value any) string { return Default.TypeOf(value) }
