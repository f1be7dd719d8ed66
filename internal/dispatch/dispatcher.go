// Package dispatch compiles an ordered set of signature bindings into a
// dispatcher: a callable that inspects the runtime types of its positional
// arguments and routes the call to the matching implementation.
//
// Compilation runs the stages of the classic typed-function compiler:
// parse, expand, de-duplicate, sort, prune redundant variadic conversions,
// build the discrimination tree with any fall-through analysis, and
// materialize. The materialization backend is closure compilation over the
// tree; the emitted-source form of the same tree is available through
// Dispatcher.Source for inspection.
package dispatch

import (
	"fmt"

	"github.com/Hypercubed/typed-function/internal/registry"
	"github.com/Hypercubed/typed-function/internal/signature"
)

// SignatureEntry is one conversion-free expanded signature attached to a
// dispatcher, keyed by its canonical text.
type SignatureEntry struct {
	Key string
	Fn  signature.Handler
}

// Dispatcher is the materialized callable. It owns its reference pool and
// closes over the error constructor; the registry lists it was compiled
// against are not re-read during dispatch.
type Dispatcher struct {
	name     string
	fn       step
	root     *Node
	pool     *Pool
	reg      *registry.Registry
	maxArity int
	varArgs  bool
	sigs     []SignatureEntry
	lookup   map[string]signature.Handler
	source   string
}

// Call dispatches on the runtime types of args. On no match it returns a
// *ArgumentsError; errors from the selected implementation propagate
// unchanged.
func (d *Dispatcher) Call(args ...any) (any, error) {
	res, err, done := d.fn(args)
	if !done {
		// The root always terminates with a mismatch branch; this is a
		// compiler invariant, not a reachable state.
		return nil, fmt.Errorf("dispatch fell through in function %s", d.name)
	}
	return res, err
}

// Name returns the informational dispatcher name ("" when unnamed).
func (d *Dispatcher) Name() string {
	return d.name
}

// MaxArity is the maximum number of formal parameters across the compiled
// signatures. Variadic signatures accept unbounded arguments beyond it.
func (d *Dispatcher) MaxArity() int {
	return d.maxArity
}

// VarArgs reports whether any compiled signature is variadic.
func (d *Dispatcher) VarArgs() bool {
	return d.varArgs
}

// Signatures returns the attached conversion-free expanded signatures in
// their compiled order.
func (d *Dispatcher) Signatures() []SignatureEntry {
	return append([]SignatureEntry(nil), d.sigs...)
}

// Handler looks up the implementation bound to an exact canonical key. No
// coercion and no any-matching take place.
func (d *Dispatcher) Handler(key string) (signature.Handler, bool) {
	fn, ok := d.lookup[key]
	return fn, ok
}

// Root exposes the discrimination tree for inspection tooling.
func (d *Dispatcher) Root() *Node {
	return d.root
}
