package dispatch

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/samber/lo"

	"github.com/Hypercubed/typed-function/internal/registry"
	"github.com/Hypercubed/typed-function/internal/signature"
)

// Pair is one (signature text, implementation) binding. Compilation input
// is an ordered list of Pairs: declaration order is the final tie-break when
// two signatures are otherwise incomparable.
type Pair struct {
	Signature string
	Fn        signature.Handler
}

// Compile turns an ordered set of signature bindings into a dispatcher.
// Construction errors are raised eagerly; no partial dispatcher is returned.
func Compile(name string, pairs []Pair, reg *registry.Registry) (*Dispatcher, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no signatures provided")
	}

	// (a) Parse, dropping signatures that mention an ignored type.
	var parsed []*signature.Signature
	for _, pair := range pairs {
		s, err := signature.Parse(pair.Signature, pair.Fn, reg)
		if err != nil {
			return nil, err
		}
		if !s.Ignore(reg) {
			parsed = append(parsed, s)
		}
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("no signatures provided")
	}

	// (b) Expand and de-duplicate by canonical key.
	sigs, err := dedupe(reg, lo.FlatMap(parsed, func(s *signature.Signature, _ int) []*signature.Signature {
		return s.Expand(reg)
	}))
	if err != nil {
		return nil, err
	}

	// (c) Sort by the signature order.
	sort.SliceStable(sigs, func(i, j int) bool {
		return signature.CompareSignatures(reg, sigs[i], sigs[j]) < 0
	})

	// (d) Prune variadic conversion entries preempted by an exact match.
	pruneVarArgConversions(sigs)

	// (e) The any-typed subset drives the fall-through analysis.
	anys := lo.Filter(sigs, func(s *signature.Signature, _ int) bool {
		return s.AnyType
	})

	// (f) Build the discrimination tree.
	root, err := buildNode(reg, nil, sigs, anys, false)
	if err != nil {
		return nil, err
	}

	// (g) Materialize. Errors classify actual values against a copy of the
	// entry list, so types registered after compilation do not affect them.
	snapshot := registry.Empty()
	for _, e := range reg.Entries() {
		_ = snapshot.AddType(e)
	}
	ctx := &compileCtx{
		reg:  reg,
		errs: &errorFactory{fn: name, reg: snapshot},
		pool: NewPool(),
	}
	fn := root.compile(ctx)

	d := &Dispatcher{
		name:     name,
		fn:       fn,
		root:     root,
		pool:     ctx.pool,
		reg:      reg,
		maxArity: maxArity(sigs),
		varArgs:  lo.SomeBy(sigs, func(s *signature.Signature) bool { return s.VarArgs }),
		lookup:   make(map[string]signature.Handler),
	}
	for _, s := range sigs {
		if s.HasConversions() {
			continue
		}
		key := s.Key()
		if _, ok := d.lookup[key]; !ok {
			d.lookup[key] = s.Fn
			d.sigs = append(d.sigs, SignatureEntry{Key: key, Fn: s.Fn})
		}
	}
	return d, nil
}

// dedupe groups expanded signatures by canonical key. Identical
// implementations collapse silently; otherwise the smaller signature under
// the total order survives, and an exact tie is a hard error.
func dedupe(reg *registry.Registry, sigs []*signature.Signature) ([]*signature.Signature, error) {
	var out []*signature.Signature
	index := make(map[string]int)
	for _, s := range sigs {
		key := s.Key()
		at, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, s)
			continue
		}
		have := out[at]
		if sameFn(have.Fn, s.Fn) {
			continue
		}
		switch cmp := signature.CompareSignatures(reg, s, have); {
		case cmp < 0:
			out[at] = s
		case cmp == 0:
			return nil, fmt.Errorf("signature %q is defined twice", key)
		}
	}
	return out, nil
}

// pruneVarArgConversions drops a conversion entry from a trailing variadic
// Param when another signature accepts the conversion's source type directly
// at the same position; the exact match would preempt it at runtime anyway.
func pruneVarArgConversions(sigs []*signature.Signature) {
	for _, s := range sigs {
		if !s.VarArgs {
			continue
		}
		pos := len(s.Params) - 1
		p := s.Params[pos]

		keepType := p.Types[:0]
		keepConv := p.Conversions[:0]
		for i := range p.Types {
			if p.Conversions[i] != nil && preempted(sigs, s, pos, p.Conversions[i].From) {
				continue
			}
			keepType = append(keepType, p.Types[i])
			keepConv = append(keepConv, p.Conversions[i])
		}
		p.Types = keepType
		p.Conversions = keepConv
	}
}

// preempted reports whether some other signature accepts the type directly,
// without a conversion, through a non-variadic Param at the same position.
func preempted(sigs []*signature.Signature, self *signature.Signature, pos int, typeName string) bool {
	return lo.SomeBy(sigs, func(other *signature.Signature) bool {
		if other == self || pos >= len(other.Params) {
			return false
		}
		p := other.Params[pos]
		return !p.VarArgs && lo.Contains(p.DirectTypes(), typeName)
	})
}

// buildNode recursively constructs the discrimination tree for the
// signatures reachable through the given path. A suppressed subtree raises
// no mismatch errors of its own: a variadic signature outside it shares a
// type with its entry Param and can still capture the call.
func buildNode(reg *registry.Registry, path []*signature.Param, sigs, anys []*signature.Signature, suppressed bool) (*Node, error) {
	depth := len(path)
	node := &Node{Path: path, SiblingFallThrough: suppressed}
	if depth > 0 {
		node.Param = path[depth-1]
	}

	// The terminal signature is reached when the call supplies exactly
	// depth arguments.
	var rest []*signature.Signature
	for _, s := range sigs {
		if len(s.Params) == depth && node.Signature == nil {
			node.Signature = s
			continue
		}
		if len(s.Params) > depth {
			rest = append(rest, s)
		}
	}

	// Partition by the Param at this position. Two signatures share an
	// entry when their Params overlap and agree on the variadic flag; two
	// overlapping variadic Params name conflicting capture rules.
	type entry struct {
		param *signature.Param
		sigs  []*signature.Signature
	}
	var entries []*entry
	for _, s := range rest {
		p := s.Params[depth]
		var target *entry
		for _, e := range entries {
			if !e.param.Overlapping(p) {
				continue
			}
			if e.param.VarArgs != p.VarArgs {
				// An exact-arity Param and a variadic Param may share a
				// type; they keep separate branches and the exact one
				// falls through to the variadic (see below).
				continue
			}
			if e.param.VarArgs {
				return nil, fmt.Errorf("conflicting types %q and %q", e.param, p)
			}
			target = e
			break
		}
		if target == nil {
			entries = append(entries, &entry{param: p, sigs: []*signature.Signature{s}})
		} else {
			target.sigs = append(target.sigs, s)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return signature.Compare(reg, entries[i].param, entries[j].param) < 0
	})

	// Any-typed signatures still viable along this path. The node falls
	// through, instead of raising a mismatch, when one of them lives
	// outside this subtree.
	matchingAnys := lo.Filter(anys, func(s *signature.Signature, _ int) bool {
		return s.ParamsStartWith(path)
	})
	node.FallThrough = lo.SomeBy(matchingAnys, func(a *signature.Signature) bool {
		return !containsSig(sigs, a)
	})

	for i, e := range entries {
		// A later variadic sibling sharing a type can still capture calls
		// this subtree declines; nothing in the subtree may raise.
		shadowed := suppressed
		for _, later := range entries[i+1:] {
			if later.param.VarArgs && later.param.Overlapping(e.param) {
				shadowed = true
			}
		}

		childPath := append(append([]*signature.Param(nil), path...), e.param)
		child, err := buildNode(reg, childPath, e.sigs, matchingAnys, shadowed)
		if err != nil {
			return nil, err
		}
		node.Childs = append(node.Childs, child)
	}

	return node, nil
}

func containsSig(sigs []*signature.Signature, s *signature.Signature) bool {
	for _, have := range sigs {
		if have == s {
			return true
		}
	}
	return false
}

// sameFn compares implementations by code pointer identity.
func sameFn(a, b signature.Handler) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func maxArity(sigs []*signature.Signature) int {
	return lo.Max(lo.Map(sigs, func(s *signature.Signature, _ int) int {
		return len(s.Params)
	}))
}

// Merge builds a dispatcher over the union of the attached signature maps
// of already-composed dispatchers. Identical implementations for a shared
// key collapse; differing implementations are a hard error, as are
// conflicting non-empty names.
func Merge(reg *registry.Registry, name string, dispatchers ...*Dispatcher) (*Dispatcher, error) {
	if len(dispatchers) == 0 {
		return nil, fmt.Errorf("no dispatchers provided")
	}

	for _, d := range dispatchers {
		if d.name == "" {
			continue
		}
		if name == "" {
			name = d.name
		} else if d.name != name {
			return nil, fmt.Errorf("cannot merge dispatchers: names %q and %q do not match", name, d.name)
		}
	}

	var pairs []Pair
	seen := make(map[string]signature.Handler)
	for _, d := range dispatchers {
		for _, e := range d.sigs {
			if have, ok := seen[e.Key]; ok {
				if !sameFn(have, e.Fn) {
					return nil, fmt.Errorf("cannot merge dispatchers: signature %q is defined twice", e.Key)
				}
				continue
			}
			seen[e.Key] = e.Fn
			pairs = append(pairs, Pair{Signature: e.Key, Fn: e.Fn})
		}
	}
	return Compile(name, pairs, reg)
}
