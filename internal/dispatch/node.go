package dispatch

import (
	"github.com/Hypercubed/typed-function/internal/registry"
	"github.com/Hypercubed/typed-function/internal/signature"
)

// Node is one level of the discrimination tree. The edge leading into a node
// at depth k is its Param, matched against argument k-1; the root has no
// Param. A node may carry a terminal signature, reached when the call
// supplies exactly len(Path) arguments, and children for deeper matching.
//
// FallThrough suppresses the terminal mismatch error at this depth because
// an any-typed signature outside this subtree might still match the current
// path; an any-typed node overrides it and raises anyway, since nothing
// more permissive can exist beyond it. SiblingFallThrough suppresses the
// mismatch unconditionally: a variadic sibling of this subtree (or of an
// ancestor) shares a type with it and can still capture the call.
type Node struct {
	Path               []*signature.Param
	Param              *signature.Param
	Signature          *signature.Signature
	Childs             []*Node
	FallThrough        bool
	SiblingFallThrough bool
}

// step is a compiled node: it inspects the call arguments and either
// completes the dispatch (done, with the implementation's result or an
// ArgumentsError) or declines so control falls through to the next emitted
// branch.
type step func(args []any) (result any, err error, done bool)

// compileCtx carries the per-dispatcher state shared by the compiled
// closures and the source emitter.
type compileCtx struct {
	reg  *registry.Registry
	errs *errorFactory
	pool *Pool
}

// compile materializes the node into a closure realizing the emission
// semantics: guard, terminal, children, then the terminal mismatch unless
// the node is in fall-through mode.
func (n *Node) compile(ctx *compileCtx) step {
	if n.Param == nil {
		return n.compileInner(ctx)
	}

	k := len(n.Path) - 1
	p := n.Param

	switch {
	case p.VarArgs && p.AnyType:
		return n.compileVarArgsAny(ctx, k)
	case p.VarArgs:
		return n.compileVarArgs(ctx, k)
	case p.AnyType:
		// No guard: an any-typed branch is entered unconditionally.
		return n.compileInner(ctx)
	default:
		inner := n.compileInner(ctx)
		tests := ctx.tests(p.Types)
		return func(args []any) (any, error, bool) {
			if len(args) > k && passes(tests, args[k]) {
				return inner(args)
			}
			return nil, nil, false
		}
	}
}

// compileVarArgsAny collects every trailing argument verbatim and invokes
// the terminal signature. A zero-length tail is accepted.
func (n *Node) compileVarArgsAny(ctx *compileCtx, k int) step {
	tail := makeVarArgsTail(ctx, n.Signature)
	return func(args []any) (any, error, bool) {
		if len(args) < k {
			return nil, nil, false
		}
		varArgs := append([]any{}, args[k:]...)
		return tail(args, varArgs)
	}
}

// compileVarArgs matches every trailing argument against the declared types,
// directly or through a conversion. A trailing argument matching nothing is
// a mismatch at its own index, reported against the direct types only.
func (n *Node) compileVarArgs(ctx *compileCtx, k int) step {
	p := n.Param
	tail := makeVarArgsTail(ctx, n.Signature)
	direct := p.DirectTypes()

	type alt struct {
		test func(any) bool
		conv *registry.Conversion
	}
	alts := make([]alt, len(p.Types))
	for i, t := range p.Types {
		alts[i] = alt{test: ctx.test(t), conv: p.Conversions[i]}
	}

	accept := func(v any) (any, bool) {
		for _, a := range alts {
			if a.conv == nil && a.test(v) {
				return v, true
			}
		}
		for _, a := range alts {
			if a.conv != nil && a.test(v) {
				return a.conv.Convert(v), true
			}
		}
		return nil, false
	}

	return func(args []any) (any, error, bool) {
		if len(args) == k {
			return tail(args, []any{})
		}
		if len(args) < k {
			return nil, nil, false
		}
		first, ok := accept(args[k])
		if !ok {
			return nil, nil, false
		}
		varArgs := []any{first}
		for i := k + 1; i < len(args); i++ {
			v, ok := accept(args[i])
			if !ok {
				return nil, ctx.errs.create(len(args), i, args[i], direct), true
			}
			varArgs = append(varArgs, v)
		}
		return tail(args, varArgs)
	}
}

// compileInner compiles the node body: the terminal signature check, every
// child in order, then the mismatch error. The mismatch is emitted unless
// the node is in fall-through mode; an any-typed node emits it regardless,
// since nothing more permissive can exist beyond it.
func (n *Node) compileInner(ctx *compileCtx) step {
	depth := len(n.Path)

	var steps []step
	if n.Signature != nil && !n.Signature.VarArgs {
		tail := makeTail(ctx, n.Signature)
		steps = append(steps, func(args []any) (any, error, bool) {
			if len(args) == depth {
				return tail(args)
			}
			return nil, nil, false
		})
	}
	for _, child := range n.Childs {
		steps = append(steps, child.compile(ctx))
	}

	if !n.SiblingFallThrough && (!n.FallThrough || (n.Param != nil && n.Param.AnyType)) {
		steps = append(steps, n.compileMismatch(ctx, depth))
	}

	return func(args []any) (any, error, bool) {
		for _, s := range steps {
			if res, err, done := s(args); done {
				return res, err, true
			}
		}
		return nil, nil, false
	}
}

// compileMismatch builds the terminal error step. With no children the only
// remaining failure is a call deeper than this path; with children the
// expected set is the union of their direct types.
func (n *Node) compileMismatch(ctx *compileCtx, depth int) step {
	if len(n.Childs) == 0 {
		return func(args []any) (any, error, bool) {
			if len(args) > depth {
				return nil, ctx.errs.create(len(args), depth, args[depth], nil), true
			}
			return nil, nil, false
		}
	}

	expected := childTypes(n.Childs)
	return func(args []any) (any, error, bool) {
		var actual any
		if len(args) > depth {
			actual = args[depth]
		}
		return nil, ctx.errs.create(len(args), depth, actual, expected), true
	}
}

// childTypes unions the direct types across children, preserving order and
// eliding duplicates. Conversion-reached types are excluded: they are not
// part of what the caller was expected to supply.
func childTypes(childs []*Node) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range childs {
		for _, t := range c.Param.DirectTypes() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// makeTail binds each Param of a non-variadic terminal signature to its
// argument, applying the recorded conversions, and invokes the
// implementation.
func makeTail(ctx *compileCtx, s *signature.Signature) func(args []any) (any, error, bool) {
	ctx.poolSignature(s)
	return func(args []any) (any, error, bool) {
		bound := make([]any, len(s.Params))
		for i, p := range s.Params {
			v := args[i]
			if c := p.Conversions[0]; c != nil {
				v = c.Convert(v)
			}
			bound[i] = v
		}
		res, err := s.Fn(bound)
		return res, err, true
	}
}

// makeVarArgsTail binds the leading Params, appends the collected tail as
// the final argument, and invokes the implementation.
func makeVarArgsTail(ctx *compileCtx, s *signature.Signature) func(args, varArgs []any) (any, error, bool) {
	ctx.poolSignature(s)
	return func(args, varArgs []any) (any, error, bool) {
		bound := make([]any, 0, len(s.Params))
		for i := 0; i < len(s.Params)-1; i++ {
			v := args[i]
			if c := s.Params[i].Conversions[0]; c != nil {
				v = c.Convert(v)
			}
			bound = append(bound, v)
		}
		bound = append(bound, varArgs)
		res, err := s.Fn(bound)
		return res, err, true
	}
}

// test resolves one type name to its registry predicate, registering it in
// the reference pool. The any wildcard accepts everything.
func (ctx *compileCtx) test(name string) func(any) bool {
	if name == registry.Any {
		return func(any) bool { return true }
	}
	e, ok := ctx.reg.Lookup(name)
	if !ok {
		// Unregistered names cannot match anything at runtime.
		return func(any) bool { return false }
	}
	ctx.pool.Add(e.Test, "test")
	return e.Test
}

func (ctx *compileCtx) tests(names []string) []func(any) bool {
	out := make([]func(any) bool, len(names))
	for i, n := range names {
		out[i] = ctx.test(n)
	}
	return out
}

// poolSignature registers the implementation and its conversions so the
// emitted source can refer to them by handle.
func (ctx *compileCtx) poolSignature(s *signature.Signature) {
	ctx.pool.Add(s.Fn, "signature")
	for _, p := range s.Params {
		for _, c := range p.Conversions {
			if c != nil {
				ctx.pool.Add(c.Convert, "convert")
			}
		}
	}
}

func passes(tests []func(any) bool, v any) bool {
	for _, t := range tests {
		if t(v) {
			return true
		}
	}
	return false
}
