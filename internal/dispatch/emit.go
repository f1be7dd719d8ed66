package dispatch

import (
	"fmt"
	"strings"

	"github.com/Hypercubed/typed-function/internal/registry"
	"github.com/Hypercubed/typed-function/internal/signature"
)

// Source renders the dispatcher body as generated-source pseudo-code: the
// reference pool preamble followed by the emission of the discrimination
// tree, with pool handles as the names of closed-over values. The closure
// backend is what actually runs; the emitted form exists for inspection and
// mirrors its semantics exactly.
func (d *Dispatcher) Source() string {
	if d.source == "" {
		e := &emitter{pool: d.pool, name: d.name, reg: d.reg}
		d.source = e.emit(d.root, d.maxArity)
	}
	return d.source
}

type emitter struct {
	pool *Pool
	name string
	reg  *registry.Registry
}

func (e *emitter) emit(root *Node, maxArity int) string {
	params := make([]string, maxArity)
	for i := range params {
		params[i] = arg(i)
	}

	var b strings.Builder
	b.WriteString(e.pool.ToCode())
	fmt.Fprintf(&b, "return function %s(%s) {\n", e.fnName(), strings.Join(params, ", "))
	b.WriteString(e.inner(root, "  "))
	b.WriteString("}\n")
	return b.String()
}

func (e *emitter) fnName() string {
	if e.name == "" {
		return "anonymous"
	}
	return e.name
}

func (e *emitter) node(n *Node, indent string) string {
	k := len(n.Path) - 1
	p := n.Param

	switch {
	case p.VarArgs && p.AnyType:
		return e.varArgsAny(n, k, indent)
	case p.VarArgs:
		return e.varArgs(n, k, indent)
	case p.AnyType:
		return e.inner(n, indent)
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "%sif (argc > %d && %s) { // type: %s\n", indent, k, e.guard(p, arg(k)), p)
		b.WriteString(e.inner(n, indent+"  "))
		fmt.Fprintf(&b, "%s}\n", indent)
		return b.String()
	}
}

// guard renders the membership test for one argument against a Param.
func (e *emitter) guard(p *signature.Param, argName string) string {
	tests := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		tests = append(tests, fmt.Sprintf("%s(%s)", e.testHandle(t), argName))
	}
	if len(tests) == 1 {
		return tests[0]
	}
	return "(" + strings.Join(tests, " || ") + ")"
}

func (e *emitter) varArgsAny(n *Node, k int, indent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%svarArgs = collect(arguments, %d); // ...%s\n", indent, k, registry.Any)
	fmt.Fprintf(&b, "%s%s\n", indent, e.tailCall(n.Signature))
	return b.String()
}

func (e *emitter) varArgs(n *Node, k int, indent string) string {
	p := n.Param
	var b strings.Builder

	fmt.Fprintf(&b, "%sif (argc === %d) { // empty ...%s tail\n", indent, k, p)
	fmt.Fprintf(&b, "%s  varArgs = [];\n", indent)
	fmt.Fprintf(&b, "%s  %s\n", indent, e.tailCall(n.Signature))
	fmt.Fprintf(&b, "%s}\n", indent)

	fmt.Fprintf(&b, "%sif (%s) { // type: %s\n", indent, e.guard(p, arg(k)), p)
	fmt.Fprintf(&b, "%s  varArgs = [];\n", indent)
	fmt.Fprintf(&b, "%s  for (i = %d; i < argc; i++) {\n", indent, k)
	in := indent + "    "
	first := true
	for i, t := range p.Types {
		cond := fmt.Sprintf("%s(arguments[i])", e.testHandle(t))
		push := "arguments[i]"
		if c := p.Conversions[i]; c != nil {
			push = fmt.Sprintf("%s(arguments[i])", e.convertHandle(c))
		}
		keyword := "else if"
		if first {
			keyword = "if"
			first = false
		}
		fmt.Fprintf(&b, "%s%s (%s) { varArgs.push(%s); }\n", in, keyword, cond, push)
	}
	fmt.Fprintf(&b, "%selse { throw createError(%q, argc, i, arguments[i], %q); }\n",
		in, e.fnName(), strings.Join(p.DirectTypes(), ","))
	fmt.Fprintf(&b, "%s  }\n", indent)
	fmt.Fprintf(&b, "%s  %s\n", indent, e.tailCall(n.Signature))
	fmt.Fprintf(&b, "%s}\n", indent)
	return b.String()
}

// inner renders the node body: terminal signature, children, then the
// terminal mismatch unless suppressed by fall-through.
func (e *emitter) inner(n *Node, indent string) string {
	depth := len(n.Path)
	var b strings.Builder

	if n.Signature != nil && !n.Signature.VarArgs {
		fmt.Fprintf(&b, "%sif (argc === %d) {\n", indent, depth)
		fmt.Fprintf(&b, "%s  %s\n", indent, e.tailCall(n.Signature))
		fmt.Fprintf(&b, "%s}\n", indent)
	}

	for _, child := range n.Childs {
		b.WriteString(e.node(child, indent))
	}

	if !n.SiblingFallThrough && (!n.FallThrough || (n.Param != nil && n.Param.AnyType)) {
		if len(n.Childs) == 0 {
			fmt.Fprintf(&b, "%sif (argc > %d) {\n", indent, depth)
			fmt.Fprintf(&b, "%s  throw createError(%q, argc, %d, arguments[%d]); // too many\n",
				indent, e.fnName(), depth, depth)
			fmt.Fprintf(&b, "%s}\n", indent)
		} else {
			fmt.Fprintf(&b, "%sthrow createError(%q, argc, %d, arguments[%d], %q);\n",
				indent, e.fnName(), depth, depth, strings.Join(childTypes(n.Childs), ","))
		}
	}
	return b.String()
}

// tailCall renders the return statement invoking an implementation, wrapping
// converted arguments in their conversion handles.
func (e *emitter) tailCall(s *signature.Signature) string {
	handle := e.pool.Add(s.Fn, "signature")
	args := make([]string, 0, len(s.Params))
	for i, p := range s.Params {
		if p.VarArgs {
			args = append(args, "varArgs")
			continue
		}
		a := arg(i)
		if c := p.Conversions[0]; c != nil {
			a = fmt.Sprintf("%s(%s)", e.convertHandle(c), a)
		}
		args = append(args, a)
	}
	return fmt.Sprintf("return %s(%s); // signature: %s", handle, strings.Join(args, ", "), s)
}

// testHandle resolves a type name to the pool handle the compile pass
// assigned to its predicate. Unregistered names never got a pool entry and
// render symbolically.
func (e *emitter) testHandle(typeName string) string {
	if entry, ok := e.reg.Lookup(typeName); ok {
		return e.pool.Add(entry.Test, "test")
	}
	return fmt.Sprintf("test_%s", typeName)
}

func (e *emitter) convertHandle(c *registry.Conversion) string {
	return e.pool.Add(c.Convert, "convert")
}

func arg(i int) string {
	return fmt.Sprintf("arg%d", i)
}
