package signature

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/Hypercubed/typed-function/internal/registry"
)

// Handler is a user implementation. It receives the bound positional
// arguments, converted where the matched signature declares a conversion; a
// variadic tail arrives as a single []any in the last slot. Errors returned
// by a Handler propagate to the caller unchanged.
type Handler func(args []any) (any, error)

// Signature is a sequence of Params bound to an implementation.
type Signature struct {
	Params  []*Param
	Fn      Handler
	AnyType bool
	VarArgs bool
}

// Parse parses a comma-delimited signature text. Empty or blank text yields
// an arity-0 signature; the any-Param rule for an empty spec only applies to
// explicitly delimited parameter positions.
func Parse(text string, fn Handler, reg *registry.Registry) (*Signature, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return New(nil, fn), nil
	}

	specs := strings.Split(text, ",")
	params := make([]*Param, 0, len(specs))
	for i, spec := range specs {
		p, err := ParseParam(spec, reg)
		if err != nil {
			return nil, err
		}
		if p.VarArgs && i != len(specs)-1 {
			return nil, fmt.Errorf("invalid signature %q: variadic parameter must be the last", text)
		}
		params = append(params, p)
	}
	return New(params, fn), nil
}

// New builds a Signature from already-constructed Params, deriving the
// anyType and varArgs flags.
func New(params []*Param, fn Handler) *Signature {
	return &Signature{
		Params: params,
		Fn:     fn,
		AnyType: lo.SomeBy(params, func(p *Param) bool {
			return p.AnyType
		}),
		VarArgs: len(params) > 0 && params[len(params)-1].VarArgs,
	}
}

// Key is the canonical text of the signature: Params joined by "," with the
// variadic marker on the last.
func (s *Signature) Key() string {
	return strings.Join(lo.Map(s.Params, func(p *Param, _ int) string {
		return p.String()
	}), ",")
}

// String renders the signature with conversion targets substituted, which is
// the user-facing form.
func (s *Signature) String() string {
	return strings.Join(lo.Map(s.Params, func(p *Param, _ int) string {
		return p.StringTargets()
	}), ",")
}

// HasConversions reports whether any Param converts.
func (s *Signature) HasConversions() bool {
	return lo.SomeBy(s.Params, (*Param).HasConversions)
}

// conversionCount counts the Params that convert.
func (s *Signature) conversionCount() int {
	return lo.CountBy(s.Params, (*Param).HasConversions)
}

// Ignore reports whether the signature mentions an ignored type and should
// be dropped at parse time.
func (s *Signature) Ignore(reg *registry.Registry) bool {
	return lo.SomeBy(s.Params, func(p *Param) bool {
		return lo.SomeBy(p.Types, reg.Ignored)
	})
}

// ParamAt returns the Param matched against argument position i, treating a
// trailing variadic Param as repeatable. Nil when the signature cannot
// consume an argument at that position.
func (s *Signature) ParamAt(i int) *Param {
	if i < len(s.Params) {
		return s.Params[i]
	}
	if s.VarArgs && len(s.Params) > 0 {
		return s.Params[len(s.Params)-1]
	}
	return nil
}

// ParamsStartWith reports whether this signature could match a call whose
// leading arguments were matched by the given path of Params.
func (s *Signature) ParamsStartWith(path []*Param) bool {
	for i, p := range path {
		sp := s.ParamAt(i)
		if sp == nil || !sp.Matches(p) {
			return false
		}
	}
	return true
}

// Expand splits unions and injects conversions, producing signatures whose
// non-variadic Params each carry exactly one accepted type. A variadic Param
// is not split; its type list is extended with one entry per applicable
// conversion instead.
func (s *Signature) Expand(reg *registry.Registry) []*Signature {
	var out []*Signature

	var walk func(idx int, path []*Param)
	walk = func(idx int, path []*Param) {
		if idx == len(s.Params) {
			out = append(out, New(append([]*Param(nil), path...), s.Fn))
			return
		}

		p := s.Params[idx]
		if p.VarArgs {
			vp := p.Clone()
			for _, c := range reg.Conversions() {
				if lo.Contains(p.Types, c.To) && !lo.Contains(vp.Types, c.From) {
					vp.Types = append(vp.Types, c.From)
					vp.Conversions = append(vp.Conversions, c)
				}
			}
			walk(idx+1, append(path, vp))
			return
		}

		for _, t := range p.Types {
			walk(idx+1, append(path, NewParam([]string{t}, false)))
		}
		for _, c := range reg.Conversions() {
			if lo.Contains(p.Types, c.To) && !lo.Contains(p.Types, c.From) {
				walk(idx+1, append(path, converted(c.From, c, false)))
			}
		}
	}

	walk(0, nil)
	return out
}

// CompareSignatures is the total order over Signatures:
//
//  1. fewer Params first;
//  2. fewer converting Params first;
//  3. otherwise lexicographic by the Param order.
func CompareSignatures(reg *registry.Registry, a, b *Signature) int {
	if d := sign(len(a.Params) - len(b.Params)); d != 0 {
		return d
	}
	if d := sign(a.conversionCount() - b.conversionCount()); d != 0 {
		return d
	}
	for i := range a.Params {
		if d := Compare(reg, a.Params[i], b.Params[i]); d != 0 {
			return d
		}
	}
	return 0
}
