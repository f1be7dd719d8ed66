// Package signature models the declarative side of a dispatcher: a Param is
// one parameter slot (accepted type names, optional parallel conversions, a
// variadic flag), and a Signature is a sequence of Params bound to an
// implementation. Expansion rewrites a Signature into single-type branches
// plus conversion-bearing siblings; the total orders defined here decide
// which branch wins when several could match a call.
package signature

import (
	"strings"

	"github.com/samber/lo"

	"github.com/Hypercubed/typed-function/internal/registry"
)

// VarArgsPrefix marks a variadic parameter in signature text.
const VarArgsPrefix = "..."

// Param is a single parameter slot.
//
// Types and Conversions are parallel lists: Conversions[i] is nil when
// Types[i] is accepted directly, and otherwise holds the conversion whose
// From equals Types[i]. Conversions are only ever attached during expansion;
// a freshly parsed Param accepts all of its types directly.
type Param struct {
	Types       []string
	Conversions []*registry.Conversion
	VarArgs     bool
	AnyType     bool
}

// ParseParam parses one parameter spec: a |-separated list of type names,
// optionally prefixed with "..." to make it variadic. Whitespace around
// alternatives is trimmed; an empty spec yields the any parameter.
func ParseParam(spec string, reg *registry.Registry) (*Param, error) {
	spec = strings.TrimSpace(spec)
	varArgs := strings.HasPrefix(spec, VarArgsPrefix)
	if varArgs {
		spec = strings.TrimSpace(strings.TrimPrefix(spec, VarArgsPrefix))
	}

	var types []string
	if spec == "" {
		types = []string{registry.Any}
	} else {
		types = lo.Map(strings.Split(spec, "|"), func(t string, _ int) string {
			return strings.TrimSpace(t)
		})
	}
	for _, t := range types {
		if err := reg.Validate(t); err != nil {
			return nil, err
		}
	}

	return NewParam(types, varArgs), nil
}

// NewParam builds a Param accepting the given types directly.
func NewParam(types []string, varArgs bool) *Param {
	return &Param{
		Types:       types,
		Conversions: make([]*registry.Conversion, len(types)),
		VarArgs:     varArgs,
		AnyType:     lo.Contains(types, registry.Any),
	}
}

// converted builds a single-type Param whose one entry is reached through a
// conversion (nil for a direct single-type branch).
func converted(typeName string, conv *registry.Conversion, varArgs bool) *Param {
	p := NewParam([]string{typeName}, varArgs)
	p.Conversions[0] = conv
	return p
}

// Clone deep-copies the type and conversion lists.
func (p *Param) Clone() *Param {
	c := *p
	c.Types = append([]string(nil), p.Types...)
	c.Conversions = append([]*registry.Conversion(nil), p.Conversions...)
	return &c
}

// Overlapping reports whether two Params share at least one type name.
func (p *Param) Overlapping(other *Param) bool {
	return lo.SomeBy(p.Types, func(t string) bool {
		return lo.Contains(other.Types, t)
	})
}

// Matches reports whether the Params could accept the same argument: true
// when either is any-typed or they overlap.
func (p *Param) Matches(other *Param) bool {
	return p.AnyType || other.AnyType || p.Overlapping(other)
}

// Contains reports whether any of the given names is among the accepted
// types.
func (p *Param) Contains(names []string) bool {
	return lo.SomeBy(p.Types, func(t string) bool {
		return lo.Contains(names, t)
	})
}

// HasConversions reports whether any type entry is reached through a
// conversion.
func (p *Param) HasConversions() bool {
	return lo.SomeBy(p.Conversions, func(c *registry.Conversion) bool { return c != nil })
}

// firstConversion returns the first defined conversion, or nil.
func (p *Param) firstConversion() *registry.Conversion {
	for _, c := range p.Conversions {
		if c != nil {
			return c
		}
	}
	return nil
}

// DirectTypes returns the types accepted without a conversion.
func (p *Param) DirectTypes() []string {
	var out []string
	for i, t := range p.Types {
		if p.Conversions[i] == nil {
			out = append(out, t)
		}
	}
	return out
}

// String renders the Param in signature-text form: a "..." prefix when
// variadic, then the types joined by "|". Types reached through a conversion
// appear under their own names.
func (p *Param) String() string {
	return p.render(false)
}

// StringTargets is String with each type reached through a conversion
// replaced by the conversion's target; duplicates after replacement are
// elided preserving first occurrence.
func (p *Param) StringTargets() string {
	return p.render(true)
}

func (p *Param) render(showTarget bool) string {
	types := p.Types
	if showTarget {
		types = lo.Uniq(lo.Map(p.Types, func(t string, i int) string {
			if p.Conversions[i] != nil {
				return p.Conversions[i].To
			}
			return t
		}))
	}
	s := strings.Join(types, "|")
	if p.VarArgs {
		return VarArgsPrefix + s
	}
	return s
}

// Compare is the total order over Params, relative to the registry.
// Earlier rule wins:
//
//  1. any-typed Params sort last;
//  2. Params containing Object sort second-to-last (Object is structurally
//     permissive and would shadow finer types);
//  3. a Param without conversions sorts before one with conversions;
//  4. two converting Params compare by the conversion-list index of their
//     first defined conversion;
//  5. otherwise by the registry index of the first type.
func Compare(reg *registry.Registry, a, b *Param) int {
	if a.AnyType || b.AnyType {
		if a.AnyType == b.AnyType {
			return 0
		}
		if a.AnyType {
			return 1
		}
		return -1
	}

	aObj := lo.Contains(a.Types, registry.TypeObject)
	bObj := lo.Contains(b.Types, registry.TypeObject)
	if aObj != bObj {
		if aObj {
			return 1
		}
		return -1
	}

	ac, bc := a.firstConversion(), b.firstConversion()
	switch {
	case ac != nil && bc == nil:
		return 1
	case ac == nil && bc != nil:
		return -1
	case ac != nil && bc != nil:
		return sign(reg.ConversionIndex(ac) - reg.ConversionIndex(bc))
	}

	return sign(reg.IndexOf(a.Types[0]) - reg.IndexOf(b.Types[0]))
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
