// Package registry holds the type universe a dispatcher is compiled against:
// an ordered list of named runtime type tests, an ordered list of
// conversions between those types, and a set of ignored type names.
//
// Order is semantically significant in both lists. The entry order breaks
// ties when two parameters are otherwise incomparable, and the conversion
// order decides which conversion wins when several could satisfy a call.
package registry

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Entry is a single named runtime type with its membership predicate.
type Entry struct {
	Name string
	Test func(value any) bool
}

// Conversion declares that a value of type From may satisfy a parameter of
// type To after being passed through Convert.
type Conversion struct {
	From    string
	To      string
	Convert func(value any) any
}

// Registry is one isolated type universe. Mutations are only meaningful
// before a dispatcher is compiled; compilation captures the predicates and
// conversions it needs and never re-reads the lists during dispatch.
type Registry struct {
	entries     []Entry
	conversions []*Conversion
	ignored     []string
}

// New returns a registry populated with the default type entries.
func New() *Registry {
	return &Registry{entries: defaultEntries()}
}

// Empty returns a registry with no entries at all.
func Empty() *Registry {
	return &Registry{}
}

// AddType validates and appends a type entry.
func (r *Registry) AddType(e Entry) error {
	if e.Name == "" || e.Test == nil {
		return fmt.Errorf("invalid type entry: object with properties {name: string, test: function} expected")
	}
	if _, ok := r.Lookup(e.Name); ok {
		return fmt.Errorf("type %q is already registered", e.Name)
	}
	r.entries = append(r.entries, e)
	return nil
}

// AddConversion validates and appends a conversion. Both endpoints must name
// registered types.
func (r *Registry) AddConversion(c Conversion) error {
	if c.From == "" || c.To == "" || c.Convert == nil {
		return fmt.Errorf("invalid conversion: object with properties {from: string, to: string, convert: function} expected")
	}
	for _, name := range []string{c.From, c.To} {
		if _, ok := r.Lookup(name); !ok {
			return r.unknownType(name)
		}
	}
	cc := c
	r.conversions = append(r.conversions, &cc)
	return nil
}

// Ignore appends names to the ignore list. Signatures mentioning an ignored
// type are dropped at parse time.
func (r *Registry) Ignore(names ...string) {
	r.ignored = append(r.ignored, names...)
}

// Lookup finds an entry by exact name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	return lo.Find(r.entries, func(e Entry) bool { return e.Name == name })
}

// IndexOf returns the position of a type name in the registry. Unregistered
// names sort after all registered ones, so the length of the entry list is
// returned for them.
func (r *Registry) IndexOf(name string) int {
	_, i, ok := lo.FindIndexOf(r.entries, func(e Entry) bool { return e.Name == name })
	if !ok {
		return len(r.entries)
	}
	return i
}

// Validate checks that a type name may appear in a signature. The reserved
// name "any" is always legal. Unknown names are reported with a
// case-insensitive suggestion when one exists.
func (r *Registry) Validate(name string) error {
	if name == Any {
		return nil
	}
	if _, ok := r.Lookup(name); !ok {
		return r.unknownType(name)
	}
	return nil
}

func (r *Registry) unknownType(name string) error {
	hint, ok := lo.Find(r.entries, func(e Entry) bool {
		return strings.EqualFold(e.Name, name) && e.Name != name
	})
	if ok {
		return fmt.Errorf("unknown type %q, did you mean %q?", name, hint.Name)
	}
	return fmt.Errorf("unknown type %q", name)
}

// Ignored reports whether a type name is on the ignore list.
func (r *Registry) Ignored(name string) bool {
	return lo.Contains(r.ignored, name)
}

// Entries returns the ordered entry list.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Conversions returns the ordered conversion list.
func (r *Registry) Conversions() []*Conversion {
	return r.conversions
}

// ConversionsTo returns, in list order, the conversions targeting the named
// type.
func (r *Registry) ConversionsTo(to string) []*Conversion {
	return lo.Filter(r.conversions, func(c *Conversion, _ int) bool { return c.To == to })
}

// ConversionIndex returns the position of a conversion in the list, or the
// list length when it is not present.
func (r *Registry) ConversionIndex(c *Conversion) int {
	for i, have := range r.conversions {
		if have == c {
			return i
		}
	}
	return len(r.conversions)
}

// ConvertValue applies the first conversion from the value's runtime type to
// the named target type. Converting a value that already has the target type
// is the identity.
func (r *Registry) ConvertValue(value any, to string) (any, error) {
	from := r.TypeOf(value)
	if from == to {
		return value, nil
	}
	for _, c := range r.conversions {
		if c.From == from && c.To == to {
			return c.Convert(value), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %v of type %q to type %q", value, from, to)
}
