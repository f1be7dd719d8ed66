package dispatch

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Pool is an append-only, category-indexed store of values the emitted
// dispatcher source refers to by stable textual handles: the predicate
// test3, the conversion convert0, the implementation signature2. Insertion
// deduplicates by identity within a category.
//
// The closure backend does not need the pool to dispatch; it exists so the
// emitted source has stable names for closed-over values.
type Pool struct {
	categories map[string][]any
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{categories: make(map[string][]any)}
}

// Add inserts a value into a category and returns its handle. Re-adding the
// same value yields the same handle.
func (p *Pool) Add(value any, category string) string {
	list := p.categories[category]
	for i, have := range list {
		if identical(have, value) {
			return fmt.Sprintf("%s%d", category, i)
		}
	}
	p.categories[category] = append(list, value)
	return fmt.Sprintf("%s%d", category, len(list))
}

// Get returns the value behind a category and index.
func (p *Pool) Get(category string, index int) any {
	return p.categories[category][index]
}

// ToCode emits the preamble local bindings that project each entry out of
// the pool object by category and index.
func (p *Pool) ToCode() string {
	cats := make([]string, 0, len(p.categories))
	for c := range p.categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var b strings.Builder
	for _, c := range cats {
		for i := range p.categories[c] {
			fmt.Fprintf(&b, "var %s%d = refs[%q][%d];\n", c, i, c, i)
		}
	}
	return b.String()
}

// identical compares pool entries by identity. Functions are compared by
// code pointer, everything else by plain equality when comparable.
func identical(a, b any) bool {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() == reflect.Func || bv.Kind() == reflect.Func {
		return av.Kind() == bv.Kind() && av.Pointer() == bv.Pointer()
	}
	if av.IsValid() && bv.IsValid() && av.Type().Comparable() && bv.Type().Comparable() {
		return a == b
	}
	return false
}
