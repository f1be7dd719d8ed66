// Package manifest reads a YAML description of a dispatch universe: extra
// type names, conversions, ignored types and a signature list. It exists
// for inspection tooling — the typedump command builds a system from a
// manifest with placeholder implementations and prints the compiled
// expansion, ordering and discrimination tree.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	typed "github.com/Hypercubed/typed-function"
)

// Manifest is the top-level document.
type Manifest struct {
	// Name is the dispatcher name, used in generated error messages.
	Name string `yaml:"name,omitempty"`

	// Types lists additional type names to register beyond the default
	// universe, in registry order. Manifest types carry a placeholder
	// predicate that never matches; they exist for static analysis of
	// ordering and tree shape, not for live dispatch.
	Types []string `yaml:"types,omitempty"`

	// Conversions are appended to the conversion list in document order;
	// the order is significant (earlier conversions win ties). The
	// placeholder convert function is the identity.
	Conversions []ConversionDecl `yaml:"conversions,omitempty"`

	// Ignore lists type names whose signatures are dropped at compile time.
	Ignore []string `yaml:"ignore,omitempty"`

	// Signatures is the ordered signature list to compose.
	Signatures []string `yaml:"signatures"`
}

// ConversionDecl is one from/to pair.
type ConversionDecl struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a manifest document and validates its shape.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if len(m.Signatures) == 0 {
		return nil, fmt.Errorf("invalid manifest: no signatures")
	}
	return &m, nil
}

// Build registers the manifest's types and conversions into a fresh system
// and composes its signatures. Each signature is bound to a placeholder
// implementation that returns the signature's own text, so a dispatched
// call reports which branch was selected.
func (m *Manifest) Build() (*typed.System, *typed.Dispatcher, error) {
	sys := typed.New()

	for _, name := range m.Types {
		err := sys.AddType(typed.Entry{
			Name: name,
			Test: func(any) bool { return false },
		})
		if err != nil {
			return nil, nil, err
		}
	}
	for _, c := range m.Conversions {
		err := sys.AddConversion(typed.Conversion{
			From:    c.From,
			To:      c.To,
			Convert: func(v any) any { return v },
		})
		if err != nil {
			return nil, nil, err
		}
	}
	sys.Ignore(m.Ignore...)

	pairs := make([]typed.Pair, len(m.Signatures))
	for i, text := range m.Signatures {
		pairs[i] = typed.Pair{Signature: text, Fn: placeholder(text)}
	}

	d, err := sys.ComposeNamed(m.Name, pairs...)
	if err != nil {
		return nil, nil, err
	}
	return sys, d, nil
}

// placeholder builds an implementation that reports which signature text a
// dispatched call selected.
func placeholder(text string) typed.Handler {
	return func(args []any) (any, error) {
		return text, nil
	}
}
