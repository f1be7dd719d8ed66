package manifest

import (
	"strings"
	"testing"
)

const sample = `
name: area
conversions:
  - {from: boolean, to: number}
ignore: [RegExp]
signatures:
  - "number, number"
  - "...number"
  - "RegExp"
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned %v", err)
	}
	if m.Name != "area" {
		t.Errorf("Name = %q, want area", m.Name)
	}
	if len(m.Signatures) != 3 {
		t.Errorf("Signatures = %d, want 3", len(m.Signatures))
	}
	if len(m.Conversions) != 1 || m.Conversions[0].From != "boolean" {
		t.Errorf("Conversions = %v", m.Conversions)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("signatures: []")); err == nil {
		t.Error("expected error for empty signature list")
	}
	if _, err := Parse([]byte("\t nope")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestBuild(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	_, d, err := m.Build()
	if err != nil {
		t.Fatalf("Build returned %v", err)
	}
	if d.Name() != "area" {
		t.Errorf("Name() = %q", d.Name())
	}

	// Placeholder implementations report the selected signature text.
	res, err := d.Call(1, 2)
	if err != nil {
		t.Fatalf("Call(1,2) returned %v", err)
	}
	if res != "number, number" {
		t.Errorf("Call(1,2) = %v, want the signature text", res)
	}

	res, err = d.Call(1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res != "...number" {
		t.Errorf("Call(1,2,3) = %v", res)
	}

	// The manifest conversion routes booleans into the number signatures.
	if _, err := d.Call(true, false); err != nil {
		t.Errorf("Call(true,false) returned %v", err)
	}

	// The ignored RegExp signature is dropped.
	for _, e := range d.Signatures() {
		if strings.Contains(e.Key, "RegExp") {
			t.Errorf("ignored signature %q survived", e.Key)
		}
	}
}

func TestBuildCustomTypes(t *testing.T) {
	m, err := Parse([]byte(`
types: [Decimal]
signatures:
  - "Decimal"
  - "number"
`))
	if err != nil {
		t.Fatal(err)
	}
	_, d, err := m.Build()
	if err != nil {
		t.Fatalf("Build returned %v", err)
	}
	// Placeholder types never match live values; numbers still dispatch.
	res, err := d.Call(5)
	if err != nil {
		t.Fatal(err)
	}
	if res != "number" {
		t.Errorf("Call(5) = %v", res)
	}
}
