package registry

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestTypeOf(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"int", 42, TypeNumber},
		{"float", 2.5, TypeNumber},
		{"uint8", uint8(1), TypeNumber},
		{"string", "hello", TypeString},
		{"bool", true, TypeBoolean},
		{"func", func() {}, TypeFunction},
		{"slice", []any{1, 2}, TypeArray},
		{"empty slice", []int{}, TypeArray},
		{"array", [2]int{1, 2}, TypeArray},
		{"time", time.Now(), TypeDate},
		{"regexp", regexp.MustCompile(`a+`), TypeRegExp},
		{"map", map[string]any{}, TypeObject},
		{"struct", struct{ X int }{1}, TypeObject},
		{"nil", nil, TypeNull},
		{"channel", make(chan int), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.TypeOf(tt.value); got != tt.expected {
				t.Errorf("TypeOf(%v) = %q, want %q", tt.value, got, tt.expected)
			}
		})
	}
}

// The Object entry is deferred: Array must win even when Object is moved to
// the front of the registry.
func TestTypeOfObjectDeferred(t *testing.T) {
	r := Empty()
	if err := r.AddType(Entry{Name: TypeObject, Test: IsObject}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddType(Entry{Name: TypeArray, Test: IsArray}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddType(Entry{Name: TypeDate, Test: IsDate}); err != nil {
		t.Fatal(err)
	}

	if got := r.TypeOf([]any{}); got != TypeArray {
		t.Errorf("TypeOf([]) = %q, want %q", got, TypeArray)
	}
	if got := r.TypeOf(time.Now()); got != TypeDate {
		t.Errorf("TypeOf(time.Time) = %q, want %q", got, TypeDate)
	}
	if got := r.TypeOf(map[string]int{}); got != TypeObject {
		t.Errorf("TypeOf(map) = %q, want %q", got, TypeObject)
	}
}

func TestAddType(t *testing.T) {
	r := New()

	if err := r.AddType(Entry{Name: "Decimal", Test: func(any) bool { return false }}); err != nil {
		t.Fatalf("AddType(Decimal) returned %v", err)
	}
	if _, ok := r.Lookup("Decimal"); !ok {
		t.Error("Decimal not registered")
	}

	if err := r.AddType(Entry{Name: "Decimal", Test: func(any) bool { return false }}); err == nil {
		t.Error("expected error for duplicate type name")
	}
	if err := r.AddType(Entry{Name: "", Test: func(any) bool { return false }}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.AddType(Entry{Name: "X"}); err == nil {
		t.Error("expected error for missing test")
	}
}

func TestAddConversion(t *testing.T) {
	r := New()

	err := r.AddConversion(Conversion{From: TypeBoolean, To: TypeNumber, Convert: func(v any) any { return 1 }})
	if err != nil {
		t.Fatalf("AddConversion returned %v", err)
	}
	if len(r.Conversions()) != 1 {
		t.Fatalf("expected 1 conversion, got %d", len(r.Conversions()))
	}

	if err := r.AddConversion(Conversion{From: "nope", To: TypeNumber, Convert: func(v any) any { return v }}); err == nil {
		t.Error("expected error for unregistered from type")
	}
	if err := r.AddConversion(Conversion{From: TypeBoolean, To: TypeNumber}); err == nil {
		t.Error("expected error for missing convert function")
	}
}

func TestValidateHint(t *testing.T) {
	r := New()
	err := r.Validate("NUMBER")
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if !strings.Contains(err.Error(), `did you mean "number"`) {
		t.Errorf("expected case-insensitive hint, got %q", err.Error())
	}

	if err := r.Validate(Any); err != nil {
		t.Errorf("Validate(any) returned %v", err)
	}
}

func TestIndexOfUnregistered(t *testing.T) {
	r := New()
	if got := r.IndexOf("no such type"); got != len(r.Entries()) {
		t.Errorf("IndexOf(unregistered) = %d, want %d", got, len(r.Entries()))
	}
	if got := r.IndexOf(TypeNumber); got != 0 {
		t.Errorf("IndexOf(number) = %d, want 0", got)
	}
}

func TestConvertValue(t *testing.T) {
	r := New()
	if err := r.AddConversion(Conversion{
		From:    TypeBoolean,
		To:      TypeNumber,
		Convert: func(v any) any { return boolToNumber(v.(bool)) },
	}); err != nil {
		t.Fatal(err)
	}

	got, err := r.ConvertValue(true, TypeNumber)
	if err != nil {
		t.Fatalf("ConvertValue(true, number) returned %v", err)
	}
	if got != 1 {
		t.Errorf("ConvertValue(true, number) = %v, want 1", got)
	}

	// Identity when the value already has the target type.
	got, err = r.ConvertValue(7, TypeNumber)
	if err != nil {
		t.Fatalf("ConvertValue(7, number) returned %v", err)
	}
	if got != 7 {
		t.Errorf("ConvertValue(7, number) = %v, want 7", got)
	}

	if _, err := r.ConvertValue("x", TypeBoolean); err == nil {
		t.Error("expected error when no conversion path exists")
	}
}

func TestIgnored(t *testing.T) {
	r := New()
	r.Ignore(TypeRegExp)
	if !r.Ignored(TypeRegExp) {
		t.Error("RegExp should be ignored")
	}
	if r.Ignored(TypeNumber) {
		t.Error("number should not be ignored")
	}
}

func boolToNumber(b bool) int {
	if b {
		return 1
	}
	return 0
}
