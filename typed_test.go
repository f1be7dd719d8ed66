package typed

import (
	"reflect"
	"strings"
	"testing"
)

func first(args []any) (any, error)  { return append([]any{"first"}, args...), nil }
func second(args []any) (any, error) { return append([]any{"second"}, args...), nil }

func TestCompose(t *testing.T) {
	sys := New()
	d, err := sys.Compose(
		Pair{Signature: "number, number", Fn: first},
		Pair{Signature: "string", Fn: second},
	)
	if err != nil {
		t.Fatalf("Compose returned %v", err)
	}

	got, err := d.Call(1, 2)
	if err != nil {
		t.Fatalf("Call(1,2) returned %v", err)
	}
	if !reflect.DeepEqual(got, []any{"first", 1, 2}) {
		t.Errorf("Call(1,2) = %v", got)
	}

	_, err = d.Call(true)
	var argsErr *ArgumentsError
	if err == nil {
		t.Fatal("expected an ArgumentsError")
	}
	var ok bool
	if argsErr, ok = err.(*ArgumentsError); !ok {
		t.Fatalf("got %T, want *ArgumentsError", err)
	}
	if argsErr.Index != 0 {
		t.Errorf("Index = %d, want 0", argsErr.Index)
	}
}

func TestComposeNamed(t *testing.T) {
	sys := New()
	d, err := sys.ComposeNamed("area", Pair{Signature: "number", Fn: first})
	if err != nil {
		t.Fatal(err)
	}
	if d.Name() != "area" {
		t.Errorf("Name() = %q, want %q", d.Name(), "area")
	}
	_, err = d.Call("x")
	if err == nil || !strings.Contains(err.Error(), "function area") {
		t.Errorf("error should carry the dispatcher name, got %v", err)
	}
}

func TestFind(t *testing.T) {
	sys := New()
	d, err := sys.Compose(
		Pair{Signature: "number|string, boolean", Fn: first},
	)
	if err != nil {
		t.Fatal(err)
	}

	// Whitespace in the query is normalized; the lookup itself is exact.
	fn, err := sys.Find(d, "number, boolean")
	if err != nil {
		t.Fatalf("Find returned %v", err)
	}
	res, _ := fn([]any{1, true})
	if !reflect.DeepEqual(res, []any{"first", 1, true}) {
		t.Errorf("found handler returned %v", res)
	}

	// The unexpanded union is not a key.
	if _, err := sys.Find(d, "number|string, boolean"); err == nil {
		t.Error("expected error for union key")
	}
	if _, err := sys.Find(d, "boolean, boolean"); err == nil {
		t.Error("expected error for unknown signature")
	}
}

func TestAddTypeAndConversion(t *testing.T) {
	sys := New()
	type point struct{ x, y int }

	err := sys.AddType(Entry{Name: "Point", Test: func(v any) bool {
		_, ok := v.(point)
		return ok
	}})
	if err != nil {
		t.Fatal(err)
	}
	err = sys.AddConversion(Conversion{From: "number", To: "Point", Convert: func(v any) any {
		return point{v.(int), v.(int)}
	}})
	if err != nil {
		t.Fatal(err)
	}

	d, err := sys.Compose(Pair{Signature: "Point", Fn: first})
	if err != nil {
		t.Fatal(err)
	}

	got, err := d.Call(point{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{"first", point{1, 2}}) {
		t.Errorf("Call(point) = %v", got)
	}

	// The declared conversion routes numbers into the Point signature.
	got, err = d.Call(3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{"first", point{3, 3}}) {
		t.Errorf("Call(3) = %v", got)
	}

	if tn := sys.TypeOf(point{}); tn != "Point" {
		t.Errorf("TypeOf(point) = %q, want Point", tn)
	}

	v, err := sys.Convert(4, "Point")
	if err != nil {
		t.Fatal(err)
	}
	if v != (point{4, 4}) {
		t.Errorf("Convert(4, Point) = %v", v)
	}
	if _, err := sys.Convert("x", "Point"); err == nil {
		t.Error("expected error for missing conversion path")
	}
}

// Each System is isolated: types registered in one do not leak into
// another.
func TestSystemIsolation(t *testing.T) {
	a, b := New(), New()
	if a.ID() == b.ID() {
		t.Error("instances must have distinct identities")
	}

	if err := a.AddType(Entry{Name: "Custom", Test: func(any) bool { return false }}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Compose(Pair{Signature: "Custom", Fn: first}); err == nil {
		t.Error("Custom must be unknown in the second instance")
	}
	if _, err := a.Compose(Pair{Signature: "Custom", Fn: first}); err != nil {
		t.Errorf("Compose returned %v", err)
	}
}

func TestMergeFacade(t *testing.T) {
	sys := New()
	d1, _ := sys.Compose(Pair{Signature: "number", Fn: first})
	d2, _ := sys.Compose(Pair{Signature: "string", Fn: second})

	merged, err := sys.Merge(d1, d2)
	if err != nil {
		t.Fatalf("Merge returned %v", err)
	}
	got, err := merged.Call("x")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{"second", "x"}) {
		t.Errorf("Call(x) = %v", got)
	}
}

func TestDefaultSystem(t *testing.T) {
	d, err := Compose(Pair{Signature: "boolean", Fn: first})
	if err != nil {
		t.Fatalf("Compose returned %v", err)
	}
	got, err := d.Call(true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{"first", true}) {
		t.Errorf("Call(true) = %v", got)
	}
	if TypeOf(1.5) != "number" {
		t.Errorf("TypeOf(1.5) = %q", TypeOf(1.5))
	}
}

func TestIgnoreFacade(t *testing.T) {
	sys := New()
	sys.Ignore("RegExp")

	d, err := sys.Compose(
		Pair{Signature: "number", Fn: first},
		Pair{Signature: "RegExp", Fn: second},
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Find(d, "RegExp"); err == nil {
		t.Error("ignored signature must not be findable")
	}
}
