package shift

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWeight(t *testing.T) {
	cases := map[Kind]string{
		Half:    "0.5",
		Full:    "1",
		OneHalf: "1.5",
		Double:  "2",
	}
	for kind, want := range cases {
		got, err := Weight(kind)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", kind, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("%s: expected %s, got %s", kind, want, got)
		}
	}
}

func TestWeightUnknownKind(t *testing.T) {
	_, err := Weight("triple")
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	var kindErr *UnknownKindError
	if !errors.As(err, &kindErr) || kindErr.Kind != "triple" {
		t.Fatalf("expected UnknownKindError for triple, got %v", err)
	}
}

func TestParse(t *testing.T) {
	k, err := Parse("  Double ")
	if err != nil || k != Double {
		t.Fatalf("expected double, got %q (%v)", k, err)
	}
	if _, err := Parse("one-and-half"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
	if _, err := Parse(""); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected unknown kind error for empty input, got %v", err)
	}
}

func TestKindsOrderAndLabels(t *testing.T) {
	kinds := Kinds()
	want := []Kind{Half, Full, OneHalf, Double}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d kinds, got %d", len(want), len(kinds))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
	if Label(OneHalf) != "One and Half" {
		t.Fatalf("unexpected label %q", Label(OneHalf))
	}
	if Label("triple") != "triple" {
		t.Fatalf("expected raw code for unknown label")
	}
}
