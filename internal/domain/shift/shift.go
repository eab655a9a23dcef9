// Package shift holds the valuation table that turns a shift classification
// into day-equivalent units. Equivalence is always computed from this table
// at read time and never persisted per record.
package shift

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	Half    Kind = "half"
	Full    Kind = "full"
	OneHalf Kind = "onehalf"
	Double  Kind = "double"
)

var ErrUnknownKind = errors.New("unknown shift kind")

type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown shift kind %q", string(e.Kind))
}

func (e *UnknownKindError) Unwrap() error {
	return ErrUnknownKind
}

type entry struct {
	kind   Kind
	label  string
	weight decimal.Decimal
}

var table = []entry{
	{kind: Half, label: "Half Day", weight: decimal.New(5, -1)},
	{kind: Full, label: "Full Day", weight: decimal.New(1, 0)},
	{kind: OneHalf, label: "One and Half", weight: decimal.New(15, -1)},
	{kind: Double, label: "Double Shift", weight: decimal.New(2, 0)},
}

var index = func() map[Kind]entry {
	out := make(map[Kind]entry, len(table))
	for _, e := range table {
		out[e.kind] = e
	}
	return out
}()

// Kinds returns every known kind in display order.
func Kinds() []Kind {
	out := make([]Kind, len(table))
	for i, e := range table {
		out[i] = e.kind
	}
	return out
}

// Codes is Kinds as plain strings, for enum validation.
func Codes() []string {
	out := make([]string, len(table))
	for i, e := range table {
		out[i] = string(e.kind)
	}
	return out
}

func Known(k Kind) bool {
	_, ok := index[k]
	return ok
}

func Parse(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !Known(k) {
		return "", &UnknownKindError{Kind: Kind(raw)}
	}
	return k, nil
}

func Weight(k Kind) (decimal.Decimal, error) {
	e, ok := index[k]
	if !ok {
		return decimal.Zero, &UnknownKindError{Kind: k}
	}
	return e.weight, nil
}

func Label(k Kind) string {
	if e, ok := index[k]; ok {
		return e.label
	}
	return string(k)
}
