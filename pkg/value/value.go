// Package value implements the tagged Value type shared by the state store
// and the DSL evaluator. Every Value carries a Kind and a canonical string
// form; coercions between kinds follow fixed, documented rules so that
// evaluation is deterministic across runs and across StateBackend
// implementations.
package value

import (
	"fmt"
	"strconv"
)

// Kind identifies the declared type of a Value. The numeric ordering is
// part of the external persistence contract (see state file format): it
// must not be reordered.
type Kind int

const (
	// KindString is the default kind; every value always has a string form.
	KindString Kind = 0

	// KindInt is a base-10 integer, saturating to 0 on parse failure.
	KindInt Kind = 1

	// KindBool is "true" or "false" in canonical form.
	KindBool Kind = 2

	// KindFloat is a decimal float formatted with FormatFloat.
	KindFloat Kind = 3
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a declared state-variable type name to a Kind. Unknown
// names default to KindString, matching the "advisory" treatment of
// declared types in the state model (the store holds canonical strings
// regardless of the declared type).
func ParseKind(name string) Kind {
	switch name {
	case "int":
		return KindInt
	case "bool":
		return KindBool
	case "float":
		return KindFloat
	default:
		return KindString
	}
}

// Value is a tagged union over string/int/bool/float. The canonical string
// form (Raw) is always present and is what the state store and evaluator
// operate on; Kind only records how the value was produced or declared.
type Value struct {
	Kind Kind
	Raw  string
}

// New wraps a raw string as a Value of the given kind without any
// coercion or validation; Raw is stored verbatim.
func New(kind Kind, raw string) Value {
	return Value{Kind: kind, Raw: raw}
}

// NewString creates a KindString Value.
func NewString(s string) Value { return Value{Kind: KindString, Raw: s} }

// NewInt creates a KindInt Value from an int64, formatted in base 10.
func NewInt(i int64) Value { return Value{Kind: KindInt, Raw: strconv.FormatInt(i, 10)} }

// NewBool creates a KindBool Value, canonicalized to "true"/"false".
func NewBool(b bool) Value { return Value{Kind: KindBool, Raw: FormatBool(b)} }

// NewFloat creates a KindFloat Value formatted with the shortest
// round-trip decimal representation.
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Raw: FormatFloat(f)} }

// String returns the canonical string form, satisfying fmt.Stringer.
func (v Value) String() string { return v.Raw }

// Int parses the canonical string as a base-10 integer, saturating to 0
// on parse failure (per the integer coercion rule).
func (v Value) Int() int64 { return ParseInt(v.Raw) }

// Float parses the canonical string as a decimal float, yielding 0.0 on
// parse failure.
func (v Value) Float() float64 { return ParseFloat(v.Raw) }

// Bool coerces the canonical string using the Bool coercion rule: "true"
// or "1" is true; "false" or "0" is false; otherwise non-empty is true
// and empty is false.
func (v Value) Bool() bool { return ParseBool(v.Raw) }

// ParseInt implements the integer coercion rule: base-10, saturating to 0
// on parse failure.
func ParseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseFloat implements the float coercion rule: decimal, 0.0 on failure.
func ParseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}

// ParseBool implements the Bool coercion rule from the data model:
//
//	"true" or "1"  -> true
//	"false" or "0" -> false
//	otherwise: non-empty -> true, empty -> false
func ParseBool(s string) bool {
	switch s {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return s != ""
	}
}

// FormatBool canonicalizes a bool to "true"/"false".
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// FormatFloat formats a float using the shortest round-trip decimal
// representation ('f' format, no exponent, minimal digits). This is the
// fixed formatter required for deterministic arithmetic output: repeated
// runs on identical hardware produce byte-identical results.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatInt canonicalizes an int64 to base-10.
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
