// Package value implements the tagged-union runtime value of the unitrt
// language: Nil, Number, String, Boolean and Rule. Copying a Value never
// deep-copies its payload — Go's own garbage collector already gives
// strings and Rule handles the shared-ownership semantics a reference
// counted carrier would, so there is no manual refcounting here.
package value

import "fmt"

// Kind identifies which variant of Value is populated. The zero Kind is
// KindNil, so the zero Value is the nil value, matching the data model.
type Kind uint8

const (
	KindNil Kind = iota
	KindNumber
	KindString
	KindBoolean
	KindRule
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindRule:
		return "rule"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is the runtime representation of every unitrt expression result and
// local slot. The zero Value is Nil.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	Rule Rule
}

// Nil is the zero Value, spelled out for call sites that want a name for it.
var Nil = Value{}

// Number constructs a Number value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// String constructs a String value. The underlying Go string is itself
// immutable and garbage-collected by the runtime, so this never copies the
// backing bytes.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Boolean constructs a Boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// FromRule constructs a Rule-carrying value.
func FromRule(r Rule) Value { return Value{Kind: KindRule, Rule: r} }

// IsNil reports whether v is the Nil value.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// Truthy implements the language's notion of "true" for conditions: nil and
// boolean-false are false, everything else (including the number 0) is
// true. This mirrors the minimal core, which never evaluates conditions
// itself (spec.md §4.3) but the rule still needs a single definition for
// any host/VM extension that does.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBoolean:
		return v.Bool
	default:
		return true
	}
}

// String renders v using the value_to_string formatter of spec.md §6.3.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindNumber:
		return fmt.Sprintf("%.15g", v.Num)
	case KindString:
		return v.Str
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindRule:
		return v.Rule.String()
	default:
		return "nil"
	}
}
