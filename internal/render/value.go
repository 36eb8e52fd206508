package render

import (
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindNumber
	KindFlag
)

// Value is a placeholder value. It is a closed variant: construct it with
// Text, Int, Number or Flag.
type Value struct {
	kind      Kind
	text      string
	integer   int64
	number    float64
	flag      bool
	whenTrue  string
	whenFalse string
}

// Text wraps a string value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Int wraps an integer value, rendered in base 10.
func Int(n int64) Value {
	return Value{kind: KindInt, integer: n}
}

// Number wraps a floating point value, rendered as the shortest plain
// decimal that round-trips (no exponent).
func Number(f float64) Value {
	return Value{kind: KindNumber, number: f}
}

// Flag wraps a boolean together with the strings the caller wants for each
// state. The engine has no default wording for booleans.
func Flag(b bool, whenTrue, whenFalse string) Value {
	return Value{kind: KindFlag, flag: b, whenTrue: whenTrue, whenFalse: whenFalse}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// String returns the rendered form of v.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInt:
		return strconv.FormatInt(v.integer, 10)
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case KindFlag:
		if v.flag {
			return v.whenTrue
		}
		return v.whenFalse
	default:
		panic("render: unknown value kind " + strconv.Itoa(int(v.kind)))
	}
}

// Context maps placeholder names to values for a single Render call.
type Context map[string]Value
