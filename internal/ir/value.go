package ir

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a single typed field value. Integers are stored as their 64-bit
// two's complement bit pattern, floats as float64 bits.
type Value struct {
	Type FieldType
	bits uint64
}

// Int returns a value of signed integer type t. The value is truncated to the
// width of t; use FitsInt to check the range first.
func Int(t FieldType, v int64) Value {
	switch t {
	case TypeInt8:
		v = int64(int8(v))
	case TypeInt16:
		v = int64(int16(v))
	case TypeInt32:
		v = int64(int32(v))
	}
	return Value{Type: t, bits: uint64(v)}
}

// Uint returns a value of unsigned integer or id type t, truncated to width.
func Uint(t FieldType, v uint64) Value {
	switch t.Size() {
	case 1:
		v = uint64(uint8(v))
	case 2:
		v = uint64(uint16(v))
	case 4:
		v = uint64(uint32(v))
	}
	return Value{Type: t, bits: v}
}

// Float returns a value of float type t. float32 values are rounded.
func Float(t FieldType, v float64) Value {
	if t == TypeFloat32 {
		v = float64(float32(v))
	}
	return Value{Type: t, bits: math.Float64bits(v)}
}

// ID returns an id32 or id64 value.
func ID(t FieldType, v uint64) Value {
	return Uint(t, v)
}

// Int64 returns the value as a signed integer.
func (v Value) Int64() int64 {
	if v.Type.Float() {
		return int64(v.Float64())
	}
	return int64(v.bits)
}

// Uint64 returns the value as an unsigned integer.
func (v Value) Uint64() uint64 {
	if v.Type.Float() {
		return uint64(v.Float64())
	}
	return v.bits
}

// Float64 returns the value as a float.
func (v Value) Float64() float64 {
	switch {
	case v.Type.Float():
		return math.Float64frombits(v.bits)
	case v.Type.Signed():
		return float64(int64(v.bits))
	default:
		return float64(v.bits)
	}
}

// Equal compares two values of the same type. Floats compare numerically.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	if v.Type.Float() {
		return v.Float64() == o.Float64()
	}
	return v.bits == o.bits
}

// Interface returns the value as a Go scalar: int64 for signed types,
// uint64 for unsigned and id types, float64 for floats.
func (v Value) Interface() any {
	switch {
	case v.Type.Float():
		return v.Float64()
	case v.Type.Signed():
		return int64(v.bits)
	default:
		return v.bits
	}
}

func (v Value) String() string {
	switch {
	case v.Type.Float():
		bitSize := 64
		if v.Type == TypeFloat32 {
			bitSize = 32
		}
		return strconv.FormatFloat(v.Float64(), 'g', -1, bitSize)
	case v.Type.Signed():
		return strconv.FormatInt(int64(v.bits), 10)
	default:
		return strconv.FormatUint(v.bits, 10)
	}
}

// FitsInt reports whether n is representable in field type t.
func FitsInt(t FieldType, n int64) bool {
	switch t {
	case TypeInt8:
		return n >= math.MinInt8 && n <= math.MaxInt8
	case TypeInt16:
		return n >= math.MinInt16 && n <= math.MaxInt16
	case TypeInt32:
		return n >= math.MinInt32 && n <= math.MaxInt32
	case TypeInt64:
		return true
	case TypeUint8:
		return n >= 0 && n <= math.MaxUint8
	case TypeUint16:
		return n >= 0 && n <= math.MaxUint16
	case TypeUint32, TypeID32:
		return n >= 0 && n <= math.MaxUint32
	case TypeUint64, TypeID64:
		return n >= 0
	case TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

// FromInt converts an integer literal to a value of type t, checking range.
func FromInt(t FieldType, n int64) (Value, error) {
	if !t.Valid() {
		return Value{}, fmt.Errorf("invalid field type %s", t)
	}
	if !FitsInt(t, n) {
		return Value{}, fmt.Errorf("%d out of range for %s", n, t)
	}
	switch {
	case t.Float():
		return Float(t, float64(n)), nil
	case t.Signed():
		return Int(t, n), nil
	default:
		return Uint(t, uint64(n)), nil
	}
}

// FromFloat converts a float literal to a value of type t. Integer types only
// accept integral values.
func FromFloat(t FieldType, f float64) (Value, error) {
	if t.Float() {
		return Float(t, f), nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, fmt.Errorf("%v is not an integer, field type is %s", f, t)
	}
	if f >= math.MaxInt64 {
		if t == TypeUint64 || t == TypeID64 {
			return Uint(t, uint64(f)), nil
		}
		return Value{}, fmt.Errorf("%v out of range for %s", f, t)
	}
	return FromInt(t, int64(f))
}

// ValueOf converts a decoded scalar (YAML, JSON, CUE, Datalog or an
// expression result) to a value of type t.
func ValueOf(t FieldType, x any) (Value, error) {
	switch n := x.(type) {
	case int:
		return FromInt(t, int64(n))
	case int8:
		return FromInt(t, int64(n))
	case int16:
		return FromInt(t, int64(n))
	case int32:
		return FromInt(t, int64(n))
	case int64:
		return FromInt(t, n)
	case uint:
		return ValueOf(t, uint64(n))
	case uint8:
		return FromInt(t, int64(n))
	case uint16:
		return FromInt(t, int64(n))
	case uint32:
		return FromInt(t, int64(n))
	case uint64:
		if n > math.MaxInt64 {
			switch {
			case t == TypeUint64 || t == TypeID64:
				return Uint(t, n), nil
			case t.Float():
				return Float(t, float64(n)), nil
			}
			return Value{}, fmt.Errorf("%d out of range for %s", n, t)
		}
		return FromInt(t, int64(n))
	case float32:
		return FromFloat(t, float64(n))
	case float64:
		return FromFloat(t, n)
	case string:
		return ParseValue(t, n)
	default:
		return Value{}, fmt.Errorf("unsupported value %v (%T) for %s", x, x, t)
	}
}

// ParseValue parses the textual form of a value of type t.
func ParseValue(t FieldType, s string) (Value, error) {
	switch {
	case !t.Valid():
		return Value{}, fmt.Errorf("invalid field type %s", t)
	case t.Float():
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", t, err)
		}
		return Float(t, f), nil
	case t.Signed():
		n, err := strconv.ParseInt(s, 10, t.Size()*8)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", t, err)
		}
		return Int(t, n), nil
	default:
		n, err := strconv.ParseUint(s, 10, t.Size()*8)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", t, err)
		}
		return Uint(t, n), nil
	}
}
