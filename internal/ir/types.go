package ir

import "fmt"

// FieldType is the closed set of primitive field types a fact or task
// parameter may carry.
type FieldType uint8

const (
	TypeInvalid FieldType = iota
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeID32
	TypeID64
)

var fieldTypeNames = [...]string{
	TypeInvalid: "invalid",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeID32:    "id32",
	TypeID64:    "id64",
}

// ParseFieldType maps a type name as written in a domain description to its
// FieldType. Unknown names return TypeInvalid and false.
func ParseFieldType(name string) (FieldType, bool) {
	for t := TypeInt8; t <= TypeID64; t++ {
		if fieldTypeNames[t] == name {
			return t, true
		}
	}
	return TypeInvalid, false
}

// Valid reports whether t is one of the declared field types.
func (t FieldType) Valid() bool {
	return t >= TypeInt8 && t <= TypeID64
}

// Size returns the storage size of t in bytes, or 0 for an invalid type.
func (t FieldType) Size() int {
	switch t {
	case TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32, TypeID32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64, TypeID64:
		return 8
	default:
		return 0
	}
}

// Align returns the natural alignment of t. Every field type is aligned to
// its own size.
func (t FieldType) Align() int {
	return t.Size()
}

// Signed reports whether t is a signed integer type.
func (t FieldType) Signed() bool {
	return t >= TypeInt8 && t <= TypeInt64
}

// Float reports whether t is a floating point type.
func (t FieldType) Float() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// String returns the declared name of the type.
func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler so types serialize by name.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FieldType) UnmarshalText(b []byte) error {
	ft, ok := ParseFieldType(string(b))
	if !ok {
		return fmt.Errorf("unknown field type %q", string(b))
	}
	*t = ft
	return nil
}
