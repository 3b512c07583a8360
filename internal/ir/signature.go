package ir

import (
	"encoding/binary"
	"math"
)

// Signature describes the byte layout of a fixed record of typed fields:
// field types in declaration order, the byte offset of each field and the
// total record size. Offsets and Size are computed by the compiler.
type Signature struct {
	Types   []FieldType `json:"types"`
	Offsets []int       `json:"offsets"`
	Size    int         `json:"size"`
}

// Len returns the number of fields.
func (s Signature) Len() int {
	return len(s.Types)
}

// Get decodes field i from buf. buf must be at least s.Size bytes.
func (s Signature) Get(buf []byte, i int) Value {
	t := s.Types[i]
	b := buf[s.Offsets[i]:]
	switch t {
	case TypeInt8:
		return Int(t, int64(int8(b[0])))
	case TypeUint8:
		return Uint(t, uint64(b[0]))
	case TypeInt16:
		return Int(t, int64(int16(binary.LittleEndian.Uint16(b))))
	case TypeUint16:
		return Uint(t, uint64(binary.LittleEndian.Uint16(b)))
	case TypeInt32:
		return Int(t, int64(int32(binary.LittleEndian.Uint32(b))))
	case TypeUint32, TypeID32:
		return Uint(t, uint64(binary.LittleEndian.Uint32(b)))
	case TypeFloat32:
		return Float(t, float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
	case TypeInt64:
		return Int(t, int64(binary.LittleEndian.Uint64(b)))
	case TypeFloat64:
		return Float(t, math.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return Uint(t, binary.LittleEndian.Uint64(b))
	}
}

// Set encodes v into field i of buf. The value type must match the field type.
func (s Signature) Set(buf []byte, i int, v Value) {
	t := s.Types[i]
	if v.Type != t {
		panic("ir: value of type " + v.Type.String() + " stored in " + t.String() + " field")
	}
	b := buf[s.Offsets[i]:]
	switch t.Size() {
	case 1:
		b[0] = byte(v.bits)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v.bits))
	case 4:
		if t == TypeFloat32 {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v.Float64())))
			return
		}
		binary.LittleEndian.PutUint32(b, uint32(v.bits))
	default:
		binary.LittleEndian.PutUint64(b, v.bits)
	}
}

// Values decodes every field of buf.
func (s Signature) Values(buf []byte) []Value {
	out := make([]Value, len(s.Types))
	for i := range s.Types {
		out[i] = s.Get(buf, i)
	}
	return out
}
