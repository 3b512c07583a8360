package ir

import "encoding/binary"

// Murmur2 is the 32-bit MurmurHash2 of s with the given seed.
func Murmur2(s string, seed uint32) uint32 {
	const (
		m = 0x5bd1e995
		r = 24
	)
	data := []byte(s)
	h := seed ^ uint32(len(data))

	for len(data) >= 4 {
		k := binary.LittleEndian.Uint32(data)
		k *= m
		k ^= k >> r
		k *= m
		h *= m
		h ^= k
		data = data[4:]
	}

	switch len(data) {
	case 3:
		h ^= uint32(data[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[0])
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15
	return h
}
