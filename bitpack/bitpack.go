// Package bitpack has the low-level helpers for the engine's packed byte
// layout: 16-bit fields stored as two bytes, two 4-bit values sharing a
// byte, and arbitrary sub-byte bit fields.
package bitpack

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a value does not fit the declared bit
// width, or when a bit field would cross a byte boundary.
var ErrOutOfRange = errors.New("value out of range")

// PackU16 splits n into its little-endian byte pair.
func PackU16(n uint16) (lo, hi byte) {
	return byte(n & 0xFF), byte(n >> 8)
}

// UnpackU16 is the inverse of PackU16.
func UnpackU16(lo, hi byte) uint16 {
	return uint16(lo) | uint16(hi)<<8
}

// PackNibbles packs two unsigned 4-bit values into one byte, b in the
// high nibble. Values must be in [0, 15].
func PackNibbles(a, b uint8) (byte, error) {
	if a > 0xF || b > 0xF {
		return 0, fmt.Errorf("%w: nibble values %d, %d", ErrOutOfRange, a, b)
	}
	return a | b<<4, nil
}

// UnpackNibbles is the inverse of PackNibbles.
func UnpackNibbles(n byte) (a, b uint8) {
	return n & 0xF, n >> 4
}

// PackSignedNibbles packs two signed 4-bit values, two's complement,
// into one byte. Values must be in [-8, 7].
func PackSignedNibbles(a, b int8) (byte, error) {
	if a < -8 || a > 7 || b < -8 || b > 7 {
		return 0, fmt.Errorf("%w: signed nibble values %d, %d", ErrOutOfRange, a, b)
	}
	return byte(a)&0xF | byte(b)&0xF<<4, nil
}

// UnpackSignedNibbles is the inverse of PackSignedNibbles. Nibbles >= 8
// map to value-16.
func UnpackSignedNibbles(n byte) (a, b int8) {
	return signed4(n & 0xF), signed4(n >> 4)
}

func signed4(n byte) int8 {
	if n >= 8 {
		return int8(n) - 16
	}
	return int8(n)
}

// InsertBits writes value into the length-bit field of b starting at
// offset (bit 0 is the least significant). The field must lie within
// the byte and value must fit in it; unlike the engine's own helpers,
// an oversized value is rejected rather than truncated.
func InsertBits(b byte, value uint8, offset, length int) (byte, error) {
	if offset < 0 || length < 1 || offset+length > 8 {
		return 0, fmt.Errorf("%w: bit field at offset %d length %d", ErrOutOfRange, offset, length)
	}
	if int(value) >= 1<<length {
		return 0, fmt.Errorf("%w: value %d does not fit in %d bits", ErrOutOfRange, value, length)
	}
	mask := byte(1<<length-1) << offset
	return b&^mask | value<<offset, nil
}

// ExtractBits reads the length-bit field of b starting at offset.
func ExtractBits(b byte, offset, length int) uint8 {
	return b >> offset & (1<<length - 1)
}
