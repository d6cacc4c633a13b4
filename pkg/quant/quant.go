// Package quant converts between the stored sample representations used by
// DAFF payloads and float32 amplitudes.
package quant

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies the stored numeric representation of a sample.
// The constant values match the on-disk quantization codes.
type Kind int

const (
	Int8 Kind = iota + 1
	Int16
	Int24
	Int32
	Float32
	Float64
)

// Full-scale magnitudes for the integer kinds. Dequantization divides by
// these; quantization multiplies and saturates.
const (
	scale8  = 1 << 7
	scale16 = 1 << 15
	scale24 = 1 << 23
	scale32 = 1 << 31
)

// Valid reports whether k is one of the defined quantization kinds.
func (k Kind) Valid() bool {
	return k >= Int8 && k <= Float64
}

// SampleSize returns the storage size of one sample in bytes.
func (k Kind) SampleSize() int {
	switch k {
	case Int8:
		return 1
	case Int16:
		return 2
	case Int24:
		return 3
	case Int32, Float32:
		return 4
	case Float64:
		return 8
	default:
		panic(fmt.Sprintf("quant: invalid kind %d", int(k)))
	}
}

// String returns the canonical name of the quantization kind.
func (k Kind) String() string {
	switch k {
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int24:
		return "Int24"
	case Int32:
		return "Int32"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Decode converts raw little-endian samples into float32 amplitudes.
// Integer kinds are scaled into [-1, 1] by the full-scale magnitude of their
// width; float kinds pass through with only a width conversion.
// Panics if len(src) is not a multiple of k.SampleSize().
func Decode(k Kind, src []byte) []float32 {
	size := k.SampleSize()
	if len(src)%size != 0 {
		panic("quant: Decode: input length must be a multiple of the sample size")
	}

	out := make([]float32, len(src)/size)

	switch k {
	case Int8:
		for i := range out {
			out[i] = float32(int8(src[i])) / scale8
		}
	case Int16:
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(src[i*2:]))
			out[i] = float32(v) / scale16
		}
	case Int24:
		for i := range out {
			out[i] = float32(int24At(src, i*3)) / scale24
		}
	case Int32:
		for i := range out {
			v := int32(binary.LittleEndian.Uint32(src[i*4:]))
			out[i] = float32(float64(v) / scale32)
		}
	case Float32:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	case Float64:
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(src[i*8:])))
		}
	}

	return out
}

// Encode converts float32 amplitudes into raw little-endian samples.
// Integer kinds saturate: inputs outside [-1, 1] clamp to the most
// negative/positive representable value rather than wrapping.
func Encode(k Kind, samples []float32) []byte {
	size := k.SampleSize()
	out := make([]byte, len(samples)*size)

	switch k {
	case Int8:
		for i, s := range samples {
			out[i] = byte(int8(quantize(s, scale8, math.MinInt8, math.MaxInt8)))
		}
	case Int16:
		for i, s := range samples {
			v := int16(quantize(s, scale16, math.MinInt16, math.MaxInt16))
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
	case Int24:
		for i, s := range samples {
			putInt24(out, i*3, int32(quantize(s, scale24, -scale24, scale24-1)))
		}
	case Int32:
		for i, s := range samples {
			v := int32(quantize(s, scale32, math.MinInt32, math.MaxInt32))
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		}
	case Float32:
		for i, s := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
		}
	case Float64:
		for i, s := range samples {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(float64(s)))
		}
	}

	return out
}

// quantize scales an amplitude by the full-scale magnitude, rounds to
// nearest, and saturates to [lo, hi].
func quantize(s float32, fullScale float64, lo, hi int64) int64 {
	v := math.Round(float64(s) * fullScale)

	if math.IsNaN(v) {
		return 0
	}

	if v < float64(lo) {
		return lo
	}

	if v > float64(hi) {
		return hi
	}

	return int64(v)
}

// int24At decodes the 3-byte little-endian two's complement sample at byte
// offset off.
func int24At(b []byte, off int) int32 {
	v := int32(b[off]) | int32(b[off+1])<<8 | int32(b[off+2])<<16
	if v&0x800000 != 0 {
		v |= ^int32(0xFFFFFF)
	}

	return v
}

// putInt24 encodes the low 24 bits of v at byte offset off, little-endian.
func putInt24(b []byte, off int, v int32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
}
