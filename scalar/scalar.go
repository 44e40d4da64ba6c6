// Package scalar maps Go element types onto the closed
// set of transport element kinds.
//
// Types outside of Scalar cannot be used to instantiate
// any function in this package, so unsupported payloads
// are rejected by the compiler rather than at runtime.
package scalar

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/unixpickle/topocomm/collcomm"
)

// Char is a single character.
// It is distinct from uint8 so that it maps to its own
// element kind.
type Char byte

// Scalar is the set of element types that may be sent.
type Scalar interface {
	Char | int8 | int16 | int32 | int | int64 |
		uint8 | uint16 | uint32 | uint | uint64 |
		float32 | float64
}

// KindOf returns the element kind for T.
func KindOf[T Scalar]() collcomm.Kind {
	var zero T
	switch any(zero).(type) {
	case Char:
		return collcomm.KindChar
	case int8:
		return collcomm.KindSignedChar
	case int16:
		return collcomm.KindShort
	case int32:
		return collcomm.KindInt
	case int:
		return collcomm.KindLong
	case int64:
		return collcomm.KindLongLong
	case uint8:
		return collcomm.KindUnsignedChar
	case uint16:
		return collcomm.KindUnsignedShort
	case uint32:
		return collcomm.KindUnsigned
	case uint:
		return collcomm.KindUnsignedLong
	case uint64:
		return collcomm.KindUnsignedLongLong
	case float32:
		return collcomm.KindFloat
	case float64:
		return collcomm.KindDouble
	}
	panic("unreachable")
}

// Encode packs values into their little-endian wire form.
func Encode[T Scalar](values []T) []byte {
	size := KindOf[T]().Size()
	buf := make([]byte, len(values)*size)
	for i, v := range values {
		putBits(buf[i*size:(i+1)*size], toBits(v))
	}
	return buf
}

// Decode unpacks values from their wire form.
//
// The length of data must be a multiple of the element
// size.
func Decode[T Scalar](data []byte) []T {
	size := KindOf[T]().Size()
	if len(data)%size != 0 {
		panic("data is not a whole number of elements")
	}
	res := make([]T, len(data)/size)
	for i := range res {
		res[i] = fromBits[T](getBits(data[i*size : (i+1)*size]))
	}
	return res
}

// Format renders a value for display.
//
// A printable ASCII Char is shown as itself; any other
// Char is shown as a \xNN escape of its byte.
func Format[T Scalar](v T) string {
	switch x := any(v).(type) {
	case Char:
		if x >= 0x20 && x < 0x7f {
			return string(rune(x))
		}
		return fmt.Sprintf("\\x%02x", byte(x))
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case uint8, uint16, uint32, uint, uint64:
		return strconv.FormatUint(toBits(v), 10)
	}
	return strconv.FormatInt(int64(toBits(v)), 10)
}

// toBits converts a value to a 64-bit pattern whose low
// bytes are the value's wire form.
// Signed integers are sign-extended.
func toBits[T Scalar](v T) uint64 {
	switch x := any(v).(type) {
	case float32:
		return uint64(math.Float32bits(x))
	case float64:
		return math.Float64bits(x)
	case Char:
		return uint64(x)
	case int8:
		return uint64(x)
	case int16:
		return uint64(x)
	case int32:
		return uint64(x)
	case int:
		return uint64(x)
	case int64:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint:
		return uint64(x)
	case uint64:
		return x
	}
	panic("unreachable")
}

func fromBits[T Scalar](bits uint64) T {
	var res any
	var zero T
	switch any(zero).(type) {
	case float32:
		res = math.Float32frombits(uint32(bits))
	case float64:
		res = math.Float64frombits(bits)
	case Char:
		res = Char(bits)
	case int8:
		res = int8(bits)
	case int16:
		res = int16(bits)
	case int32:
		res = int32(bits)
	case int:
		res = int(bits)
	case int64:
		res = int64(bits)
	case uint8:
		res = uint8(bits)
	case uint16:
		res = uint16(bits)
	case uint32:
		res = uint32(bits)
	case uint:
		res = uint(bits)
	case uint64:
		res = bits
	}
	return res.(T)
}

func putBits(buf []byte, bits uint64) {
	switch len(buf) {
	case 1:
		buf[0] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(buf, bits)
	default:
		panic("unsupported element size")
	}
}

func getBits(buf []byte) uint64 {
	switch len(buf) {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf))
	case 8:
		return binary.LittleEndian.Uint64(buf)
	}
	panic("unsupported element size")
}
