package jsonb

import (
	"encoding/binary"
	"errors"
	"math"
)

// GrowFn attempts to enlarge buf so that at least needed more bytes fit,
// returning the replacement buffer. The replacement must retain buf's
// contents. It must not retain the passed slice beyond the call.
type GrowFn func(buf []byte, needed int) ([]byte, bool)

// ErrOverrun is returned by End when an earlier append did not fit and no
// growth was available.
var ErrOverrun = errors.New("jsonb: format buffer overrun")

// ErrFrameSpace is returned by End when the payload fits the buffer but the
// worst-case COBS expansion plus the frame signature does not.
var ErrFrameSpace = errors.New("jsonb: no room to encode frame")

// Formatter builds a JSONB payload in a caller-supplied buffer and frames it
// in place on End. It is append-many / check-once: once an append overruns,
// all further appends are no-ops and End reports ErrOverrun. Well-formedness
// of the opcode stream (balanced containers, item names inside objects) is
// the caller's responsibility.
type Formatter struct {
	grow    GrowFn
	buf     []byte
	used    int
	overrun bool
	framed  bool
}

// Begin resets f to format into buf. The full length of buf is the capacity
// available for payload plus frame signature. grow may be nil, in which case
// the first append that does not fit sets the overrun condition.
func (f *Formatter) Begin(buf []byte, grow GrowFn) {
	f.grow = grow
	f.buf = buf
	f.used = 0
	f.overrun = false
	f.framed = false
}

// Bytes returns the formatted bytes so far: the raw payload before End, the
// complete wire frame after a successful End.
func (f *Formatter) Bytes() []byte { return f.buf[:f.used] }

// Len returns the number of bytes used in the buffer.
func (f *Formatter) Len() int { return f.used }

// Overrun reports whether an append failed for lack of space.
func (f *Formatter) Overrun() bool { return f.overrun }

// ensure makes room for needed more bytes, growing if possible. It returns
// false (and latches the overrun) when the bytes cannot be provided, and
// unconditionally once the formatter has left the open state.
func (f *Formatter) ensure(needed int) bool {
	if f.overrun || f.framed {
		return false
	}
	if f.used+needed > len(f.buf) {
		if f.grow == nil {
			f.overrun = true
			return false
		}
		nb, ok := f.grow(f.buf, needed)
		if !ok || f.used+needed > len(nb) {
			f.overrun = true
			return false
		}
		f.buf = nb
	}
	return true
}

// appendOp writes an opcode byte followed by its payload.
func (f *Formatter) appendOp(op Opcode, payload []byte) {
	if !f.ensure(1 + len(payload)) {
		return
	}
	f.buf[f.used] = byte(op)
	f.used++
	f.used += copy(f.buf[f.used:], payload)
}

// appendRaw writes trailing bytes that belong to the previous opcode.
func (f *Formatter) appendRaw(payload []byte) {
	if !f.ensure(len(payload)) {
		return
	}
	f.used += copy(f.buf[f.used:], payload)
}

// appendCStr writes an opcode followed by the bytes of s and a NUL.
func (f *Formatter) appendCStr(op Opcode, s string) {
	if !f.ensure(1 + len(s) + 1) {
		return
	}
	f.buf[f.used] = byte(op)
	f.used++
	f.used += copy(f.buf[f.used:], s)
	f.buf[f.used] = 0
	f.used++
}

func (f *Formatter) AddObjectBegin() { f.appendOp(OpBeginObject, nil) }
func (f *Formatter) AddObjectEnd()   { f.appendOp(OpEndObject, nil) }
func (f *Formatter) AddArrayBegin()  { f.appendOp(OpBeginArray, nil) }
func (f *Formatter) AddArrayEnd()    { f.appendOp(OpEndArray, nil) }

func (f *Formatter) AddNull()  { f.appendOp(OpNull, nil) }
func (f *Formatter) AddTrue()  { f.appendOp(OpTrue, nil) }
func (f *Formatter) AddFalse() { f.appendOp(OpFalse, nil) }

func (f *Formatter) AddBool(v bool) {
	if v {
		f.AddTrue()
	} else {
		f.AddFalse()
	}
}

// AddString appends s as a NUL-terminated string value.
func (f *Formatter) AddString(s string) { f.appendCStr(OpString, s) }

// AddStringLen appends a counted string value that need not carry its own
// NUL; the terminator is supplied here.
func (f *Formatter) AddStringLen(b []byte) {
	f.appendOp(OpString, b)
	f.appendRaw([]byte{0})
}

// AddBin appends a binary value using the narrowest length opcode that fits.
func (f *Formatter) AddBin(bin []byte) {
	var hdr [4]byte
	n := len(bin)
	switch {
	case n < 1<<8:
		hdr[0] = byte(n)
		f.appendOp(OpBin8, hdr[:1])
	case n < 1<<16:
		binary.LittleEndian.PutUint16(hdr[:2], uint16(n))
		f.appendOp(OpBin16, hdr[:2])
	case n < 1<<24:
		hdr[0], hdr[1], hdr[2] = byte(n), byte(n>>8), byte(n>>16)
		f.appendOp(OpBin24, hdr[:3])
	default:
		binary.LittleEndian.PutUint32(hdr[:4], uint32(n))
		f.appendOp(OpBin32, hdr[:4])
	}
	f.appendRaw(bin)
}

func (f *Formatter) AddInt8(v int8) {
	f.appendOp(OpInt8, []byte{byte(v)})
}

func (f *Formatter) AddInt16(v int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	f.appendOp(OpInt16, b[:])
}

func (f *Formatter) AddInt32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	f.appendOp(OpInt32, b[:])
}

func (f *Formatter) AddInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	f.appendOp(OpInt64, b[:])
}

func (f *Formatter) AddUint8(v uint8) {
	f.appendOp(OpUint8, []byte{v})
}

func (f *Formatter) AddUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	f.appendOp(OpUint16, b[:])
}

func (f *Formatter) AddUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	f.appendOp(OpUint32, b[:])
}

func (f *Formatter) AddUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	f.appendOp(OpUint64, b[:])
}

// AddFloat appends a 4-byte IEEE-754 FLOAT value.
func (f *Formatter) AddFloat(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	f.appendOp(OpFloat, b[:])
}

// AddDouble appends an 8-byte IEEE-754 DOUBLE value.
func (f *Formatter) AddDouble(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	f.appendOp(OpDouble, b[:])
}

// AddItemToObject appends the NUL-terminated name that must precede each
// direct child of an object.
func (f *Formatter) AddItemToObject(name string) { f.appendCStr(OpItem, name) }

func (f *Formatter) AddStringToObject(name, s string) {
	f.AddItemToObject(name)
	f.AddString(s)
}

func (f *Formatter) AddStringLenToObject(name string, b []byte) {
	f.AddItemToObject(name)
	f.AddStringLen(b)
}

func (f *Formatter) AddBinToObject(name string, bin []byte) {
	f.AddItemToObject(name)
	f.AddBin(bin)
}

func (f *Formatter) AddInt8ToObject(name string, v int8) {
	f.AddItemToObject(name)
	f.AddInt8(v)
}

func (f *Formatter) AddInt16ToObject(name string, v int16) {
	f.AddItemToObject(name)
	f.AddInt16(v)
}

func (f *Formatter) AddInt32ToObject(name string, v int32) {
	f.AddItemToObject(name)
	f.AddInt32(v)
}

func (f *Formatter) AddInt64ToObject(name string, v int64) {
	f.AddItemToObject(name)
	f.AddInt64(v)
}

func (f *Formatter) AddUint8ToObject(name string, v uint8) {
	f.AddItemToObject(name)
	f.AddUint8(v)
}

func (f *Formatter) AddUint16ToObject(name string, v uint16) {
	f.AddItemToObject(name)
	f.AddUint16(v)
}

func (f *Formatter) AddUint32ToObject(name string, v uint32) {
	f.AddItemToObject(name)
	f.AddUint32(v)
}

func (f *Formatter) AddUint64ToObject(name string, v uint64) {
	f.AddItemToObject(name)
	f.AddUint64(v)
}

func (f *Formatter) AddNullToObject(name string) {
	f.AddItemToObject(name)
	f.AddNull()
}

func (f *Formatter) AddBoolToObject(name string, v bool) {
	f.AddItemToObject(name)
	f.AddBool(v)
}

func (f *Formatter) AddTrueToObject(name string) {
	f.AddItemToObject(name)
	f.AddTrue()
}

func (f *Formatter) AddFalseToObject(name string) {
	f.AddItemToObject(name)
	f.AddFalse()
}

func (f *Formatter) AddFloatToObject(name string, v float32) {
	f.AddItemToObject(name)
	f.AddFloat(v)
}

func (f *Formatter) AddDoubleToObject(name string, v float64) {
	f.AddItemToObject(name)
	f.AddDouble(v)
}

// End frames the payload in place: the payload is relocated upward by the
// worst-case COBS slack, then encoded downward between Header and Trailer
// with the terminator appended last. After a successful End, Bytes returns
// the complete wire frame, which contains no terminator byte except the
// final one. Calling End again is a no-op.
func (f *Formatter) End() error {
	if f.overrun {
		return ErrOverrun
	}
	if f.framed {
		return nil
	}
	sig := len(Header) + len(Trailer) + 1
	if len(f.buf) < sig {
		return ErrFrameSpace
	}
	room := len(f.buf) - sig
	slack := room - CobsGuaranteedFit(room)
	if f.used+slack > room {
		return ErrFrameSpace
	}
	payload := f.buf[slack+sig : slack+sig+f.used]
	copy(payload, f.buf[:f.used])
	copy(f.buf, Header)
	n := CobsEncode(payload, Terminator, f.buf[len(Header):])
	copy(f.buf[len(Header)+n:], Trailer)
	f.used = len(Header) + n + len(Trailer)
	f.buf[f.used] = Terminator
	f.used++
	f.framed = true
	return nil
}
