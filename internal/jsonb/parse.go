package jsonb

import (
	"bytes"
	"errors"
)

// ErrBadFrame is returned by Parse when the input does not carry the JSONB
// header/trailer signature.
var ErrBadFrame = errors.New("jsonb: not a jsonb frame")

// Parser decodes a framed JSONB buffer in place and enumerates its payload.
// The zero value is ready for Parse. A Parser must not be used concurrently;
// independent Parsers over non-aliasing buffers are fine.
type Parser struct {
	buf    []byte // decoded payload
	used   int    // enumeration cursor
	opcode Opcode // opcode of the last enumerated value
}

// Parse unframes buf: control bytes below 0x20 are trimmed from both ends,
// the header and trailer are validated and stripped, and the body is
// COBS-decoded in place (buf is modified). On success the payload is
// available via Payload and enumeration starts from the beginning.
func (p *Parser) Parse(buf []byte) error {
	for len(buf) > 0 && buf[0] < 0x20 {
		buf = buf[1:]
	}
	for len(buf) > 0 && buf[len(buf)-1] < 0x20 {
		buf = buf[:len(buf)-1]
	}
	if len(buf) < len(Header)+len(Trailer) ||
		!bytes.HasPrefix(buf, []byte(Header)) ||
		!bytes.HasSuffix(buf, []byte(Trailer)) {
		return ErrBadFrame
	}
	body := buf[len(Header) : len(buf)-len(Trailer)]
	n := CobsDecode(body, Terminator, body)
	p.buf = body[:n]
	p.used = 0
	p.opcode = OpInvalid
	return nil
}

// Payload returns the decoded payload bytes.
func (p *Parser) Payload() []byte { return p.buf }

// Enum resets enumeration to the start of the payload.
func (p *Parser) Enum() {
	p.used = 0
	p.opcode = OpInvalid
}

// Element is one enumerated payload element.
type Element struct {
	// First is set when the element is the first inside its enclosing
	// object or array (or the first of the stream).
	First  bool
	Opcode Opcode
	// Name is the item name when the element was preceded by an ITEM
	// opcode, nil otherwise.
	Name []byte
	// Value holds the value bytes: the little-endian scalar, the string
	// including its NUL terminator, or the raw binary payload. Containers
	// and null/bool values have an empty Value.
	Value []byte
}

// EnumNext advances one element. It returns false at end of payload and on a
// malformed element (truncated name, string, or value, or an unknown
// opcode); the two conditions are deliberately not distinguished, as both
// mean no more well-formed elements follow.
func (p *Parser) EnumNext() (Element, bool) {
	var el Element
	if p.used >= len(p.buf) {
		return el, false
	}
	el.First = p.opcode == OpBeginObject || p.opcode == OpBeginArray || p.opcode == OpInvalid
	p.opcode = Opcode(p.buf[p.used])
	p.used++
	if p.opcode == OpItem {
		nul := bytes.IndexByte(p.buf[p.used:], 0)
		if nul < 0 {
			return el, false
		}
		el.Name = p.buf[p.used : p.used+nul]
		p.used += nul + 1
		if p.used >= len(p.buf) {
			return el, false
		}
		p.opcode = Opcode(p.buf[p.used])
		p.used++
	}
	el.Opcode = p.opcode
	var n int
	switch p.opcode {
	case OpBeginObject, OpEndObject, OpBeginArray, OpEndArray,
		OpNull, OpTrue, OpFalse:
		n = 0
	case OpString:
		nul := bytes.IndexByte(p.buf[p.used:], 0)
		if nul < 0 {
			return el, false
		}
		n = nul + 1 // value includes the NUL
	case OpBin8, OpBin16, OpBin24, OpBin32:
		w := int(p.opcode - OpBin8 + 1)
		if p.used+w > len(p.buf) {
			return el, false
		}
		for i := 0; i < w; i++ {
			n |= int(p.buf[p.used]) << (8 * i)
			p.used++
		}
	case OpInt8, OpInt16, OpInt32, OpInt64,
		OpUint8, OpUint16, OpUint32, OpUint64,
		OpFloat, OpDouble:
		n = int(p.opcode & 0x0F) // low nibble is the payload width
	default:
		return el, false
	}
	if p.used+n > len(p.buf) {
		return el, false
	}
	el.Value = p.buf[p.used : p.used+n]
	p.used += n
	return el, true
}
