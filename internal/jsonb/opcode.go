package jsonb

import "bytes"

// Frame signature surrounding the COBS-encoded payload on the wire.
const (
	Header     = "{:"
	Trailer    = ":}"
	Terminator = '\n'
)

// Opcode is the single-byte type tag that introduces every value in a
// payload stream. The values are wire constants shared with the companion
// module; the low nibble of a numeric opcode is its payload width in bytes.
type Opcode byte

const (
	OpInvalid Opcode = 0x00

	OpBeginObject Opcode = 0x10
	OpEndObject   Opcode = 0x11
	OpBeginArray  Opcode = 0x12
	OpEndArray    Opcode = 0x13

	OpNull  Opcode = 0x20
	OpTrue  Opcode = 0x21
	OpFalse Opcode = 0x22

	// OpItem prefixes each direct child of an object with its NUL-terminated name.
	OpItem Opcode = 0x30

	// OpString is a NUL-terminated UTF-8 string.
	OpString Opcode = 0x40

	// Binary payloads carry a 1..4 byte little-endian length, then raw bytes.
	OpBin8  Opcode = 0x51
	OpBin16 Opcode = 0x52
	OpBin24 Opcode = 0x53
	OpBin32 Opcode = 0x54

	OpInt8  Opcode = 0x61
	OpInt16 Opcode = 0x62
	OpInt32 Opcode = 0x64
	OpInt64 Opcode = 0x68

	OpUint8  Opcode = 0x71
	OpUint16 Opcode = 0x72
	OpUint32 Opcode = 0x74
	OpUint64 Opcode = 0x78

	OpFloat  Opcode = 0x84
	OpDouble Opcode = 0x88
)

// Present reports whether buf begins with the JSONB frame header.
func Present(buf []byte) bool {
	return len(buf) >= len(Header) && bytes.HasPrefix(buf, []byte(Header))
}
