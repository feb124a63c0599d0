package jsonb

import (
	"encoding/binary"
	"math"
)

// GetObjectItem scans the outermost object for a direct child named name and
// returns its opcode and value bytes. Children of nested containers are
// skipped. The scan restarts from the beginning of the payload, so repeated
// lookups are independent of each other.
func (p *Parser) GetObjectItem(name string) (Opcode, []byte, bool) {
	nesting := 0
	p.Enum()
	for {
		el, ok := p.EnumNext()
		if !ok {
			return OpInvalid, nil, false
		}
		switch el.Opcode {
		case OpBeginObject:
			nesting++
		case OpEndObject:
			nesting--
		}
		if nesting == 0 {
			break
		}
		if nesting != 1 {
			continue
		}
		if el.Name != nil && string(el.Name) == name {
			return el.Opcode, el.Value, true
		}
	}
	return OpInvalid, nil, false
}

// GetBool returns true iff name is present with a TRUE value.
func (p *Parser) GetBool(name string) bool {
	typ, _, ok := p.GetObjectItem(name)
	return ok && typ == OpTrue
}

// GetString returns the string value of name, or "" when missing or not a
// string.
func (p *Parser) GetString(name string) string {
	typ, v, ok := p.GetObjectItem(name)
	if !ok || typ != OpString || len(v) == 0 {
		return ""
	}
	return string(v[:len(v)-1]) // strip the NUL
}

// GetErr returns the conventional "err" item of a response object.
func (p *Parser) GetErr() string { return p.GetString("err") }

// GetDouble widens any numeric value of name to float64. Missing or
// non-numeric items yield 0.
func (p *Parser) GetDouble(name string) float64 {
	typ, v, ok := p.GetObjectItem(name)
	if !ok {
		return 0
	}
	switch typ {
	case OpFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(v)))
	case OpDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(v))
	case OpUint8:
		return float64(v[0])
	case OpUint16:
		return float64(binary.LittleEndian.Uint16(v))
	case OpUint32:
		return float64(binary.LittleEndian.Uint32(v))
	case OpUint64:
		return float64(binary.LittleEndian.Uint64(v))
	case OpInt8:
		return float64(int8(v[0]))
	case OpInt16:
		return float64(int16(binary.LittleEndian.Uint16(v)))
	case OpInt32:
		return float64(int32(binary.LittleEndian.Uint32(v)))
	case OpInt64:
		return float64(int64(binary.LittleEndian.Uint64(v)))
	}
	return 0
}

// GetFloat is GetDouble narrowed to float32.
func (p *Parser) GetFloat(name string) float32 {
	return float32(p.GetDouble(name))
}

// GetInt64 returns the numeric value of name as a signed 64-bit integer,
// sign-extending signed widths, zero-extending unsigned ones, and truncating
// reals toward zero. Missing or non-numeric items yield 0.
func (p *Parser) GetInt64(name string) int64 {
	typ, v, ok := p.GetObjectItem(name)
	if !ok {
		return 0
	}
	switch typ {
	case OpFloat:
		return int64(math.Float32frombits(binary.LittleEndian.Uint32(v)))
	case OpDouble:
		return int64(math.Float64frombits(binary.LittleEndian.Uint64(v)))
	case OpUint8:
		return int64(v[0])
	case OpUint16:
		return int64(binary.LittleEndian.Uint16(v))
	case OpUint32:
		return int64(binary.LittleEndian.Uint32(v))
	case OpUint64:
		return int64(binary.LittleEndian.Uint64(v))
	case OpInt8:
		return int64(int8(v[0]))
	case OpInt16:
		return int64(int16(binary.LittleEndian.Uint16(v)))
	case OpInt32:
		return int64(int32(binary.LittleEndian.Uint32(v)))
	case OpInt64:
		return int64(binary.LittleEndian.Uint64(v))
	}
	return 0
}

// GetInt32 is GetInt64 narrowed to int32.
func (p *Parser) GetInt32(name string) int32 {
	return int32(p.GetInt64(name))
}

// GetUint64 returns the numeric value of name as an unsigned 64-bit integer.
// Signed values are reinterpreted at their native width; negative reals
// saturate to 0. Missing or non-numeric items yield 0.
func (p *Parser) GetUint64(name string) uint64 {
	typ, v, ok := p.GetObjectItem(name)
	if !ok {
		return 0
	}
	switch typ {
	case OpFloat:
		f := math.Float32frombits(binary.LittleEndian.Uint32(v))
		if f < 0 {
			return 0
		}
		return uint64(f)
	case OpDouble:
		f := math.Float64frombits(binary.LittleEndian.Uint64(v))
		if f < 0 {
			return 0
		}
		return uint64(f)
	case OpUint8:
		return uint64(v[0])
	case OpUint16:
		return uint64(binary.LittleEndian.Uint16(v))
	case OpUint32:
		return uint64(binary.LittleEndian.Uint32(v))
	case OpUint64:
		return binary.LittleEndian.Uint64(v)
	case OpInt8:
		return uint64(int64(int8(v[0])))
	case OpInt16:
		return uint64(int64(int16(binary.LittleEndian.Uint16(v))))
	case OpInt32:
		return uint64(int64(int32(binary.LittleEndian.Uint32(v))))
	case OpInt64:
		return binary.LittleEndian.Uint64(v)
	}
	return 0
}

// GetUint32 is GetUint64 narrowed to uint32.
func (p *Parser) GetUint32(name string) uint32 {
	return uint32(p.GetUint64(name))
}
