package jsonb

// Consistent-Overhead Byte Stuffing, parameterized by a forbidden byte.
// Every output byte (data and code bytes alike) is XOR-ed with xor, so the
// encoded form never contains xor and the caller can use it as a frame
// delimiter. With xor == 0 this degenerates to canonical COBS.

// CobsEncode encodes src into dst, which must have room for
// CobsEncodedLength(src) bytes, and returns the number of bytes written.
// dst may share src's backing array provided dst begins far enough below src
// to absorb the code-byte overhead (the framer relies on this).
func CobsEncode(src []byte, xor byte, dst []byte) int {
	codeIdx := 0 // where the pending code byte will land
	di := 1
	code := byte(1)
	for _, ch := range src {
		if ch != 0 {
			dst[di] = ch ^ xor
			di++
			code++
		}
		if ch == 0 || code == 0xFF {
			dst[codeIdx] = code ^ xor
			code = 1
			codeIdx = di
			di++
		}
	}
	dst[codeIdx] = code ^ xor
	return di
}

// CobsEncodedLength returns the exact encoded size of src.
func CobsEncodedLength(src []byte) int {
	n := 1
	code := byte(1)
	for _, ch := range src {
		if ch != 0 {
			n++
			code++
		}
		if ch == 0 || code == 0xFF {
			code = 1
			n++
		}
	}
	return n
}

// CobsDecode decodes src into dst and returns the number of bytes written.
// The decoded form is never longer than the input, so dst may equal src for
// an in-place decode.
func CobsDecode(src []byte, xor byte, dst []byte) int {
	var si, di int
	code := byte(0xFF)
	cnt := byte(0)
	for si < len(src) {
		if cnt != 0 {
			dst[di] = src[si] ^ xor
			di++
			si++
		} else {
			if code != 0xFF {
				dst[di] = 0
				di++
			}
			code = src[si] ^ xor
			si++
			cnt = code
			if code == 0 {
				break
			}
		}
		cnt--
	}
	return di
}

// CobsGuaranteedFit returns the largest payload guaranteed to fit in a
// buffer of buflen bytes after worst-case encoding.
func CobsGuaranteedFit(buflen int) int {
	overhead := 1 + buflen/254 + 1
	if overhead > buflen {
		return 0
	}
	return buflen - overhead
}
