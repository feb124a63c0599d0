package jsonb

import (
	"bytes"
	"testing"
)

func cobsRoundTrip(t *testing.T, src []byte, xor byte) {
	t.Helper()
	enc := make([]byte, CobsEncodedLength(src))
	n := CobsEncode(src, xor, enc)
	if n != len(enc) {
		t.Fatalf("encoded %d bytes, CobsEncodedLength said %d", n, len(enc))
	}
	if n > len(src)+len(src)/254+1+1 {
		t.Fatalf("encoded length %d exceeds bound for %d-byte payload", n, len(src))
	}
	if i := bytes.IndexByte(enc[:n], xor); i >= 0 {
		t.Fatalf("forbidden byte 0x%02X at offset %d of % X", xor, i, enc[:n])
	}
	dec := make([]byte, n)
	dn := CobsDecode(enc[:n], xor, dec)
	if !bytes.Equal(dec[:dn], src) {
		t.Fatalf("round trip mismatch\n in=% X\nout=% X", src, dec[:dn])
	}
}

func TestCobs_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x00},
		{0x0A},
		{0x10, 0x11},
		{0x00, 0x00, 0x00},
		{0xFF, 0x00, 0x0A, 0xFF},
		bytes.Repeat([]byte{0xAA}, 300),
		bytes.Repeat([]byte{0x00}, 300),
		bytes.Repeat([]byte{0x0A}, 254),
		bytes.Repeat([]byte{0x01}, 255),
	}
	for _, src := range payloads {
		for _, xor := range []byte{0x00, 0x0A, 0xFF, 0x55} {
			cobsRoundTrip(t, src, xor)
		}
	}
}

func TestCobs_AllForbiddenBytes(t *testing.T) {
	src := []byte("jsonb\x00\x0a\xff payload \x00 with runs")
	for x := 0; x < 256; x++ {
		cobsRoundTrip(t, src, byte(x))
	}
}

func TestCobs_KnownEncoding(t *testing.T) {
	// Payload 10 11 with xor 0x0A: code byte 3, data bytes XOR-ed.
	enc := make([]byte, 8)
	n := CobsEncode([]byte{0x10, 0x11}, Terminator, enc)
	want := []byte{0x09, 0x1A, 0x1B}
	if !bytes.Equal(enc[:n], want) {
		t.Fatalf("encode = % X, want % X", enc[:n], want)
	}
}

func TestCobs_DecodeInPlace(t *testing.T) {
	src := []byte{0x01, 0x00, 0x0A, 0x02, 0x00}
	enc := make([]byte, CobsEncodedLength(src))
	CobsEncode(src, Terminator, enc)
	n := CobsDecode(enc, Terminator, enc) // dst == src
	if !bytes.Equal(enc[:n], src) {
		t.Fatalf("in-place decode = % X, want % X", enc[:n], src)
	}
}

func TestCobs_GuaranteedFit(t *testing.T) {
	cases := []struct{ buflen, want int }{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 1},
		{16, 14},
		{254, 251},
		{255, 252},
		{1024, 1018},
	}
	for _, c := range cases {
		if got := CobsGuaranteedFit(c.buflen); got != c.want {
			t.Fatalf("CobsGuaranteedFit(%d) = %d, want %d", c.buflen, got, c.want)
		}
	}
	// The fit must actually fit: worst case is incompressible runs.
	for _, buflen := range []int{3, 16, 254, 255, 300, 1024} {
		fit := CobsGuaranteedFit(buflen)
		src := bytes.Repeat([]byte{0x01}, fit)
		if enc := CobsEncodedLength(src); enc > buflen {
			t.Fatalf("fit %d of buflen %d encodes to %d", fit, buflen, enc)
		}
	}
}
