package jsonb

import (
	"bytes"
	"errors"
	"testing"
)

// formatFrame builds a frame with fill and returns the wire bytes.
func formatFrame(t *testing.T, size int, fill func(f *Formatter)) []byte {
	t.Helper()
	var f Formatter
	f.Begin(make([]byte, size), nil)
	fill(&f)
	if err := f.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	return f.Bytes()
}

func TestParser_FrameRoundTrip(t *testing.T) {
	var f Formatter
	f.Begin(make([]byte, 512), nil)
	f.AddObjectBegin()
	f.AddStringToObject("name", "hi")
	f.AddUint16ToObject("n", 0x0102)
	f.AddObjectEnd()
	payload := append([]byte(nil), f.Bytes()...)
	if err := f.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	var p Parser
	if err := p.Parse(f.Bytes()); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(p.Payload(), payload) {
		t.Fatalf("payload = % X, want % X", p.Payload(), payload)
	}
}

func TestParser_TrimsControlBytes(t *testing.T) {
	frame := formatFrame(t, 64, func(f *Formatter) {
		f.AddObjectBegin()
		f.AddTrueToObject("ok")
		f.AddObjectEnd()
	})
	dirty := append([]byte{0x00, 0x0A, 0x0D, 0x01}, frame...)
	dirty = append(dirty, 0x0D, 0x0A, 0x00)
	var p Parser
	if err := p.Parse(dirty); err != nil {
		t.Fatalf("Parse with padding: %v", err)
	}
	if !p.GetBool("ok") {
		t.Fatalf("lookup failed after trim")
	}
}

func TestParser_RejectsNonFrames(t *testing.T) {
	var p Parser
	for _, in := range [][]byte{
		nil,
		{},
		[]byte("\n\n\n"),
		[]byte("{\"name\":\"hi\"}\n"),
		[]byte("{:"),
		[]byte("{:abc"),
		[]byte("abc:}\n"),
	} {
		if err := p.Parse(append([]byte(nil), in...)); !errors.Is(err, ErrBadFrame) {
			t.Fatalf("Parse(%q) = %v, want ErrBadFrame", in, err)
		}
	}
}

func TestParser_EnumNested(t *testing.T) {
	frame := formatFrame(t, 128, func(f *Formatter) {
		f.AddObjectBegin()
		f.AddItemToObject("a")
		f.AddArrayBegin()
		f.AddTrue()
		f.AddFalse()
		f.AddNull()
		f.AddArrayEnd()
		f.AddObjectEnd()
	})
	var p Parser
	if err := p.Parse(frame); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	type step struct {
		op    Opcode
		name  string
		first bool
	}
	want := []step{
		{OpBeginObject, "", true},
		{OpBeginArray, "a", true},
		{OpTrue, "", true},
		{OpFalse, "", false},
		{OpNull, "", false},
		{OpEndArray, "", false},
		{OpEndObject, "", false},
	}
	p.Enum()
	for i, w := range want {
		el, ok := p.EnumNext()
		if !ok {
			t.Fatalf("step %d: unexpected end", i)
		}
		if el.Opcode != w.op || string(el.Name) != w.name || el.First != w.first {
			t.Fatalf("step %d: got op=0x%02X name=%q first=%v, want op=0x%02X name=%q first=%v",
				i, byte(el.Opcode), el.Name, el.First, byte(w.op), w.name, w.first)
		}
	}
	if _, ok := p.EnumNext(); ok {
		t.Fatalf("expected end of payload")
	}
}

func TestParser_RealWidths(t *testing.T) {
	frame := formatFrame(t, 128, func(f *Formatter) {
		f.AddObjectBegin()
		f.AddFloatToObject("f", 1.5)
		f.AddDoubleToObject("d", 2.5)
		f.AddObjectEnd()
	})
	var p Parser
	if err := p.Parse(frame); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if typ, v, ok := p.GetObjectItem("f"); !ok || typ != OpFloat || len(v) != 4 {
		t.Fatalf("f: ok=%v typ=0x%02X len=%d", ok, byte(typ), len(v))
	}
	if typ, v, ok := p.GetObjectItem("d"); !ok || typ != OpDouble || len(v) != 8 {
		t.Fatalf("d: ok=%v typ=0x%02X len=%d", ok, byte(typ), len(v))
	}
}

func TestParser_MalformedElements(t *testing.T) {
	cases := map[string][]byte{
		"truncated item name": {0x10, 0x30, 'a', 'b'},
		"item with no value":  {0x10, 0x30, 'a', 0x00},
		"truncated string":    {0x40, 'h', 'i'},
		"unknown opcode":      {0x10, 0xEE},
		"truncated int64":     {0x68, 0x01, 0x02},
		"truncated bin16 len": {0x52, 0x10},
		"bin past end":        {0x51, 0x10, 0xAA},
	}
	for name, payload := range cases {
		p := Parser{buf: payload}
		p.Enum()
		for {
			if _, ok := p.EnumNext(); !ok {
				break
			}
		}
		// Reaching here without a panic or out-of-range slice is the pass
		// condition; enumeration must simply stop.
		_ = name
	}
}

// FuzzParse ensures arbitrary wire input never panics the parser or the
// enumerator.
func FuzzParse(f *testing.F) {
	f.Add([]byte{0x7B, 0x3A, 0x09, 0x1A, 0x1B, 0x3A, 0x7D, 0x0A})
	f.Add([]byte("{:garbage:}\n"))
	f.Add([]byte{0x7B, 0x3A, 0x3A, 0x7D, 0x0A})
	f.Fuzz(func(t *testing.T, data []byte) {
		var p Parser
		if err := p.Parse(append([]byte(nil), data...)); err != nil {
			return
		}
		for i := 0; i < 1<<16; i++ {
			if _, ok := p.EnumNext(); !ok {
				break
			}
		}
	})
}
