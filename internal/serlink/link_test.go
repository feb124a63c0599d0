package serlink

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/blues/note-c-zero/internal/jsonb"
	"github.com/blues/note-c-zero/internal/transport"
)

// fakePort scripts the device end of the serial line: each Write of a
// terminated request queues the scripted response, dribbled back in small
// reads like a UART would deliver it.
type fakePort struct {
	wrote   bytes.Buffer
	rsp     bytes.Buffer
	respond func(req []byte) []byte
	chunk   int
	failRW  bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.failRW {
		return 0, errors.New("port gone")
	}
	p.wrote.Write(b)
	if i := bytes.IndexByte(p.wrote.Bytes(), jsonb.Terminator); i >= 0 {
		full := append([]byte(nil), p.wrote.Bytes()[:i+1]...)
		p.wrote.Reset()
		if p.respond != nil {
			p.rsp.Write(p.respond(full))
		}
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.failRW {
		return 0, errors.New("port gone")
	}
	n := p.chunk
	if n <= 0 {
		n = 3
	}
	if n > len(b) {
		n = len(b)
	}
	return copy(b, p.rsp.Next(n)), nil
}

func (p *fakePort) Close() error { return nil }

func reqFrame(t *testing.T, size int) []byte {
	t.Helper()
	var f jsonb.Formatter
	f.Begin(make([]byte, size), nil)
	f.AddObjectBegin()
	f.AddStringToObject("req", "card.version")
	f.AddObjectEnd()
	if err := f.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	buf := make([]byte, size)
	copy(buf, f.Bytes())
	return buf
}

func TestLink_RoundTrip(t *testing.T) {
	want := append([]byte("{:response-bytes:}"), jsonb.Terminator)
	port := &fakePort{respond: func(req []byte) []byte {
		if !jsonb.Present(req) {
			t.Fatalf("device saw non-jsonb request % X", req)
		}
		return want
	}}
	l := &Link{Port: port, Timeout: time.Second}
	rsp, err := l.RequestResponse(reqFrame(t, 256))
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if !bytes.Equal(rsp, want) {
		t.Fatalf("response = % X, want % X", rsp, want)
	}
}

func TestLink_NoResponse(t *testing.T) {
	port := &fakePort{respond: func([]byte) []byte { return []byte("never\n") }}
	l := &Link{Port: port, Timeout: time.Second}
	rsp, err := l.Transaction(transport.FlagNoResponse, reqFrame(t, 256))
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if rsp != nil {
		t.Fatalf("no-response transaction returned bytes")
	}
}

func TestLink_IgnoreResponse(t *testing.T) {
	port := &fakePort{respond: func([]byte) []byte { return append([]byte("noise"), jsonb.Terminator) }}
	l := &Link{Port: port, Timeout: time.Second}
	rsp, err := l.Transaction(transport.FlagIgnoreResponse, reqFrame(t, 256))
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if rsp != nil {
		t.Fatalf("ignored response surfaced")
	}
}

func TestLink_Timeout(t *testing.T) {
	port := &fakePort{} // never responds
	l := &Link{Port: port, Timeout: 20 * time.Millisecond}
	if _, err := l.Transaction(0, reqFrame(t, 256)); !errors.Is(err, ErrTimeout) {
		t.Fatalf("silent device: %v", err)
	}
}

func TestLink_Errors(t *testing.T) {
	l := &Link{}
	if _, err := l.Transaction(0, reqFrame(t, 64)); !errors.Is(err, ErrConfig) {
		t.Fatalf("nil port: %v", err)
	}
	l = &Link{Port: &fakePort{}}
	if _, err := l.Transaction(0, make([]byte, 64)); !errors.Is(err, ErrTerminator) {
		t.Fatalf("unterminated: %v", err)
	}
	l = &Link{Port: &fakePort{failRW: true}}
	if _, err := l.Transaction(0, reqFrame(t, 64)); err == nil {
		t.Fatalf("expected write error")
	}
	// Response larger than the buffer with no grow callback.
	long := append(bytes.Repeat([]byte{'y'}, 500), jsonb.Terminator)
	l = &Link{Port: &fakePort{respond: func([]byte) []byte { return long }}, Timeout: time.Second}
	small := reqFrame(t, 64)
	if _, err := l.Transaction(0, small); !errors.Is(err, ErrRxOverflow) {
		t.Fatalf("overflow: %v", err)
	}
}

func TestLink_GrowsForLargeResponse(t *testing.T) {
	long := append(bytes.Repeat([]byte{'y'}, 500), jsonb.Terminator)
	port := &fakePort{respond: func([]byte) []byte { return long }, chunk: 60}
	l := &Link{Port: port, Timeout: time.Second}
	l.Grow = func(buf []byte, needed int) ([]byte, bool) {
		nb := make([]byte, len(buf)*2+needed)
		copy(nb, buf)
		return nb, true
	}
	rsp, err := l.RequestResponse(reqFrame(t, 64))
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if !bytes.Equal(rsp, long) {
		t.Fatalf("response %d bytes, want %d", len(rsp), len(long))
	}
}

func TestLink_Reset(t *testing.T) {
	port := &fakePort{}
	l := &Link{Port: port}
	if err := l.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
}
