package serlink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/blues/note-c-zero/internal/jsonb"
	"github.com/blues/note-c-zero/internal/metrics"
	"github.com/blues/note-c-zero/internal/transport"
)

var (
	ErrConfig     = errors.New("serlink: not configured")
	ErrTerminator = errors.New("serlink: request not terminated")
	ErrRxOverflow = errors.New("serlink: rx buffer overflow")
	ErrTimeout    = errors.New("serlink: response timeout")
)

// DefaultTimeout bounds the receive phase of a transaction.
const DefaultTimeout = 5 * time.Second

// pollDelay paces the receive loop when the port returns no data (ports
// opened without a read timeout would otherwise spin).
const pollDelay = time.Millisecond

// Link is the UART rendition of the request/response exchange: the same
// terminator-delimited frames as the I2C transport, minus the chunking and
// availability handshake. A Link is not safe for concurrent use.
type Link struct {
	Port    Port
	Grow    transport.GrowFn // optional receive buffer growth
	Timeout time.Duration    // zero means DefaultTimeout

	buf  []byte
	used int
}

var _ transport.Transactor = (*Link)(nil)

// Buf returns the transaction buffer and the number of response bytes it
// holds.
func (l *Link) Buf() ([]byte, int) { return l.buf, l.used }

// RequestResponse performs a full request/response transaction.
func (l *Link) RequestResponse(buf []byte) ([]byte, error) {
	return l.Transaction(0, buf)
}

// Reset writes a bare terminator to flush any partial request the device may
// hold from before a host restart.
func (l *Link) Reset() error {
	if l.Port == nil {
		return ErrConfig
	}
	if _, err := l.Port.Write([]byte{jsonb.Terminator}); err != nil {
		metrics.IncError(metrics.ErrSerialWrite)
		return fmt.Errorf("serlink reset: %w", err)
	}
	return nil
}

// Transaction writes the terminator-ended request found at the start of buf
// and, unless flags says otherwise, accumulates the response back into buf
// until its terminator arrives. The returned slice aliases the transaction
// buffer.
func (l *Link) Transaction(flags transport.Flags, buf []byte) ([]byte, error) {
	if l.Port == nil || len(buf) < 2 {
		return nil, ErrConfig
	}
	l.buf = buf
	l.used = 0

	term := bytes.IndexByte(buf, jsonb.Terminator)
	if term < 0 {
		return nil, ErrTerminator
	}
	if _, err := l.Port.Write(buf[:term+1]); err != nil {
		metrics.IncError(metrics.ErrSerialWrite)
		return nil, fmt.Errorf("serlink write: %w", err)
	}
	metrics.IncSerialTx()

	if flags&transport.FlagNoResponse != 0 {
		return nil, nil
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		if l.used == len(l.buf) {
			grown := false
			if l.Grow != nil {
				if nb, ok := l.Grow(l.buf, 1); ok {
					l.buf = nb
					grown = true
				}
			}
			if !grown {
				return nil, ErrRxOverflow
			}
		}
		n, err := l.Port.Read(l.buf[l.used:])
		if err != nil && !errors.Is(err, io.EOF) {
			metrics.IncError(metrics.ErrSerialRead)
			return nil, fmt.Errorf("serlink read: %w", err)
		}
		if n > 0 {
			end := bytes.IndexByte(l.buf[l.used:l.used+n], jsonb.Terminator)
			l.used += n
			if end >= 0 {
				metrics.IncSerialRx()
				metrics.IncTransaction()
				if flags&transport.FlagIgnoreResponse != 0 {
					l.used = 0
					return nil, nil
				}
				return l.buf[:l.used], nil
			}
			continue
		}
		// A read timeout surfaces as zero bytes (or EOF); keep polling
		// until the transaction deadline expires.
		if time.Now().After(deadline) {
			metrics.IncError(metrics.ErrTimeout)
			return nil, ErrTimeout
		}
		time.Sleep(pollDelay)
	}
}
