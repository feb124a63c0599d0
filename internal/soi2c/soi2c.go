package soi2c

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/blues/note-c-zero/internal/jsonb"
	"github.com/blues/note-c-zero/internal/metrics"
	"github.com/blues/note-c-zero/internal/transport"
)

// DefaultAddr is the companion module's fixed I2C address.
const DefaultAddr = 0x17

// Bus is one raw I2C exchange with a device. Implementations perform a
// single bus write (Tx) or read (Rx) of exactly len(p) bytes.
type Bus interface {
	Tx(addr uint16, p []byte) error
	Rx(addr uint16, p []byte) error
}

var (
	ErrConfig     = errors.New("soi2c: not configured")
	ErrTerminator = errors.New("soi2c: request not terminated")
	ErrTxOverflow = errors.New("soi2c: tx buffer overflow")
	ErrRxOverflow = errors.New("soi2c: rx buffer overflow")
	ErrTransmit   = errors.New("soi2c: transmit")
	ErrReceive    = errors.New("soi2c: receive")
	ErrTimeout    = errors.New("soi2c: response timeout")
	ErrBadSize    = errors.New("soi2c: bad returned size")
)

// Client speaks the serial-over-I2C protocol with the companion module: the
// terminator-ended request goes out in length-prefixed chunks, then the
// response is pulled through the 2-byte availability handshake until the
// terminator arrives. A Client is not safe for concurrent use.
type Client struct {
	Addr  uint16              // device address; 0 selects DefaultAddr
	Bus   Bus
	Delay func(time.Duration) // nil means time.Sleep
	Grow  transport.GrowFn    // optional receive buffer growth

	buf  []byte
	used int
}

var _ transport.Transactor = (*Client)(nil)

func (c *Client) delay(d time.Duration) {
	if c.Delay != nil {
		c.Delay(d)
		return
	}
	time.Sleep(d)
}

// Buf returns the transaction buffer (which growth may have replaced) and
// the number of response bytes it holds.
func (c *Client) Buf() ([]byte, int) { return c.buf, c.used }

// RequestResponse performs a full request/response transaction.
func (c *Client) RequestResponse(buf []byte) ([]byte, error) {
	return c.Transaction(0, buf)
}

// Request sends the request and drains, but discards, the response.
func (c *Client) Request(buf []byte) error {
	_, err := c.Transaction(transport.FlagIgnoreResponse, buf)
	return err
}

// Command sends a request for which the device produces no response.
func (c *Client) Command(buf []byte) error {
	_, err := c.Transaction(transport.FlagNoResponse, buf)
	return err
}

// Reset flushes anything pending on the device from before a host restart by
// sending a bare terminator, ensuring the first real transaction is received
// cleanly.
func (c *Client) Reset() error {
	var req [resetBufLen]byte
	req[0] = jsonb.Terminator
	_, err := c.Transaction(transport.FlagIgnoreResponse, req[:])
	return err
}

// Transaction sends the terminator-ended request found at the start of buf
// and, unless flags says otherwise, receives the response back into buf
// (growing it via the Grow callback when available). buf is used as the I/O
// workspace for both directions; its request content is destroyed. The
// returned slice aliases the transaction buffer.
func (c *Client) Transaction(flags transport.Flags, buf []byte) ([]byte, error) {
	if c.Addr == 0 {
		c.Addr = DefaultAddr
	}
	if c.Bus == nil || len(buf) < minBufLen {
		return nil, ErrConfig
	}
	c.buf = buf
	c.used = 0

	term := bytes.IndexByte(buf, jsonb.Terminator)
	if term < 0 {
		return nil, ErrTerminator
	}
	reqLen := term + 1

	// Shift the request up one byte to make room for the chunk-length
	// header that precedes every transmitted chunk.
	if len(buf)-reqLen < 1 {
		return nil, ErrTxOverflow
	}
	copy(buf[1:1+reqLen], buf[:reqLen])

	left := reqLen
	for left > 0 {
		chunk := txChunkMax
		if left < chunk {
			chunk = left
		}
		buf[0] = byte(chunk)
		if err := c.Bus.Tx(c.Addr, buf[:1+chunk]); err != nil {
			metrics.IncError(metrics.ErrI2CTx)
			return nil, fmt.Errorf("%w: %v", ErrTransmit, err)
		}
		metrics.IncI2CTxChunk()
		c.delay(txChunkDelay)
		left -= chunk
		copy(buf[1:1+left], buf[1+chunk:1+chunk+left])
	}

	if flags&transport.FlagNoResponse != 0 {
		return nil, nil
	}

	// Receive loop: the request buffer becomes the response accumulator.
	// Each round writes a 2-byte "read will come next" header and reads
	// back [available, returned, data...].
	msLeft := rxTimeout
	chunk := 0
	for {
		if c.Grow != nil && c.used+rxHdrLen+chunk > len(c.buf) {
			if nb, ok := c.Grow(c.buf, c.used+rxHdrLen+chunk); ok {
				c.buf = nb
			}
		}
		if c.used+rxHdrLen+chunk > len(c.buf) {
			chunk = len(c.buf) - c.used - rxHdrLen
			if chunk < 0 {
				return nil, ErrRxOverflow
			}
		}

		c.buf[c.used] = 0
		c.buf[c.used+1] = byte(chunk)
		if err := c.Bus.Tx(c.Addr, c.buf[c.used:c.used+rxHdrLen]); err != nil {
			metrics.IncError(metrics.ErrI2CTx)
			return nil, fmt.Errorf("%w: %v", ErrTransmit, err)
		}
		c.delay(rxWriteDelay)

		if err := c.Bus.Rx(c.Addr, c.buf[c.used:c.used+rxHdrLen+chunk]); err != nil {
			metrics.IncError(metrics.ErrI2CRx)
			return nil, fmt.Errorf("%w: %v", ErrReceive, err)
		}
		metrics.IncI2CRxChunk()
		c.delay(rxReadDelay)

		available := int(c.buf[c.used])
		returned := int(c.buf[c.used+1])
		if returned != chunk {
			return nil, ErrBadSize
		}

		gotTerm := bytes.IndexByte(c.buf[c.used+rxHdrLen:c.used+rxHdrLen+chunk], jsonb.Terminator) >= 0

		if flags&transport.FlagIgnoreResponse == 0 && chunk > 0 {
			copy(c.buf[c.used:], c.buf[c.used+rxHdrLen:c.used+rxHdrLen+chunk])
			c.used += chunk
		}

		// Ask for everything the device says it has next round.
		chunk = available
		if chunk > 0 {
			continue
		}
		if gotTerm {
			break
		}
		if msLeft < rxPollDelay {
			metrics.IncError(metrics.ErrTimeout)
			return nil, ErrTimeout
		}
		c.delay(rxPollDelay)
		msLeft -= rxPollDelay
	}

	metrics.IncTransaction()
	if flags&transport.FlagIgnoreResponse != 0 {
		return nil, nil
	}
	return c.buf[:c.used], nil
}
