package soi2c

import "time"

const (
	// minBufLen is the smallest workable transaction buffer: chunk header
	// plus room for a terminator-only exchange.
	minBufLen = 5
	// txChunkMax bounds a single bus write; one length byte precedes it.
	txChunkMax = 250
	// txChunkDelay gives the device time to drain its receive register
	// between chunks.
	txChunkDelay = 250 * time.Millisecond
	// rxHdrLen is the [available, returned] header on every read.
	rxHdrLen     = 2
	rxWriteDelay = 1 * time.Millisecond
	rxReadDelay  = 5 * time.Millisecond
	// rxTimeout bounds the total idle polling in the receive phase (rounds
	// that transfer data do not count against it); rxPollDelay is the idle
	// poll interval while the device has nothing available yet.
	rxTimeout   = 5 * time.Second
	rxPollDelay = 50 * time.Millisecond
	// resetBufLen matches the scratch request used to flush the device.
	resetBufLen = 25
)
