// Package storage holds the removable-storage collaborators that share a
// board with out ports. Cards must finish initialization before any pin they
// share with an out port is driven.
package storage

import (
	"errors"
	"fmt"
)

// BlockSize is the card block size in bytes
const BlockSize = 512

// Common card clock frequencies
const (
	Clock400kHz uint32 = 400_000
	Clock12MHz  uint32 = 12_000_000
	Clock24MHz  uint32 = 24_000_000
)

var (
	ErrCardNotReady = errors.New("card not ready")
	ErrBlockRead    = errors.New("block read failed")
	ErrBufferSize   = errors.New("buffer smaller than one block")
	ErrBlockRange   = errors.New("block index out of range")
)

// Card is a block storage device
type Card interface {
	// InitCard brings the card up at the given bus clock.
	// Returns ErrCardNotReady (possibly wrapped) while no card is present.
	InitCard(clockHz uint32) error

	// ReadBlock reads block index into buf[:BlockSize]
	ReadBlock(index uint32, buf []byte) error

	// BlockCount returns the number of blocks, 0 before InitCard succeeds
	BlockCount() uint32
}

// Retry controls WaitReady polling
type Retry struct {
	// Attempts is the maximum number of InitCard calls; 0 retries forever
	Attempts int

	// Delay is called between attempts (e.g. a 1s sleep)
	Delay func()
}

// WaitReady polls card.InitCard until it succeeds.
// It returns the last error once Attempts are exhausted.
func WaitReady(card Card, clockHz uint32, retry Retry) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = card.InitCard(clockHz); err == nil {
			return nil
		}
		if retry.Attempts > 0 && attempt >= retry.Attempts {
			return fmt.Errorf("card init failed after %d attempts: %w", attempt, err)
		}
		if retry.Delay != nil {
			retry.Delay()
		}
	}
}

// CheckRead validates a ReadBlock request against the card size
func CheckRead(card Card, index uint32, buf []byte) error {
	if len(buf) < BlockSize {
		return ErrBufferSize
	}
	count := card.BlockCount()
	if count == 0 {
		return ErrCardNotReady
	}
	if index >= count {
		return ErrBlockRange
	}
	return nil
}
