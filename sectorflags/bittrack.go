// Package sectorflags records which sectors of a track extraction were
// flagged as erroneous or uncertain.
//
// A BitTrack has one writer, the sector read loop. The first read or
// serialization freezes it, after which it can be shared freely.
package sectorflags

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/bits"
	"sync"
)

// BitTrack is a bitmap with one bit per sector of a track.
// Bit i covers the sector at firstSector+i.
type BitTrack struct {
	mtx    sync.RWMutex
	n      int
	bits   []byte
	frozen bool
}

// New returns a clean BitTrack covering sectorCount sectors.
func New(sectorCount int) (*BitTrack, error) {
	if sectorCount < 0 {
		return nil, fmt.Errorf("sector count %d: %w", sectorCount, ErrOutOfRange)
	}
	return &BitTrack{n: sectorCount, bits: make([]byte, packedLen(sectorCount))}, nil
}

// FromCompactForm restores a BitTrack serialized with [BitTrack.CompactForm].
// The result is frozen.
func FromCompactForm(p []byte, sectorCount int) (*BitTrack, error) {
	if sectorCount < 0 {
		return nil, fmt.Errorf("sector count %d: %w", sectorCount, ErrMalformedData)
	}
	if len(p) != packedLen(sectorCount) {
		return nil, fmt.Errorf("%d bytes for %d sectors: %w", len(p), sectorCount, ErrMalformedData)
	}
	// padding in the final byte must be zero or the round trip is lossy
	if rem := sectorCount % 8; rem != 0 {
		if p[len(p)-1]&(0xFF>>rem) != 0 {
			return nil, fmt.Errorf("padding bits set: %w", ErrMalformedData)
		}
	}
	bt := &BitTrack{n: sectorCount, bits: bytes.Clone(p), frozen: true}
	if bt.bits == nil {
		bt.bits = []byte{}
	}
	return bt, nil
}

func packedLen(n int) int {
	return (n + 7) / 8
}

// Len returns the number of sectors covered. It does not freeze the track.
func (bt *BitTrack) Len() int {
	return bt.n
}

// Set flags sector i.
func (bt *BitTrack) Set(i int) error {
	bt.mtx.Lock()
	defer bt.mtx.Unlock()

	if i < 0 || i >= bt.n {
		return fmt.Errorf("sector %d of %d: %w", i, bt.n, ErrOutOfRange)
	}
	if bt.frozen {
		return ErrFrozenTrack
	}
	bt.bits[i/8] |= 0x80 >> (i % 8)
	return nil
}

// IsSet reports whether sector i was flagged.
func (bt *BitTrack) IsSet(i int) (bool, error) {
	bt.freeze()
	if i < 0 || i >= bt.n {
		return false, fmt.Errorf("sector %d of %d: %w", i, bt.n, ErrOutOfRange)
	}
	return bt.bits[i/8]&(0x80>>(i%8)) != 0, nil
}

// ErrorCount returns the number of flagged sectors.
func (bt *BitTrack) ErrorCount() int {
	bt.freeze()
	count := 0
	for _, b := range bt.bits {
		count += bits.OnesCount8(b)
	}
	return count
}

// CompactForm packs the bits 8 per byte, most significant bit first,
// with the final byte zero padded.
func (bt *BitTrack) CompactForm() []byte {
	bt.freeze()
	return bytes.Clone(bt.bits)
}

// Indices returns the flagged sector indices in ascending order.
func (bt *BitTrack) Indices() []int {
	bt.freeze()
	var idx []int
	for i := range bt.n {
		if bt.bits[i/8]&(0x80>>(i%8)) != 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// Freeze makes the track read-only. It is safe to call more than once.
func (bt *BitTrack) Freeze() {
	bt.freeze()
}

// Frozen reports whether further writes will be rejected.
func (bt *BitTrack) Frozen() bool {
	bt.mtx.RLock()
	defer bt.mtx.RUnlock()
	return bt.frozen
}

func (bt *BitTrack) freeze() {
	bt.mtx.Lock()
	bt.frozen = true
	bt.mtx.Unlock()
}

// Equal reports whether both tracks cover the same number of sectors
// with the same flags.
func (bt *BitTrack) Equal(other *BitTrack) bool {
	if bt == nil || other == nil {
		return bt == other
	}
	return bt.n == other.n && bytes.Equal(bt.CompactForm(), other.CompactForm())
}

func (bt *BitTrack) String() string {
	return fmt.Sprintf("%d/%d [%s]", bt.ErrorCount(), bt.n, hex.EncodeToString(bt.CompactForm()))
}
