// Package accuraterip computes the position weighted checksums used by the
// AccurateRip database and searches for alternate pressing offsets.
//
// Sample buffers are interleaved 16-bit stereo PCM (L0 R0 L1 R1 ...).
// The checksum treats every stereo sample as one 32-bit word, left channel
// in the low half, and weights it by its 1-based position in the track.
package accuraterip

import (
	"fmt"

	"github.com/rabidaudio/ripcheck/cdda"
)

// MaxOffset is the widest alternate pressing offset searched, in samples
// (ten sectors either way).
const MaxOffset = 10 * cdda.SamplesPerSector

// skipSectors is the number of sectors ignored at the very start and very
// end of the disc, where drives disagree about what can be read.
const skipSectors = 5

// Position says where a track sits on the disc. The first and last tracks
// exclude samples at the disc edges from the checksum.
type Position struct {
	First bool
	Last  bool
}

// window returns the inclusive range of sample indices [a, b] that count
// toward the checksum of a track n samples long. b < a means nothing counts.
func (p Position) window(n int) (a, b int) {
	b = n - 1
	if p.First {
		a = skipSectors*cdda.SamplesPerSector - 1
	}
	if p.Last {
		b -= skipSectors * cdda.SamplesPerSector
	}
	return
}

func sampleCount(samples []int16) (int, error) {
	if len(samples)%cdda.Channels != 0 {
		return 0, fmt.Errorf("%d values: %w", len(samples), ErrInsufficientSamples)
	}
	return len(samples) / cdda.Channels, nil
}

// word returns stereo sample j as a checksum word, or zero outside the
// buffer.
func word(samples []int16, j int) uint32 {
	if j < 0 || 2*j+1 >= len(samples) {
		return 0
	}
	return cdda.Frame(samples[2*j], samples[2*j+1])
}

// Checksum returns the primary (v1) checksum of a track.
func Checksum(samples []int16, pos Position) (uint32, error) {
	return ChecksumAt(samples, pos, 0)
}

// ChecksumAt returns the primary checksum of the track as if it had been
// read offset samples later. Samples shifted in from outside the buffer
// count as silence.
func ChecksumAt(samples []int16, pos Position, offset int) (uint32, error) {
	n, err := sampleCount(samples)
	if err != nil {
		return 0, err
	}
	if offset < -MaxOffset || offset > MaxOffset {
		return 0, fmt.Errorf("offset %d: %w", offset, ErrInvalidOffset)
	}
	a, b := pos.window(n)
	var sum uint32
	for i := a; i <= b; i++ {
		sum += uint32(i+1) * word(samples, i+offset)
	}
	return sum, nil
}

// ChecksumV2 returns the v2 checksum, which folds the high half of each
// 64-bit product back into the sum so that the right channel's upper bits
// are not lost.
func ChecksumV2(samples []int16, pos Position) (uint32, error) {
	n, err := sampleCount(samples)
	if err != nil {
		return 0, err
	}
	a, b := pos.window(n)
	var sum uint32
	for i := a; i <= b; i++ {
		p := uint64(word(samples, i)) * uint64(i+1)
		sum += uint32(p) + uint32(p>>32)
	}
	return sum, nil
}

// FormatChecksum renders a checksum the way rip logs show it.
func FormatChecksum(sum uint32) string {
	return fmt.Sprintf("%08X", sum)
}
