package accuraterip

import (
	"fmt"
	"maps"
)

// Kind names one of the checksums kept for a track.
type Kind int

const (
	KindPrimary           Kind = iota // v1 checksum at the drive's offset
	KindAlternatePressing             // v1 checksum at the alternate pressing offset
	KindV2                            // v2 checksum at the drive's offset
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindAlternatePressing:
		return "alternate-pressing"
	case KindV2:
		return "v2"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of one checksum pass over a track. It is a value;
// accessors never expose the internal map.
type Result struct {
	checksums  map[Kind]uint32
	altOffset  int
	hasOffset  bool
	confidence int
}

// NewResult assembles a Result, for example when loading a stored record.
// A nil altOffset means no alternate pressing was found.
func NewResult(checksums map[Kind]uint32, altOffset *int, confidence int) Result {
	r := Result{checksums: maps.Clone(checksums), confidence: max(confidence, 0)}
	if r.checksums == nil {
		r.checksums = map[Kind]uint32{}
	}
	if altOffset != nil {
		r.altOffset, r.hasOffset = *altOffset, true
	}
	return r
}

// Checksum returns the checksum of the given kind, if it was computed.
func (r Result) Checksum(k Kind) (uint32, bool) {
	v, ok := r.checksums[k]
	return v, ok
}

// Checksums returns a copy of every computed checksum.
func (r Result) Checksums() map[Kind]uint32 {
	return maps.Clone(r.checksums)
}

// AlternateOffset returns the alternate pressing offset in samples.
func (r Result) AlternateOffset() (int, bool) {
	return r.altOffset, r.hasOffset
}

// Confidence is the number of database submissions that agree with the rip.
func (r Result) Confidence() int {
	return r.confidence
}

// WithConfidence returns a copy of r with the confidence replaced.
func (r Result) WithConfidence(c int) Result {
	r.checksums = maps.Clone(r.checksums)
	r.confidence = max(c, 0)
	return r
}

// Compute runs a full pass: primary and v2 checksums, confidence against
// refs, and, when neither checksum is in refs, the alternate pressing
// search.
func (e *Engine) Compute(samples []int16, pos Position, refs []Reference) (Result, error) {
	v1, err := Checksum(samples, pos)
	if err != nil {
		return Result{}, err
	}
	v2, err := ChecksumV2(samples, pos)
	if err != nil {
		return Result{}, err
	}
	r := Result{
		checksums:  map[Kind]uint32{KindPrimary: v1, KindV2: v2},
		confidence: Confidence(refs, v1, v2),
	}
	if r.confidence > 0 || len(refs) == 0 {
		return r, nil
	}

	m, ok, err := e.FindAlternateOffset(samples, pos, refs)
	if err != nil {
		return Result{}, err
	}
	if ok {
		r.checksums[KindAlternatePressing] = m.Checksum
		r.altOffset, r.hasOffset = m.Offset, true
		r.confidence = m.Confidence
	}
	return r, nil
}
