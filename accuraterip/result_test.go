package accuraterip

import (
	"testing"

	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flagged int

func (f flagged) ErrorCount() int { return int(f) }

func TestComputeWithoutReferences(t *testing.T) {
	samples := noise(10, 12*cdda.SamplesPerSector, 0)
	r, err := NewEngine().Compute(samples, Position{}, nil)
	require.NoError(t, err)

	v1, ok := r.Checksum(KindPrimary)
	require.True(t, ok)
	want, _ := Checksum(samples, Position{})
	assert.Equal(t, want, v1)

	_, ok = r.Checksum(KindV2)
	assert.True(t, ok)
	_, ok = r.Checksum(KindAlternatePressing)
	assert.False(t, ok)
	_, ok = r.AlternateOffset()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Confidence())
	assert.Equal(t, StatusNotInDatabase, Assess(r, false, flagged(0)))
}

func TestComputePrimaryMatch(t *testing.T) {
	samples := noise(11, 12*cdda.SamplesPerSector, 0)
	v1, _ := Checksum(samples, Position{Last: true})

	r, err := NewEngine().Compute(samples, Position{Last: true}, []Reference{
		{Checksum: v1, Confidence: 4},
		{Checksum: v1 + 1, Confidence: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Confidence())
	_, ok := r.AlternateOffset()
	assert.False(t, ok)
	assert.Equal(t, StatusAccurate, Assess(r, true, flagged(3)))
}

func TestComputeAlternatePressing(t *testing.T) {
	ref := noise(12, 30*cdda.SamplesPerSector, MaxOffset+1)
	want, _ := Checksum(ref, Position{})

	r, err := NewEngine().Compute(shift(ref, -42), Position{}, []Reference{{Checksum: want, Confidence: 12}})
	require.NoError(t, err)

	off, ok := r.AlternateOffset()
	require.True(t, ok)
	assert.Equal(t, -42, off)
	alt, ok := r.Checksum(KindAlternatePressing)
	require.True(t, ok)
	assert.Equal(t, want, alt)
	assert.Equal(t, 12, r.Confidence())
	assert.Equal(t, StatusAccurateAlternatePressing, Assess(r, true, nil))
}

func TestAssessMismatch(t *testing.T) {
	r := NewResult(map[Kind]uint32{KindPrimary: 1}, nil, 0)
	assert.Equal(t, StatusMismatch, Assess(r, true, flagged(0)))
	assert.Equal(t, StatusSuspect, Assess(r, true, flagged(2)))
	assert.Equal(t, StatusMismatch, Assess(r, true, nil))
}

func TestResultIsAValue(t *testing.T) {
	sums := map[Kind]uint32{KindPrimary: 10}
	off := 5
	r := NewResult(sums, &off, -3)
	sums[KindPrimary] = 11
	off = 6

	v, _ := r.Checksum(KindPrimary)
	assert.Equal(t, uint32(10), v)
	got, ok := r.AlternateOffset()
	assert.True(t, ok)
	assert.Equal(t, 5, got)
	assert.Equal(t, 0, r.Confidence())

	r.Checksums()[KindPrimary] = 99
	v, _ = r.Checksum(KindPrimary)
	assert.Equal(t, uint32(10), v)

	r2 := r.WithConfidence(8)
	assert.Equal(t, 8, r2.Confidence())
	assert.Equal(t, 0, r.Confidence())
}

func TestConfidence(t *testing.T) {
	refs := []Reference{{1, 2}, {2, 3}, {1, 4}}
	assert.Equal(t, 6, Confidence(refs, 1))
	assert.Equal(t, 9, Confidence(refs, 1, 2))
	assert.Equal(t, 0, Confidence(refs, 3))
	assert.Equal(t, 0, Confidence(nil, 1))
}

func TestStatusStrings(t *testing.T) {
	for st := StatusNotInDatabase; st <= StatusSuspect; st++ {
		back, ok := ParseStatus(st.String())
		assert.True(t, ok)
		assert.Equal(t, st, back)
	}
	_, ok := ParseStatus("bogus")
	assert.False(t, ok)
	assert.Equal(t, "alternate-pressing", KindAlternatePressing.String())
}
