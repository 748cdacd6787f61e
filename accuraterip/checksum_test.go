package accuraterip

import (
	"math/rand/v2"
	"testing"

	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noise returns n stereo samples of random audio surrounded by silence
// margins wide enough for any offset within the search range.
func noise(seed uint64, n, margin int) []int16 {
	rng := rand.New(rand.NewPCG(seed, seed^0x5EED))
	samples := make([]int16, 2*n)
	for i := margin; i < n-margin; i++ {
		samples[2*i] = int16(rng.Uint32())
		samples[2*i+1] = int16(rng.Uint32())
	}
	return samples
}

// shift delays samples by offset stereo samples, filling with silence.
func shift(samples []int16, offset int) []int16 {
	n := len(samples) / 2
	out := make([]int16, len(samples))
	for j := range n {
		src := j - offset
		if src >= 0 && src < n {
			out[2*j], out[2*j+1] = samples[2*src], samples[2*src+1]
		}
	}
	return out
}

func TestChecksumZero(t *testing.T) {
	samples := make([]int16, 20*cdda.ValuesPerSector)
	for _, pos := range []Position{{}, {First: true}, {Last: true}, {First: true, Last: true}} {
		v1, err := Checksum(samples, pos)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), v1)

		v2, err := ChecksumV2(samples, pos)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), v2)
	}
}

func TestChecksumWeights(t *testing.T) {
	// left channel 1,2,3 at positions 1,2,3
	sum, err := Checksum([]int16{1, 0, 2, 0, 3, 0}, Position{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1+4+9), sum)

	// right channel lands in the high half of the word
	sum, err = Checksum([]int16{0, 0, 0, 1}, Position{})
	require.NoError(t, err)
	assert.Equal(t, uint32(2<<16), sum)

	// wraps at 32 bits
	sum, err = Checksum([]int16{0, -1, 0, -1}, Position{})
	require.NoError(t, err)
	w := uint32(0xFFFF0000)
	assert.Equal(t, w*1+w*2, sum)
}

func TestChecksumV2FoldsHighBits(t *testing.T) {
	samples := []int16{-1, -1, -1, -1}
	v2, err := ChecksumV2(samples, Position{})
	require.NoError(t, err)

	var want uint32
	for i := uint64(1); i <= 2; i++ {
		p := uint64(0xFFFFFFFF) * i
		want += uint32(p) + uint32(p>>32)
	}
	assert.Equal(t, want, v2)

	v1, err := Checksum(samples, Position{})
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestEdgeExclusion(t *testing.T) {
	const n = 20 * cdda.SamplesPerSector
	skip := 5 * cdda.SamplesPerSector

	tests := []struct {
		name  string
		index int
		pos   Position
		want  uint32
	}{
		{"first track drops leading samples", skip - 2, Position{First: true}, 0},
		{"first track keeps sample 2939", skip - 1, Position{First: true}, uint32(skip)},
		{"middle track keeps leading samples", skip - 2, Position{}, uint32(skip - 1)},
		{"last track drops trailing samples", n - skip, Position{Last: true}, 0},
		{"last track keeps the sample before", n - skip - 1, Position{Last: true}, uint32(n - skip)},
		{"middle track keeps trailing samples", n - 1, Position{}, uint32(n)},
		{"single track disc excludes both", n - 1, Position{First: true, Last: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]int16, 2*n)
			samples[2*tt.index] = 1
			sum, err := Checksum(samples, tt.pos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sum)
		})
	}
}

func TestChecksumErrors(t *testing.T) {
	_, err := Checksum([]int16{1, 2, 3}, Position{})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = ChecksumV2([]int16{1}, Position{})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	samples := make([]int16, 4)
	_, err = ChecksumAt(samples, Position{}, MaxOffset+1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
	_, err = ChecksumAt(samples, Position{}, -MaxOffset-1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
	_, err = ChecksumAt(samples, Position{}, MaxOffset)
	assert.NoError(t, err)
}

func TestChecksumAtMatchesShiftedBuffer(t *testing.T) {
	ref := noise(1, 30*cdda.SamplesPerSector, MaxOffset+20)
	want, err := Checksum(ref, Position{})
	require.NoError(t, err)

	for _, offset := range []int{-MaxOffset, -1234, -1, 1, 588, MaxOffset} {
		got, err := ChecksumAt(shift(ref, offset), Position{}, offset)
		require.NoError(t, err)
		assert.Equal(t, want, got, "offset %d", offset)
	}
}

func TestFindAlternateOffset(t *testing.T) {
	ref := noise(2, 30*cdda.SamplesPerSector, MaxOffset+20)

	for _, pos := range []Position{{}, {First: true}, {Last: true}} {
		want, err := Checksum(ref, pos)
		require.NoError(t, err)
		refs := []Reference{{Checksum: want, Confidence: 7}}

		for _, offset := range []int{-MaxOffset, -2000, -3, 1, 1176, MaxOffset} {
			e := &Engine{Workers: 3}
			m, ok, err := e.FindAlternateOffset(shift(ref, offset), pos, refs)
			require.NoError(t, err)
			require.True(t, ok, "offset %d", offset)
			assert.Equal(t, offset, m.Offset)
			assert.Equal(t, want, m.Checksum)
			assert.Equal(t, 7, m.Confidence)
		}
	}
}

func TestFindAlternateOffsetAgreesWithDirect(t *testing.T) {
	samples := noise(3, 25*cdda.SamplesPerSector, 100)
	pos := Position{First: true}
	for _, offset := range []int{-4000, -589, 2, 3333} {
		sum, err := ChecksumAt(samples, pos, offset)
		require.NoError(t, err)
		for _, workers := range []int{1, 2, 7} {
			e := &Engine{Workers: workers}
			m, ok, err := e.FindAlternateOffset(samples, pos, []Reference{{Checksum: sum, Confidence: 1}})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, offset, m.Offset, "workers %d", workers)
		}
	}
}

func TestFindAlternateOffsetPreference(t *testing.T) {
	samples := noise(4, 25*cdda.SamplesPerSector, 0)
	at := func(o int) uint32 {
		sum, err := ChecksumAt(samples, Position{}, o)
		require.NoError(t, err)
		return sum
	}
	e := NewEngine()

	m, ok, err := e.FindAlternateOffset(samples, Position{}, []Reference{
		{Checksum: at(12), Confidence: 2},
		{Checksum: at(-300), Confidence: 5},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -300, m.Offset, "most submissions wins")

	m, ok, err = e.FindAlternateOffset(samples, Position{}, []Reference{
		{Checksum: at(40), Confidence: 2},
		{Checksum: at(-30), Confidence: 2},
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -30, m.Offset, "smallest shift breaks ties")
}

func TestFindAlternateOffsetNoMatch(t *testing.T) {
	samples := noise(5, 25*cdda.SamplesPerSector, 0)
	e := &Engine{MaxOffset: 50}

	_, ok, err := e.FindAlternateOffset(samples, Position{}, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	far, err := ChecksumAt(samples, Position{}, 400)
	require.NoError(t, err)
	_, ok, err = e.FindAlternateOffset(samples, Position{}, []Reference{{Checksum: far, Confidence: 1}})
	require.NoError(t, err)
	assert.False(t, ok, "outside the configured range")

	_, _, err = e.FindAlternateOffset([]int16{1}, Position{}, []Reference{{}})
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestFormatChecksum(t *testing.T) {
	assert.Equal(t, "0000ABCD", FormatChecksum(0xABCD))
	assert.Equal(t, "DEADBEEF", FormatChecksum(0xDEADBEEF))
}
