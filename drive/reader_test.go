package drive

import (
	"context"
	"errors"
	"testing"

	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errScratch = errors.New("scratch")

// counting returns a disc where stereo sample j is (j, -j).
func counting(t *testing.T, sectors int) *Image {
	samples := make([]int16, sectors*cdda.ValuesPerSector)
	for j := range sectors * cdda.SamplesPerSector {
		samples[2*j] = int16(j)
		samples[2*j+1] = -int16(j)
	}
	img, err := NewImage(cdda.EncodePCM(samples), nil)
	require.NoError(t, err)
	return img
}

// discSample is what counting stored at disc sample j, or silence.
func discSample(j, sectors int) (int16, int16) {
	if j < 0 || j >= sectors*cdda.SamplesPerSector {
		return 0, 0
	}
	return int16(j), -int16(j)
}

func TestReadTrackOffsets(t *testing.T) {
	const sectors = 10
	img := counting(t, sectors)

	cases := []struct {
		name        string
		first, last int32
		offset      int
	}{
		{"aligned", 2, 4, 0},
		{"positive", 2, 4, 3},
		{"negative", 2, 4, -700},
		{"before start", 0, 1, -10},
		{"past end", 8, 9, 5},
		{"whole sectors", 3, 5, 588},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			track := &disc.TrackDescriptor{Number: 1, FirstSector: tc.first, LastSector: tc.last}
			r := Reader{Source: img, ReadOffset: tc.offset}
			pass, err := r.ReadTrack(context.Background(), track)
			require.NoError(t, err)
			require.Len(t, pass.Samples, track.ExpectedSamples())
			assert.Equal(t, 0, pass.Errors.ErrorCount(), "padding is not an error")

			base := int(tc.first)*cdda.SamplesPerSector + tc.offset
			for j := range len(pass.Samples) / 2 {
				l, rr := discSample(base+j, sectors)
				if !assert.Equal(t, l, pass.Samples[2*j], "sample %d", j) ||
					!assert.Equal(t, rr, pass.Samples[2*j+1], "sample %d", j) {
					return
				}
			}
		})
	}
}

func TestReadTrackFlagsFailures(t *testing.T) {
	img := counting(t, 10)
	img.Faults = map[int32]error{3: errScratch}
	track := &disc.TrackDescriptor{Number: 2, FirstSector: 2, LastSector: 4}

	pass, err := (&Reader{Source: img}).ReadTrack(context.Background(), track)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, pass.Errors.Indices())
	for _, v := range pass.Samples[cdda.ValuesPerSector : 2*cdda.ValuesPerSector] {
		require.Zero(t, v, "failed sector is zero filled")
	}
	assert.NotZero(t, pass.Samples[2*cdda.ValuesPerSector])

	// an unaligned read spreads one bad disc sector over two track sectors
	pass, err = (&Reader{Source: img, ReadOffset: 3}).ReadTrack(context.Background(), track)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, pass.Errors.Indices())
}

func TestReadTrackFailureLimit(t *testing.T) {
	img := counting(t, 10)
	img.Faults = map[int32]error{2: errScratch, 3: errScratch, 5: errScratch, 6: errScratch}
	track := &disc.TrackDescriptor{Number: 1, FirstSector: 1, LastSector: 8}

	pass, err := (&Reader{Source: img, MaxConsecutiveFailures: 3}).ReadTrack(context.Background(), track)
	require.NoError(t, err, "failures reset after a good read")
	assert.Equal(t, 4, pass.Errors.ErrorCount())

	_, err = (&Reader{Source: img, MaxConsecutiveFailures: 2}).ReadTrack(context.Background(), track)
	assert.ErrorIs(t, err, ErrTooManyFailures)

	_, err = (&Reader{Source: img, MaxConsecutiveFailures: -1}).ReadTrack(context.Background(), track)
	assert.NoError(t, err)
}

func TestReadTrackCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	track := &disc.TrackDescriptor{Number: 1, FirstSector: 0, LastSector: 3}
	_, err := (&Reader{Source: counting(t, 4)}).ReadTrack(ctx, track)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImage(t *testing.T) {
	_, err := NewImage(make([]byte, 100), nil)
	assert.Error(t, err)

	img := counting(t, 3)
	assert.Equal(t, int32(3), img.LengthSectors())
	toc, err := img.TOC()
	require.NoError(t, err)
	assert.Equal(t, []disc.TOCEntry{{Number: 1, LengthSectors: 3, Audio: true, CopyPermitted: true}}, toc)

	toc[0].Number = 9
	again, _ := img.TOC()
	assert.Equal(t, uint8(1), again[0].Number)

	buf := make([]byte, cdda.BytesPerSector)
	assert.Error(t, img.ReadSector(3, buf))
	assert.NoError(t, img.ReadSector(2, buf))
	assert.NoError(t, img.Close())
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "drive: too many consecutive read failures", ErrTooManyFailures.Error())
	assert.Equal(t, "drive: unknown error code: 9", ReadError(9).Error())
}
