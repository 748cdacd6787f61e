package extraction

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"errors"
	"testing"
	"time"

	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/rabidaudio/ripcheck/sectorflags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return epoch }

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ramp(sectors int) []int16 {
	samples := make([]int16, sectors*cdda.ValuesPerSector)
	for i := range samples {
		samples[i] = int16(i * 7)
	}
	return samples
}

func newBuilder() *Builder {
	b := NewBuilder(&accuraterip.Engine{Workers: 2})
	b.Now = fixedClock
	return b
}

func TestBuildScenario(t *testing.T) {
	track := &disc.TrackDescriptor{Number: 1, FirstSector: 150, LastSector: 2000, ChannelsPerFrame: 2}
	samples := ramp(1851)
	flags := must(sectorflags.New(1851))
	require.NoError(t, flags.Set(10))
	require.NoError(t, flags.Set(11))

	var sink bytes.Buffer
	r, err := newBuilder().Build(Input{
		Track:       track,
		Drive:       &disc.DriveInformation{Vendor: "PLEXTOR", Model: "PX-W4012A", ReadOffset: 98},
		Position:    accuraterip.Position{First: true},
		Samples:     samples,
		Errors:      flags,
		Destination: "01.wav",
		Sink:        &sink,
	})
	require.NoError(t, err)

	pcm := cdda.EncodePCM(samples)
	assert.Equal(t, pcm, sink.Bytes(), "sink receives the digested bytes")
	assert.Equal(t, md5.Sum(pcm), r.MD5())
	assert.Equal(t, sha1.Sum(pcm), r.SHA1())
	assert.Len(t, r.MD5Hex(), 32)
	assert.Len(t, r.SHA1Hex(), 40)

	v1 := must(accuraterip.Checksum(samples, accuraterip.Position{First: true}))
	got, ok := r.Checksums().Checksum(accuraterip.KindPrimary)
	assert.True(t, ok)
	assert.Equal(t, v1, got)

	assert.True(t, r.ErrorFlags().Frozen())
	assert.Equal(t, 2, r.ErrorFlags().ErrorCount())
	assert.Len(t, r.ErrorFlags().CompactForm(), 232)
	assert.Equal(t, accuraterip.StatusNotInDatabase, r.Status())
	assert.Equal(t, epoch, r.Date())
	assert.Equal(t, "01.wav", r.Destination())
	assert.Equal(t, 98, r.Drive().ReadOffset)
	assert.Same(t, track, r.Track())
}

func TestBuildDeterministic(t *testing.T) {
	track := &disc.TrackDescriptor{Number: 3, FirstSector: 0, LastSector: 99}
	samples := ramp(100)

	a := must(newBuilder().Build(Input{Track: track, Samples: samples}))
	b := must(newBuilder().Build(Input{Track: track, Samples: samples}))
	assert.Equal(t, a.Data(), b.Data())
	assert.Equal(t, 0, a.ErrorFlags().ErrorCount(), "missing flags mean a clean read")
}

func TestBuildIncomplete(t *testing.T) {
	track := &disc.TrackDescriptor{Number: 2, FirstSector: 150, LastSector: 2000}
	var sink bytes.Buffer

	_, err := newBuilder().Build(Input{Track: track, Samples: ramp(1850), Sink: &sink})
	assert.ErrorIs(t, err, ErrIncompleteExtraction)
	assert.Zero(t, sink.Len(), "nothing written on failure")

	flags := must(sectorflags.New(1000))
	_, err = newBuilder().Build(Input{Track: track, Samples: ramp(1851), Errors: flags})
	assert.ErrorIs(t, err, ErrIncompleteExtraction)
	assert.False(t, flags.Frozen())

	_, err = newBuilder().Build(Input{Samples: ramp(1)})
	assert.ErrorIs(t, err, ErrMissingTrack)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBuildSinkError(t *testing.T) {
	track := &disc.TrackDescriptor{Number: 1, FirstSector: 0, LastSector: 9}
	_, err := newBuilder().Build(Input{Track: track, Samples: ramp(10), Sink: failingWriter{}, Destination: "x.wav"})
	assert.ErrorContains(t, err, "disk full")
}

func TestBuildStatus(t *testing.T) {
	track := &disc.TrackDescriptor{Number: 1, FirstSector: 0, LastSector: 29}
	samples := ramp(30)
	v1 := must(accuraterip.Checksum(samples, accuraterip.Position{}))

	r := must(newBuilder().Build(Input{
		Track:      track,
		Samples:    samples,
		References: []accuraterip.Reference{{Checksum: v1, Confidence: 12}},
	}))
	assert.Equal(t, accuraterip.StatusAccurate, r.Status())
	assert.Equal(t, 12, r.Checksums().Confidence())

	r = must(newBuilder().Build(Input{Track: track, Samples: samples, Confidence: 4}))
	assert.Equal(t, accuraterip.StatusAccurate, r.Status())
	assert.Equal(t, 4, r.Checksums().Confidence())

	flags := must(sectorflags.New(30))
	require.NoError(t, flags.Set(0))
	r = must(newBuilder().Build(Input{
		Track:      track,
		Samples:    samples,
		Errors:     flags,
		References: []accuraterip.Reference{{Checksum: v1 + 1, Confidence: 3}},
	}))
	assert.Equal(t, accuraterip.StatusSuspect, r.Status())
}

func TestRecordData(t *testing.T) {
	track := &disc.TrackDescriptor{Number: 4, FirstSector: 100, LastSector: 149, PreGap: 150}
	flags := must(sectorflags.New(50))
	require.NoError(t, flags.Set(49))
	r := must(newBuilder().Build(Input{
		Track:       track,
		Drive:       &disc.DriveInformation{Vendor: "ASUS", Model: "DRW-24B1ST", ReadOffset: 6},
		Samples:     ramp(50),
		Errors:      flags,
		Destination: "04.wav",
		Confidence:  2,
	}))

	restored, err := FromData(r.Data())
	require.NoError(t, err)
	assert.Equal(t, r.Data(), restored.Data())
	assert.True(t, restored.ErrorFlags().Equal(r.ErrorFlags()))
	assert.Equal(t, r.String(), restored.String())

	d := r.Data()
	d.ErrorFlags = d.ErrorFlags[:1]
	_, err = FromData(d)
	assert.ErrorIs(t, err, sectorflags.ErrMalformedData)
}
