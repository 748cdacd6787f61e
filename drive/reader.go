// Package drive reads audio tracks off a disc one sector at a time,
// correcting for the drive's read offset and flagging sectors that could
// not be read.
package drive

import (
	"context"
	"fmt"

	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/rabidaudio/ripcheck/sectorflags"
	"go.uber.org/zap"
)

// DefaultMaxConsecutiveFailures is used when Reader.MaxConsecutiveFailures
// is zero.
const DefaultMaxConsecutiveFailures = 75

// SectorReader is a source of raw CDDA sectors addressed from the start
// of the first track.
type SectorReader interface {
	// ReadSector fills p, which is at least cdda.BytesPerSector long,
	// with the little endian PCM of sector.
	ReadSector(sector int32, p []byte) error
	// LengthSectors is the first sector past the audio area.
	LengthSectors() int32
}

// Device is a drive with a disc in it.
type Device interface {
	SectorReader
	TOC() ([]disc.TOCEntry, error)
	Info() disc.DriveInformation
	Close() error
}

// Reader runs the read loop for single tracks.
type Reader struct {
	Source SectorReader

	// ReadOffset is the drive's read offset correction in samples. A
	// positive value means the drive returns audio early, so reading
	// starts that many samples later.
	ReadOffset int

	// MaxConsecutiveFailures aborts the track once this many sectors in a
	// row fail. Negative disables the limit.
	MaxConsecutiveFailures int

	Logger *zap.Logger
}

// Pass is the raw output of reading one track.
type Pass struct {
	Samples []int16
	Errors  *sectorflags.BitTrack
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// ReadTrack reads every sector of track. Sectors the source fails to
// read are zero filled and flagged; sectors outside the audio area (pulled
// in by the offset correction) are silence and not flagged.
func (r *Reader) ReadTrack(ctx context.Context, track *disc.TrackDescriptor) (Pass, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := r.MaxConsecutiveFailures
	if limit == 0 {
		limit = DefaultMaxConsecutiveFailures
	}

	const sps = cdda.SamplesPerSector
	sectors := int(track.SectorCount())
	flags, err := sectorflags.New(sectors)
	if err != nil {
		return Pass{}, err
	}
	n := int64(sectors) * sps
	samples := make([]int16, n*cdda.Channels)

	// disc sample holding track sample 0
	start := int64(track.FirstSector)*sps + int64(r.ReadOffset)
	length := int64(r.Source.LengthSectors())
	buf := make([]byte, cdda.BytesPerSector)
	failures := 0

	for s := floorDiv(start, sps); n > 0 && s <= floorDiv(start+n-1, sps); s++ {
		if err := ctx.Err(); err != nil {
			return Pass{}, err
		}
		// track samples [a, b) come from disc sector s
		j0 := s*sps - start
		a, b := max(j0, 0), min(j0+sps, n)
		if s < 0 || s >= length {
			continue
		}

		if err := r.Source.ReadSector(int32(s), buf); err != nil {
			failures++
			logger.Warn("sector read failed",
				zap.Uint8("track", track.Number),
				zap.Int64("sector", s),
				zap.Int("consecutive", failures),
				zap.Error(err))
			for ts := a / sps; ts <= (b-1)/sps; ts++ {
				if err := flags.Set(int(ts)); err != nil {
					return Pass{}, err
				}
			}
			if limit > 0 && failures >= limit {
				return Pass{}, fmt.Errorf("track %d at sector %d: %w", track.Number, s, ErrTooManyFailures)
			}
			continue
		}
		failures = 0

		pcm, err := cdda.DecodePCM(buf)
		if err != nil {
			return Pass{}, err
		}
		copy(samples[a*cdda.Channels:b*cdda.Channels], pcm[(a-j0)*cdda.Channels:])
	}

	if c := flags.ErrorCount(); c > 0 {
		logger.Info("track read with errors", zap.Uint8("track", track.Number), zap.Int("flagged", c))
	}
	return Pass{Samples: samples, Errors: flags}, nil
}
