// Package extraction assembles the record kept for every extracted track:
// checksums, digests, error flags and where the audio went.
package extraction

import (
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"io"
	"time"

	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/rabidaudio/ripcheck/sectorflags"
)

// Input is the raw output of one read pass over a track.
type Input struct {
	Track    *disc.TrackDescriptor
	Drive    *disc.DriveInformation
	Position accuraterip.Position

	// Samples is interleaved 16-bit stereo PCM covering exactly the
	// track's sectors.
	Samples []int16

	// Errors holds the sectors flagged by the read loop. nil means none.
	Errors *sectorflags.BitTrack

	// Destination names the file the audio is written to and Sink, if set,
	// receives exactly the bytes the digests are computed over.
	Destination string
	Sink        io.Writer

	// Confidence is the number of database entries matching the checksum,
	// as determined by the caller. When zero it is derived from References.
	Confidence int
	References []accuraterip.Reference
}

// Builder turns read passes into records.
type Builder struct {
	Engine *accuraterip.Engine
	Now    func() time.Time
}

// NewBuilder returns a Builder using engine and the wall clock.
func NewBuilder(engine *accuraterip.Engine) *Builder {
	if engine == nil {
		engine = accuraterip.NewEngine()
	}
	return &Builder{Engine: engine, Now: time.Now}
}

// Build validates the pass, writes the audio to the sink while digesting
// it, computes the checksums, and freezes the error flags into a new
// record. On error no record is returned.
func (b *Builder) Build(in Input) (*Record, error) {
	if in.Track == nil {
		return nil, ErrMissingTrack
	}
	sectors := int(in.Track.SectorCount())
	if want := in.Track.ExpectedSamples(); len(in.Samples) != want {
		return nil, fmt.Errorf("track %d: %d samples for %d sectors, want %d: %w",
			in.Track.Number, len(in.Samples), sectors, want, ErrIncompleteExtraction)
	}

	flags := in.Errors
	if flags == nil {
		var err error
		if flags, err = sectorflags.New(sectors); err != nil {
			return nil, err
		}
	}
	if flags.Len() != sectors {
		return nil, fmt.Errorf("track %d: error flags cover %d sectors, want %d: %w",
			in.Track.Number, flags.Len(), sectors, ErrIncompleteExtraction)
	}

	result, err := b.Engine.Compute(in.Samples, in.Position, in.References)
	if err != nil {
		return nil, fmt.Errorf("track %d: %w", in.Track.Number, err)
	}
	if in.Confidence > 0 {
		result = result.WithConfidence(in.Confidence)
	}

	md5h, sha1h := md5.New(), sha1.New()
	w := io.MultiWriter(md5h, sha1h)
	if in.Sink != nil {
		w = io.MultiWriter(md5h, sha1h, in.Sink)
	}
	if _, err := w.Write(cdda.EncodePCM(in.Samples)); err != nil {
		return nil, fmt.Errorf("track %d: write %s: %w", in.Track.Number, in.Destination, err)
	}

	flags.Freeze()
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	r := &Record{
		track:       in.Track,
		drive:       in.Drive,
		errorFlags:  flags,
		checksums:   result,
		status:      accuraterip.Assess(result, len(in.References) > 0 || in.Confidence > 0, flags),
		date:        now(),
		destination: in.Destination,
	}
	copy(r.md5[:], md5h.Sum(nil))
	copy(r.sha1[:], sha1h.Sum(nil))
	return r, nil
}
