// Package ripper extracts every audio track of a disc, verifies it against
// AccurateRip and keeps a record of the result.
package ripper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/rabidaudio/ripcheck/drive"
	"github.com/rabidaudio/ripcheck/extraction"
	"github.com/rabidaudio/ripcheck/metrics"
	"github.com/rabidaudio/ripcheck/vfs"
	"github.com/rabidaudio/ripcheck/workerpool"
	"go.uber.org/zap"
)

// RecordStore persists finished records.
type RecordStore interface {
	Save(discID string, r *extraction.Record) (uuid.UUID, error)
}

// Ripper reads tracks sequentially off Device and builds their records on
// Pool while the next track is read.
type Ripper struct {
	Device      drive.Device
	Destination vfs.Destination
	Pool        *workerpool.Pool
	Builder     *extraction.Builder

	// optional
	References ReferenceSource
	Store      RecordStore
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	ReadOffset             int
	MaxConsecutiveFailures int
}

// TrackResult is the outcome for one track. Exactly one of Record and Err
// is set.
type TrackResult struct {
	Number   uint8
	Record   *extraction.Record
	RecordID uuid.UUID
	Err      error
}

// Result summarizes a rip.
type Result struct {
	Disc          *disc.CompactDisc
	DiscID        accuraterip.DiscID
	MusicBrainzID string
	Tracks        []TrackResult
}

// Failed returns the tracks that did not produce a record.
func (r *Result) Failed() []TrackResult {
	var out []TrackResult
	for _, t := range r.Tracks {
		if t.Err != nil {
			out = append(out, t)
		}
	}
	return out
}

// Rip extracts the given track numbers, or every audio track when numbers
// is empty, into album. Per-track failures are reported in the result;
// the error is only set when the disc could not be read at all or ctx was
// canceled.
func (rp *Ripper) Rip(ctx context.Context, album string, numbers ...uint8) (*Result, error) {
	logger := rp.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	toc, err := rp.Device.TOC()
	if err != nil {
		return nil, fmt.Errorf("read table of contents: %w", err)
	}
	d, err := disc.FromTOC(toc)
	if err != nil {
		return nil, err
	}
	audio := d.AudioTracks()
	if len(audio) == 0 {
		return nil, drive.ErrNoAudio
	}

	res := &Result{
		Disc:          d,
		DiscID:        accuraterip.ComputeDiscID(d.TrackOffsets(), d.LeadOut()),
		MusicBrainzID: d.MusicBrainzDiscID(),
	}
	logger = logger.With(zap.String("disc", res.DiscID.String()))
	logger.Info("disc loaded",
		zap.Int("tracks", len(audio)),
		zap.String("musicbrainz", res.MusicBrainzID))

	var responses []accuraterip.Response
	if rp.References != nil {
		if responses, err = rp.References.Lookup(res.DiscID); err != nil {
			logger.Warn("accuraterip lookup failed, continuing without references", zap.Error(err))
		} else if len(responses) == 0 {
			logger.Info("disc not in accuraterip database")
		}
	}

	info := rp.Device.Info()
	info.ReadOffset = rp.ReadOffset
	reader := drive.Reader{
		Source:                 rp.Device,
		ReadOffset:             rp.ReadOffset,
		MaxConsecutiveFailures: rp.MaxConsecutiveFailures,
		Logger:                 logger,
	}

	var mtx sync.Mutex
	report := func(tr TrackResult) {
		mtx.Lock()
		defer mtx.Unlock()
		res.Tracks = append(res.Tracks, tr)
	}

	wanted := map[uint8]bool{}
	for _, n := range numbers {
		wanted[n] = true
	}

	var ripErr error
	for i, track := range audio {
		if len(wanted) > 0 && !wanted[track.Number] {
			continue
		}
		start := time.Now()
		pass, err := reader.ReadTrack(ctx, track)
		if err != nil {
			if ctx.Err() != nil {
				ripErr = err
				break
			}
			rp.Metrics.Failure("read")
			report(TrackResult{Number: track.Number, Err: err})
			continue
		}
		rp.Metrics.ObserveRead(int(track.SectorCount()), pass.Errors.ErrorCount(), time.Since(start))

		in := extraction.Input{
			Track:      track,
			Drive:      &info,
			Position:   accuraterip.Position{First: d.IsFirstTrack(track), Last: d.IsLastTrack(track)},
			Samples:    pass.Samples,
			Errors:     pass.Errors,
			References: accuraterip.References(responses, res.DiscID, i+1),
		}
		err = rp.Pool.Submit(ctx, workerpool.Task{
			ID:      fmt.Sprintf("track-%02d", track.Number),
			Context: ctx,
			Fn: func(ctx context.Context) error {
				tr := rp.build(album, res.DiscID, in, logger)
				report(tr)
				return tr.Err
			},
		})
		if err != nil {
			ripErr = err
			break
		}
	}
	rp.Pool.Wait()

	sort.Slice(res.Tracks, func(i, j int) bool { return res.Tracks[i].Number < res.Tracks[j].Number })
	return res, ripErr
}

func (rp *Ripper) build(album string, id accuraterip.DiscID, in extraction.Input, logger *zap.Logger) TrackResult {
	tr := TrackResult{Number: in.Track.Number}
	start := time.Now()

	w, path, err := rp.Destination.CreateTrack(album, in.Track)
	if err != nil {
		rp.Metrics.Failure("destination")
		tr.Err = fmt.Errorf("track %d: %w", in.Track.Number, err)
		return tr
	}
	in.Sink, in.Destination = w, path
	r, err := rp.Builder.Build(in)
	if err == nil {
		if err = w.Close(); err != nil {
			err = fmt.Errorf("close %s: %w", path, err)
		}
	}
	if err != nil {
		if derr := w.Discard(); derr != nil {
			logger.Warn("remove partial track", zap.String("path", path), zap.Error(derr))
		}
		reason := "build"
		if errors.Is(err, extraction.ErrIncompleteExtraction) {
			reason = "incomplete"
		}
		rp.Metrics.Failure(reason)
		tr.Err = err
		return tr
	}
	_, alt := r.Checksums().AlternateOffset()
	rp.Metrics.ObserveBuild(r.Status().String(), alt, time.Since(start))
	tr.Record = r

	fields := []zap.Field{
		zap.Uint8("track", in.Track.Number),
		zap.String("status", r.Status().String()),
		zap.Int("confidence", r.Checksums().Confidence()),
		zap.Int("flagged", r.ErrorFlags().ErrorCount()),
		zap.String("md5", r.MD5Hex()),
		zap.String("path", path),
	}
	if v1, ok := r.Checksums().Checksum(accuraterip.KindPrimary); ok {
		fields = append(fields, zap.String("accuraterip", accuraterip.FormatChecksum(v1)))
	}
	if off, ok := r.Checksums().AlternateOffset(); ok {
		fields = append(fields, zap.Int("pressing_offset", off))
	}
	logger.Info("track extracted", fields...)

	if rp.Store != nil {
		recID, err := rp.Store.Save(id.String(), r)
		if err != nil {
			// the audio is on disk; a lost record is only logged
			logger.Error("save record", zap.Uint8("track", in.Track.Number), zap.Error(err))
			return tr
		}
		rp.Metrics.Stored()
		tr.RecordID = recID
	}
	return tr
}
