package disc

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rabidaudio/ripcheck/cdda"
)

// TOCEntry is one track as reported by the drive's table of contents.
type TOCEntry struct {
	Number        uint8 // index of the track, starting at 1
	StartSector   int32 // address of the sector where the data starts
	LengthSectors int32 // total number of sectors the track covers
	Audio         bool
	PreEmphasis   bool
	CopyPermitted bool
}

// FromTOC builds a single session disc from a table of contents.
// The lead-out is the sector after the last track.
func FromTOC(toc []TOCEntry) (*CompactDisc, error) {
	if len(toc) == 0 {
		return nil, fmt.Errorf("disc: empty table of contents")
	}
	last := toc[len(toc)-1]
	d := New(last.StartSector + last.LengthSectors)
	s, err := d.AddSession(1)
	if err != nil {
		return nil, err
	}
	for _, e := range toc {
		if e.LengthSectors <= 0 {
			return nil, fmt.Errorf("disc: track %d has no sectors", e.Number)
		}
		_, err := s.AddTrack(TrackDescriptor{
			Number:               e.Number,
			FirstSector:          e.StartSector,
			LastSector:           e.StartSector + e.LengthSectors - 1,
			DigitalCopyPermitted: e.CopyPermitted,
			HasPreEmphasis:       e.PreEmphasis,
			IsDataTrack:          !e.Audio,
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// TrackOffsets returns the start sector of each audio track in order.
func (d *CompactDisc) TrackOffsets() []int32 {
	tracks := d.AudioTracks()
	out := make([]int32, len(tracks))
	for i, t := range tracks {
		out[i] = t.FirstSector
	}
	return out
}

// mbEncoding is base64 with the characters MusicBrainz uses in URLs.
var mbEncoding = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789._").WithPadding('-')

// MusicBrainzDiscID computes the disc ID MusicBrainz uses to look up a
// release from the first session's tracks.
func (d *CompactDisc) MusicBrainzDiscID() string {
	s := d.FirstSession()
	if s == nil || len(s.tracks) == 0 {
		return ""
	}
	tracks := s.Tracks()
	var b strings.Builder
	fmt.Fprintf(&b, "%02X", tracks[0].Number)
	fmt.Fprintf(&b, "%02X", tracks[len(tracks)-1].Number)

	var offsets [100]int32
	offsets[0] = d.leadOut + cdda.PregapSectors
	for _, t := range tracks {
		if t.Number >= 1 && t.Number <= 99 {
			offsets[t.Number] = t.FirstSector + cdda.PregapSectors
		}
	}
	for _, off := range offsets {
		fmt.Fprintf(&b, "%08X", off)
	}

	sum := sha1.Sum([]byte(b.String()))
	return mbEncoding.EncodeToString(sum[:])
}
