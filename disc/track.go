package disc

import (
	"fmt"

	"github.com/rabidaudio/ripcheck/cdda"
)

// SectorRange is an inclusive range of sector addresses.
type SectorRange struct {
	First int32
	Last  int32
}

// Len returns the number of sectors in the range, zero if it is empty.
func (r SectorRange) Len() int32 {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains reports whether sector lies inside the range.
func (r SectorRange) Contains(sector int32) bool {
	return sector >= r.First && sector <= r.Last
}

func (r SectorRange) String() string {
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// TrackDescriptor describes a single track on a CDDA disc.
// SectorCount and SectorRange are computed from the stored sector bounds.
type TrackDescriptor struct {
	ID        ID
	SessionID ID // owning session; not an ownership link

	Number               uint8 // index of the track, starting at 1
	FirstSector          int32
	LastSector           int32
	PreGap               int32 // sectors
	ChannelsPerFrame     int
	DigitalCopyPermitted bool
	HasPreEmphasis       bool
	IsDataTrack          bool
}

// SectorCount returns the number of sectors the track covers.
func (t *TrackDescriptor) SectorCount() int32 {
	return t.SectorRange().Len()
}

// SectorRange returns the sectors covered by the track.
func (t *TrackDescriptor) SectorRange() SectorRange {
	return SectorRange{First: t.FirstSector, Last: t.LastSector}
}

// ExpectedSamples returns the interleaved int16 count of a complete rip.
func (t *TrackDescriptor) ExpectedSamples() int {
	return int(t.SectorCount()) * cdda.ValuesPerSector
}

// Duration renders the track length as MM:SS:FF.
func (t *TrackDescriptor) Duration() string {
	return cdda.FormatMSF(t.SectorCount())
}

func (t *TrackDescriptor) String() string {
	return fmt.Sprintf("track %02d [%v] %s", t.Number, t.SectorRange(), t.Duration())
}

// DriveInformation identifies the drive a track was extracted with.
type DriveInformation struct {
	ID         ID
	Vendor     string
	Model      string
	ReadOffset int // correction in samples applied while reading
}

func (d *DriveInformation) String() string {
	return fmt.Sprintf("%s %s (offset %+d)", d.Vendor, d.Model, d.ReadOffset)
}
