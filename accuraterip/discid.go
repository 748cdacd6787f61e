package accuraterip

import (
	"fmt"

	"github.com/rabidaudio/ripcheck/cdda"
)

// DiscID identifies a disc in the AccurateRip database.
type DiscID struct {
	TrackCount int
	ID1        uint32
	ID2        uint32
	CDDB       uint32
}

// ComputeDiscID derives the database identifiers from the start sector
// (LBA, without the 150 sector lead-in) of each audio track and the lead-out
// sector.
func ComputeDiscID(offsets []int32, leadOut int32) DiscID {
	id := DiscID{TrackCount: len(offsets)}
	for i, off := range offsets {
		id.ID1 += uint32(off)
		id.ID2 += uint32(max(off, 1)) * uint32(i+1)
	}
	id.ID1 += uint32(leadOut)
	id.ID2 += uint32(leadOut) * uint32(len(offsets)+1)
	id.CDDB = cddbID(offsets, leadOut)
	return id
}

func cddbID(offsets []int32, leadOut int32) uint32 {
	if len(offsets) == 0 {
		return 0
	}
	n := 0
	for _, off := range offsets {
		n += digitSum(int((off + cdda.PregapSectors) / cdda.SectorsPerSecond))
	}
	t := (leadOut+cdda.PregapSectors)/cdda.SectorsPerSecond - (offsets[0]+cdda.PregapSectors)/cdda.SectorsPerSecond
	return uint32(n%0xFF)<<24 | uint32(t)<<8 | uint32(len(offsets))
}

func digitSum(n int) int {
	s := 0
	for n > 0 {
		s += n % 10
		n /= 10
	}
	return s
}

// Path returns the resource path of the disc's response file relative to
// the database root.
func (d DiscID) Path() string {
	return fmt.Sprintf("%x/%x/%x/dBAR-%s.bin", d.ID1&0xF, d.ID1>>4&0xF, d.ID1>>8&0xF, d)
}

func (d DiscID) String() string {
	return fmt.Sprintf("%03d-%08x-%08x-%08x", d.TrackCount, d.ID1, d.ID2, d.CDDB)
}
