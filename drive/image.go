package drive

import (
	"fmt"
	"io"
	"os"

	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/disc"
)

// Image is a Device backed by raw CDDA bytes in memory, such as a .cdda
// dump of a whole disc.
type Image struct {
	PCM     []byte
	Entries []disc.TOCEntry
	Drive   disc.DriveInformation

	// Faults makes the given sectors fail to read.
	Faults map[int32]error
}

var _ Device = (*Image)(nil)

// NewImage wraps pcm as a single session disc. With a nil toc the whole
// image is one audio track.
func NewImage(pcm []byte, toc []disc.TOCEntry) (*Image, error) {
	if len(pcm)%cdda.BytesPerSector != 0 {
		return nil, fmt.Errorf("image of %d bytes is not a whole number of sectors", len(pcm))
	}
	if toc == nil {
		sectors := int32(len(pcm) / cdda.BytesPerSector)
		toc = []disc.TOCEntry{{Number: 1, LengthSectors: sectors, Audio: true, CopyPermitted: true}}
	}
	return &Image{
		PCM:     pcm,
		Entries: toc,
		Drive:   disc.DriveInformation{Vendor: "ripcheck", Model: "image"},
	}, nil
}

// OpenImage reads a raw CDDA dump from disk.
func OpenImage(path string, toc []disc.TOCEntry) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pcm, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	img, err := NewImage(pcm, toc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img.Drive.Model = path
	return img, nil
}

func (img *Image) ReadSector(sector int32, p []byte) error {
	if err, ok := img.Faults[sector]; ok {
		return err
	}
	if sector < 0 || sector >= img.LengthSectors() {
		return fmt.Errorf("sector %d outside image", sector)
	}
	off := int(sector) * cdda.BytesPerSector
	copy(p, img.PCM[off:off+cdda.BytesPerSector])
	return nil
}

func (img *Image) LengthSectors() int32 {
	return int32(len(img.PCM) / cdda.BytesPerSector)
}

func (img *Image) TOC() ([]disc.TOCEntry, error) {
	return append([]disc.TOCEntry(nil), img.Entries...), nil
}

func (img *Image) Info() disc.DriveInformation {
	return img.Drive
}

func (img *Image) Close() error {
	return nil
}
