//go:build !(linux && cgo)

package drive

import (
	"github.com/rabidaudio/ripcheck/disc"
	"go.uber.org/zap"
)

// CDROM is unavailable in this build; OpenCDROM always fails.
type CDROM struct{}

var _ Device = (*CDROM)(nil)

func OpenCDROM(device string, maxRetries int, logger *zap.Logger) (*CDROM, error) {
	return nil, ErrUnsupported
}

func (c *CDROM) ReadSector(sector int32, p []byte) error { return ErrUnsupported }
func (c *CDROM) LengthSectors() int32                    { return 0 }
func (c *CDROM) TOC() ([]disc.TOCEntry, error)           { return nil, ErrUnsupported }
func (c *CDROM) Info() disc.DriveInformation             { return disc.DriveInformation{} }
func (c *CDROM) Close() error                            { return nil }
