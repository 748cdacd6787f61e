//go:build linux && cgo

package drive

import (
	"fmt"
	"io"
	"strings"

	"github.com/rabidaudio/audiocd"
	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/disc"
	"go.uber.org/zap"
)

// control bits of a table of contents entry
const (
	flagPreEmphasis   = 0x01
	flagCopyPermitted = 0x02
)

// CDROM is a Device reading through cdparanoia.
type CDROM struct {
	cd     *audiocd.AudioCD
	logger *zap.Logger
}

var _ Device = (*CDROM)(nil)

// OpenCDROM opens device, or the first drive found when device is empty.
// cdparanoia's own messages are forwarded to logger.
func OpenCDROM(device string, maxRetries int, logger *zap.Logger) (*CDROM, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cd := &audiocd.AudioCD{
		Device:     device,
		MaxRetries: maxRetries,
		LogMode:    audiocd.LogModeLogger,
		Logger:     zap.NewStdLog(logger.Named("cdparanoia")),
	}
	if err := cd.Open(); err != nil {
		return nil, fmt.Errorf("open %q: %w", device, err)
	}
	logger.Info("opened drive", zap.String("device", device), zap.String("model", cd.Model()))
	return &CDROM{cd: cd, logger: logger}, nil
}

func (c *CDROM) ReadSector(sector int32, p []byte) error {
	// sequential reads do not reseek
	if _, err := c.cd.Seek(int64(sector)*cdda.BytesPerSector, io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(c.cd, p[:cdda.BytesPerSector])
	return err
}

func (c *CDROM) LengthSectors() int32 {
	return int32(c.cd.LengthSectors())
}

func (c *CDROM) TOC() ([]disc.TOCEntry, error) {
	positions := c.cd.TOC()
	if len(positions) == 0 {
		return nil, ErrNoAudio
	}
	toc := make([]disc.TOCEntry, 0, len(positions))
	for _, tp := range positions {
		toc = append(toc, disc.TOCEntry{
			Number:        uint8(tp.TrackNum),
			StartSector:   int32(tp.StartSector),
			LengthSectors: int32(tp.LengthSectors),
			Audio:         tp.IsAudio(),
			PreEmphasis:   uint8(tp.Flags)&flagPreEmphasis != 0,
			CopyPermitted: uint8(tp.Flags)&flagCopyPermitted != 0,
		})
	}
	return toc, nil
}

// Info splits the drive's model string into vendor and model.
func (c *CDROM) Info() disc.DriveInformation {
	vendor, model, _ := strings.Cut(strings.TrimSpace(c.cd.Model()), " ")
	return disc.DriveInformation{Vendor: vendor, Model: model}
}

func (c *CDROM) Close() error {
	return c.cd.Close()
}
