package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rabidaudio/ripcheck/disc"
)

// Dir writes tracks as plain files under Root.
type Dir struct {
	Root   string
	Format Format
}

var _ Destination = Dir{}

func (d Dir) CreateTrack(album string, track *disc.TrackDescriptor) (TrackWriter, string, error) {
	dir := d.Root
	if name := strings.Trim(strings.Map(safeRune, album), " ."); name != "" {
		dir = filepath.Join(dir, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("track%02d.%s", track.Number, strings.ToLower(d.Format.ext())))
	f, err := os.Create(path)
	if err != nil {
		return nil, "", err
	}
	if d.Format == FormatWav {
		if err := WriteWavHeader(f, uint32(track.ExpectedSamples()*2)); err != nil {
			f.Close()
			os.Remove(path)
			return nil, "", err
		}
	}
	return dirTrack{f}, path, nil
}

type dirTrack struct {
	*os.File
}

func (t dirTrack) Discard() error {
	t.File.Close()
	return os.Remove(t.Name())
}

// safeRune drops path separators and control characters from album names.
func safeRune(r rune) rune {
	switch {
	case r == '/' || r == '\\' || r == ':':
		return '-'
	case r < ' ':
		return -1
	}
	return r
}
