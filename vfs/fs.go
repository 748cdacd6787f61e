// Package vfs writes extracted tracks out as files, either into a directory
// or into a FAT32 disk image that can be copied onto a USB stick for a car
// stereo.
package vfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/filesystem/fat32"
	"github.com/diskfs/go-diskfs/partition/mbr"
	"github.com/rabidaudio/ripcheck/disc"
)

// DefaultImageSize fits a full 80 minute disc of WAV files.
const DefaultImageSize = 900 * fat32.MB

const sectorSize = 512

// partitionStart leaves the conventional 1MiB before the first partition.
const partitionStart = 2048

// Format selects how track audio is stored.
type Format int

const (
	FormatWav  Format = iota // RIFF header followed by PCM
	FormatCDDA               // raw little endian PCM
)

// ParseFormat accepts "wav" or "cdda".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "wav":
		return FormatWav, nil
	case "cdda", "raw":
		return FormatCDDA, nil
	default:
		return 0, fmt.Errorf("unknown output format %q", s)
	}
}

func (f Format) ext() string {
	if f == FormatCDDA {
		return "CDA"
	}
	return "WAV"
}

// TrackWriter receives one track's PCM. Close keeps the file; Discard
// abandons it and removes whatever was written.
type TrackWriter interface {
	io.WriteCloser
	Discard() error
}

// Destination creates the file a track's audio is written to. The
// returned writer already carries any header; callers write exactly the
// track's PCM bytes and close it. Destinations are safe for concurrent
// use.
type Destination interface {
	CreateTrack(album string, track *disc.TrackDescriptor) (w TrackWriter, path string, err error)
}

// Image is a FAT32 filesystem inside an MBR partitioned disk image.
//
// The fat32 filesystem cannot have several files open for writing, so a
// track is buffered in memory and copied into the image in one step when
// its writer is closed. Reads through the embedded FileSystem are not
// synchronized with those commits.
type Image struct {
	filesystem.FileSystem
	Path   string
	Format Format

	dsk *disk.Disk
	mu  sync.Mutex
}

var _ Destination = (*Image)(nil)

// sanitizeName takes a file name and converts it to DOS format
// by uppercasing, limiting to ASCII letters, and triming to 8 chars
func sanitizeName(name string) string {
	// https://en.wikipedia.org/wiki/8.3_filename
	newName := make([]rune, 0, 8)
	for _, r := range strings.ToUpper(name) {
		if len(newName) == 8 {
			break
		}
		if r >= 'A' && r <= 'Z' {
			newName = append(newName, r)
		}
	}
	return string(newName)
}

// CreateImage makes a new disk image of size bytes at path with a single
// FAT32 partition labelled label.
func CreateImage(path string, size int64, label string) (*Image, error) {
	if size <= 0 {
		size = DefaultImageSize
	}
	dsk, err := diskfs.Create(path, size, diskfs.SectorSizeDefault)
	if err != nil {
		return nil, err
	}

	table := &mbr.Table{
		LogicalSectorSize:  sectorSize,
		PhysicalSectorSize: sectorSize,
		Partitions: []*mbr.Partition{
			{
				Bootable: false,
				Type:     mbr.Fat32LBA,
				Start:    partitionStart,
				Size:     uint32(size/sectorSize) - partitionStart,
			},
		},
	}
	if err := dsk.Partition(table); err != nil {
		dsk.Close()
		os.Remove(path)
		return nil, fmt.Errorf("partition %s: %w", path, err)
	}

	if label == "" {
		label = "RIPCHECK"
	}
	fatfs, err := dsk.CreateFilesystem(disk.FilesystemSpec{
		Partition:   1,
		FSType:      filesystem.TypeFat32,
		VolumeLabel: sanitizeName(label),
	})
	if err != nil {
		dsk.Close()
		os.Remove(path)
		return nil, fmt.Errorf("format %s: %w", path, err)
	}
	return &Image{FileSystem: fatfs, Path: path, dsk: dsk}, nil
}

// Close releases the backing disk file. Tracks still being written are
// lost.
func (img *Image) Close() error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.dsk == nil {
		return nil
	}
	err := img.dsk.Close()
	img.dsk = nil
	return err
}

func (img *Image) trackPath(album string, number uint8) (dir, path string) {
	if name := sanitizeName(album); name != "" {
		dir = "/" + name
	}
	return dir, fmt.Sprintf("%s/TRACK%02d.%s", dir, number, img.Format.ext())
}

// CreateTrack returns a writer for track's file inside a directory named
// after album. Nothing reaches the image until the writer is closed.
func (img *Image) CreateTrack(album string, track *disc.TrackDescriptor) (TrackWriter, string, error) {
	dir, path := img.trackPath(album, track.Number)
	size := track.ExpectedSamples() * 2
	t := &imageTrack{img: img, dir: dir, path: path}
	if img.Format == FormatWav {
		t.buf.Grow(WavHeaderSize + size)
		if err := WriteWavHeader(&t.buf, uint32(size)); err != nil {
			return nil, "", err
		}
	} else {
		t.buf.Grow(size)
	}
	return t, img.Path + ":" + path, nil
}

func (img *Image) commit(dir, path string, data []byte) error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.dsk == nil {
		return fmt.Errorf("write %s: image closed", path)
	}
	if dir != "" {
		// Mkdir succeeds on existing directories
		if err := img.Mkdir(dir); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	file, err := img.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("create track %v: %w", path, err)
	}
	_, err = file.Write(data)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// drop the partial file
		_ = img.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type imageTrack struct {
	img       *Image
	dir, path string
	buf       bytes.Buffer
	done      bool
}

func (t *imageTrack) Write(p []byte) (int, error) {
	if t.done {
		return 0, os.ErrClosed
	}
	return t.buf.Write(p)
}

func (t *imageTrack) Close() error {
	if t.done {
		return os.ErrClosed
	}
	t.done = true
	defer t.buf.Reset()
	return t.img.commit(t.dir, t.path, t.buf.Bytes())
}

func (t *imageTrack) Discard() error {
	t.done = true
	t.buf.Reset()
	return nil
}

// Tracks lists the track files stored for album.
func (img *Image) Tracks(album string) ([]os.FileInfo, error) {
	dir, _ := img.trackPath(album, 0)
	if dir == "" {
		dir = "/"
	}
	img.mu.Lock()
	defer img.mu.Unlock()
	entries, err := img.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := entries[:0]
	for _, fi := range entries {
		if !fi.IsDir() && strings.HasPrefix(fi.Name(), "TRACK") {
			files = append(files, fi)
		}
	}
	return files, nil
}
