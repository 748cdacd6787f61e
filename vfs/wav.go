package vfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rabidaudio/ripcheck/cdda"
)

// WavHeaderSize is the length of the canonical RIFF header written before
// the PCM data.
const WavHeaderSize = 44

type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

// WriteWavHeader writes a header for dataSize bytes of CDDA audio.
func WriteWavHeader(w io.Writer, dataSize uint32) error {
	h := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1, // PCM
		Channels:      cdda.Channels,
		SampleRate:    cdda.SampleRate,
		ByteRate:      cdda.SampleRate * cdda.Channels * cdda.BytesPerSample,
		BlockAlign:    cdda.Channels * cdda.BytesPerSample,
		BitsPerSample: 8 * cdda.BytesPerSample,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}
	return binary.Write(w, binary.LittleEndian, &h)
}

// ReadWav reads a whole WAV file of CDDA audio and returns its samples.
// Chunks other than fmt and data are skipped.
func ReadWav(r io.Reader) ([]int16, error) {
	var riff struct {
		RIFF [4]byte
		Size uint32
		WAVE [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}
	if !bytes.Equal(riff.RIFF[:], []byte("RIFF")) || !bytes.Equal(riff.WAVE[:], []byte("WAVE")) {
		return nil, fmt.Errorf("not a wav file")
	}

	sawFormat := false
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			return nil, fmt.Errorf("read wav chunk: %w", err)
		}
		switch string(chunk.ID[:]) {
		case "fmt ":
			var f struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return nil, fmt.Errorf("read wav format: %w", err)
			}
			if f.AudioFormat != 1 || f.Channels != cdda.Channels ||
				f.SampleRate != cdda.SampleRate || f.BitsPerSample != 8*cdda.BytesPerSample {
				return nil, fmt.Errorf("wav is not CD audio: format %d, %d channel(s), %dHz, %d bit",
					f.AudioFormat, f.Channels, f.SampleRate, f.BitsPerSample)
			}
			if _, err := io.CopyN(io.Discard, r, int64(chunk.Size)-16); err != nil {
				return nil, err
			}
			sawFormat = true
		case "data":
			if !sawFormat {
				return nil, fmt.Errorf("wav data before format")
			}
			p := make([]byte, chunk.Size)
			if _, err := io.ReadFull(r, p); err != nil {
				return nil, fmt.Errorf("read wav data: %w", err)
			}
			return cdda.DecodePCM(p)
		default:
			// chunks are padded to even length
			if _, err := io.CopyN(io.Discard, r, int64(chunk.Size+chunk.Size%2)); err != nil {
				return nil, err
			}
		}
	}
}
