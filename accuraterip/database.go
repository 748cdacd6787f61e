package accuraterip

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// TrackEntry is one track of a database response.
type TrackEntry struct {
	Confidence    int
	Checksum      uint32
	FrameChecksum uint32 // checksum of sector 450 alone, used for offset detection
}

// Response is one pressing's block of a database response. A response file
// holds one block per known pressing.
type Response struct {
	DiscID DiscID
	Tracks []TrackEntry
}

const (
	headerSize = 13
	entrySize  = 9
)

// ParseDatabase decodes a binary response (dBAR file) into its blocks.
func ParseDatabase(r io.Reader) ([]Response, error) {
	br := bufio.NewReader(r)
	var out []Response
	header := make([]byte, headerSize)
	entry := make([]byte, entrySize)
	for {
		_, err := io.ReadFull(br, header)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("block %d header: %w", len(out), ErrMalformedResponse)
		}
		resp := Response{DiscID: DiscID{
			TrackCount: int(header[0]),
			ID1:        binary.LittleEndian.Uint32(header[1:]),
			ID2:        binary.LittleEndian.Uint32(header[5:]),
			CDDB:       binary.LittleEndian.Uint32(header[9:]),
		}}
		resp.Tracks = make([]TrackEntry, resp.DiscID.TrackCount)
		for i := range resp.Tracks {
			if _, err := io.ReadFull(br, entry); err != nil {
				return nil, fmt.Errorf("block %d track %d: %w", len(out), i+1, ErrMalformedResponse)
			}
			resp.Tracks[i] = TrackEntry{
				Confidence:    int(entry[0]),
				Checksum:      binary.LittleEndian.Uint32(entry[1:]),
				FrameChecksum: binary.LittleEndian.Uint32(entry[5:]),
			}
		}
		out = append(out, resp)
	}
}

// EncodeDatabase writes blocks in the binary response format.
func EncodeDatabase(w io.Writer, responses []Response) error {
	for _, resp := range responses {
		p := make([]byte, headerSize, headerSize+entrySize*len(resp.Tracks))
		p[0] = byte(len(resp.Tracks))
		binary.LittleEndian.PutUint32(p[1:], resp.DiscID.ID1)
		binary.LittleEndian.PutUint32(p[5:], resp.DiscID.ID2)
		binary.LittleEndian.PutUint32(p[9:], resp.DiscID.CDDB)
		for _, t := range resp.Tracks {
			p = append(p, byte(min(t.Confidence, 0xFF)))
			p = binary.LittleEndian.AppendUint32(p, t.Checksum)
			p = binary.LittleEndian.AppendUint32(p, t.FrameChecksum)
		}
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return nil
}

// References collects the checksums every block holds for track number
// (1-based). Blocks for a different disc are skipped when id is non-zero.
func References(responses []Response, id DiscID, number int) []Reference {
	var refs []Reference
	for _, resp := range responses {
		if id != (DiscID{}) && (resp.DiscID.ID1 != id.ID1 || resp.DiscID.ID2 != id.ID2) {
			continue
		}
		if number < 1 || number > len(resp.Tracks) {
			continue
		}
		t := resp.Tracks[number-1]
		refs = append(refs, Reference{Checksum: t.Checksum, Confidence: t.Confidence})
	}
	return refs
}
