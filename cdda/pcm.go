package cdda

import (
	"encoding/binary"
	"fmt"
)

// DecodePCM converts little-endian 16-bit PCM bytes into interleaved
// samples. Trailing odd bytes are an error.
func DecodePCM(p []byte) ([]int16, error) {
	if len(p)%BytesPerSample != 0 {
		return nil, fmt.Errorf("cdda: pcm length %d is not a whole number of samples", len(p))
	}
	samples := make([]int16, len(p)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(p[i*BytesPerSample:]))
	}
	return samples, nil
}

// EncodePCM converts interleaved samples to little-endian bytes, the byte
// order a drive returns and a WAV file stores.
func EncodePCM(samples []int16) []byte {
	p := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[i*BytesPerSample:], uint16(s))
	}
	return p
}

// Frame packs one stereo sample into the 32-bit word used by checksums:
// left channel in the low half, right channel in the high half.
func Frame(left, right int16) uint32 {
	return uint32(uint16(left)) | uint32(uint16(right))<<16
}

// SectorsToMSF converts a sector count into minutes, seconds and frames.
func SectorsToMSF(sectors int32) (m, s, f int32) {
	f = sectors % SectorsPerSecond
	s = (sectors / SectorsPerSecond) % 60
	m = sectors / SectorsPerSecond / 60
	return
}

// FormatMSF renders a sector count as MM:SS:FF.
func FormatMSF(sectors int32) string {
	m, s, f := SectorsToMSF(sectors)
	return fmt.Sprintf("%02d:%02d:%02d", m, s, f)
}
