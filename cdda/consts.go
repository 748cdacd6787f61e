// Package cdda holds the layout constants of Redbook audio and the
// conversion between raw sector bytes and PCM samples.
package cdda

// SampleRate is the number of samples per second. All Redbook audio
// CDs use 44.1KHz.
const SampleRate = 44100

// BytesPerSample is 2 bytes, representing signed 16-bit samples.
const BytesPerSample = 2

// Channels is the number of audio channels in the data. All Redbook
// audio CDs are stereo.
const Channels = 2

// SectorsPerSecond is the number of sectors in one second of audio.
// Redbook track offsets are specified in MM:SS:FF where a frame is
// interchangable with a sector.
const SectorsPerSecond = 75

// SamplesPerSector is the number of stereo samples (one left and one right
// value) in one sector of audio, 588.
const SamplesPerSector = SampleRate / SectorsPerSecond

// ValuesPerSector is the number of interleaved int16 values in one sector.
const ValuesPerSector = SamplesPerSector * Channels

// BytesPerSector is the number of bytes of audio contained in one sector of
// CD data, 2352 bytes.
const BytesPerSector = SamplesPerSector * Channels * BytesPerSample

// PregapSectors is the two second lead-in that the table of contents
// addresses include but LBAs do not.
const PregapSectors = 150
