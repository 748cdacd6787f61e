package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/rabidaudio/ripcheck/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrackNumbers(t *testing.T) {
	n, err := parseTrackNumbers("1, 3,12")
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 3, 12}, n)

	n, err = parseTrackNumbers("")
	require.NoError(t, err)
	assert.Nil(t, n)

	for _, bad := range []string{"0", "100", "x", "1,,2"} {
		_, err := parseTrackNumbers(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseTOC(t *testing.T) {
	toc, err := parseTOC("0,6290,23311", 31074)
	require.NoError(t, err)
	assert.Equal(t, []disc.TOCEntry{
		{Number: 1, StartSector: 0, LengthSectors: 6290, Audio: true, CopyPermitted: true},
		{Number: 2, StartSector: 6290, LengthSectors: 17021, Audio: true, CopyPermitted: true},
		{Number: 3, StartSector: 23311, LengthSectors: 7763, Audio: true, CopyPermitted: true},
	}, toc)

	_, err = parseTOC("0,100,100", 200)
	assert.ErrorContains(t, err, "track 2")
	_, err = parseTOC("0,abc", 200)
	assert.Error(t, err)
}

func TestParseReferences(t *testing.T) {
	refs, err := parseReferences([]string{"DEADBEEF", "0000abcd:12"})
	require.NoError(t, err)
	assert.Equal(t, []accuraterip.Reference{
		{Checksum: 0xDEADBEEF, Confidence: 1},
		{Checksum: 0xABCD, Confidence: 12},
	}, refs)

	_, err = parseReferences([]string{"xyz"})
	assert.Error(t, err)
	_, err = parseReferences([]string{"1:0"})
	assert.Error(t, err)
}

func TestLoadConfigDefault(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "wav", cfg.Output.Format)

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)
	cfg, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestReadTrackFile(t *testing.T) {
	samples := make([]int16, 3*cdda.ValuesPerSector)
	for i := range samples {
		samples[i] = int16(i)
	}
	dir := t.TempDir()

	raw := filepath.Join(dir, "track.cdda")
	require.NoError(t, os.WriteFile(raw, cdda.EncodePCM(samples), 0o644))
	got, err := readTrackFile(raw)
	require.NoError(t, err)
	assert.Equal(t, samples, got)

	w, path, err := vfs.Dir{Root: dir}.CreateTrack("", &disc.TrackDescriptor{Number: 1, FirstSector: 0, LastSector: 2})
	require.NoError(t, err)
	_, err = w.Write(cdda.EncodePCM(samples))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	got, err = readTrackFile(path)
	require.NoError(t, err)
	assert.Equal(t, samples, got)

	t.Setenv("CONFIG_PATH", "")
	t.Chdir(dir)
	assert.NoError(t, runChecksum(context.Background(), []string{"-first", "-ref", "1234", path}))
	assert.Error(t, runChecksum(context.Background(), nil))
}
