package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/vfs"
)

func runChecksum(ctx context.Context, args []string) error {
	fset, configPath := newFlagSet("checksum")
	first := fset.Bool("first", false, "the file is the first track of the disc")
	last := fset.Bool("last", false, "the file is the last track of the disc")
	var refFlags listFlag
	fset.Var(&refFlags, "ref", "expected checksum as HEX or HEX:confidence, repeatable")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return fmt.Errorf("expected one track file")
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	refs, err := parseReferences(refFlags)
	if err != nil {
		return err
	}

	samples, err := readTrackFile(fset.Arg(0))
	if err != nil {
		return err
	}
	engine := &accuraterip.Engine{MaxOffset: cfg.AccurateRip.MaxOffset, Workers: cfg.AccurateRip.Workers}
	pos := accuraterip.Position{First: *first, Last: *last}
	res, err := engine.Compute(samples, pos, refs)
	if err != nil {
		return err
	}

	v1, _ := res.Checksum(accuraterip.KindPrimary)
	v2, _ := res.Checksum(accuraterip.KindV2)
	fmt.Printf("length:     %s\n", cdda.FormatMSF(int32(len(samples)/cdda.ValuesPerSector)))
	fmt.Printf("checksum:   %s\n", accuraterip.FormatChecksum(v1))
	fmt.Printf("checksum2:  %s\n", accuraterip.FormatChecksum(v2))
	if alt, ok := res.Checksum(accuraterip.KindAlternatePressing); ok {
		off, _ := res.AlternateOffset()
		fmt.Printf("alternate:  %s at %+d samples\n", accuraterip.FormatChecksum(alt), off)
	}
	if len(refs) > 0 {
		fmt.Printf("confidence: %d\n", res.Confidence())
		fmt.Printf("status:     %s\n", accuraterip.Assess(res, true, nil))
	}
	return nil
}

func parseReferences(values []string) ([]accuraterip.Reference, error) {
	refs := make([]accuraterip.Reference, 0, len(values))
	for _, v := range values {
		sum, conf, hasConf := strings.Cut(v, ":")
		n, err := strconv.ParseUint(sum, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid checksum %q", sum)
		}
		ref := accuraterip.Reference{Checksum: uint32(n), Confidence: 1}
		if hasConf {
			if ref.Confidence, err = strconv.Atoi(conf); err != nil || ref.Confidence < 1 {
				return nil, fmt.Errorf("invalid confidence %q", conf)
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// readTrackFile loads a .wav file or raw little endian PCM.
func readTrackFile(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return vfs.ReadWav(f)
	}
	p, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return cdda.DecodePCM(p)
}
