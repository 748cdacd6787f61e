package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/cdda"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/rabidaudio/ripcheck/drive"
	"github.com/rabidaudio/ripcheck/extraction"
	"github.com/rabidaudio/ripcheck/metrics"
	"github.com/rabidaudio/ripcheck/ripper"
	"github.com/rabidaudio/ripcheck/store"
	"github.com/rabidaudio/ripcheck/vfs"
	"github.com/rabidaudio/ripcheck/workerpool"
	"go.uber.org/zap"
)

func runRip(ctx context.Context, args []string) error {
	fset, configPath := newFlagSet("rip")
	device := fset.String("device", "", "cd device, overrides drive.device")
	image := fset.String("image", "", "read a raw .cdda disc image instead of a drive")
	toc := fset.String("toc", "", "comma separated start sectors of the tracks in -image")
	album := fset.String("album", "", "album name used for the output directory")
	tracks := fset.String("tracks", "", "comma separated track numbers (default all)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	numbers, err := parseTrackNumbers(*tracks)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *device != "" {
		cfg.Drive.Device = *device
	}
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m = metrics.New(reg)
		defer serveMetrics(cfg.Metrics, reg, logger)()
	}

	var dev drive.Device
	if *image != "" {
		dev, err = openImage(*image, *toc)
	} else {
		dev, err = drive.OpenCDROM(cfg.Drive.Device, cfg.Drive.MaxRetries, logger)
	}
	if err != nil {
		return err
	}
	defer dev.Close()

	format, err := vfs.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	var dest vfs.Destination = vfs.Dir{Root: cfg.Output.Dir, Format: format}
	if cfg.Output.Image != "" {
		label := cfg.Output.Label
		if label == "" {
			label = *album
		}
		img, err := vfs.CreateImage(cfg.Output.Image, cfg.Output.ImageSize, label)
		if err != nil {
			return err
		}
		defer img.Close()
		img.Format = format
		dest = img
	}

	pool := workerpool.New(workerpool.Config{
		Name:      "builds",
		Workers:   cfg.Workers.Count,
		QueueSize: cfg.Workers.QueueSize,
		Logger:    logger,
	})
	defer pool.Stop(cfg.Workers.StopTimeout)

	rp := &ripper.Ripper{
		Device:      dev,
		Destination: dest,
		Pool:        pool,
		Builder: extraction.NewBuilder(&accuraterip.Engine{
			MaxOffset: cfg.AccurateRip.MaxOffset,
			Workers:   cfg.AccurateRip.Workers,
		}),
		Metrics:                m,
		Logger:                 logger,
		ReadOffset:             cfg.Drive.ReadOffset,
		MaxConsecutiveFailures: cfg.Drive.MaxConsecutiveFailures,
	}
	if cfg.AccurateRip.DatabaseDir != "" {
		rp.References = ripper.DirReferences{Root: cfg.AccurateRip.DatabaseDir}
	}
	if cfg.Store.Enabled {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		rp.Store = st
	}

	res, err := rp.Rip(ctx, *album, numbers...)
	if res != nil {
		printResult(res)
	}
	if err != nil {
		return err
	}
	if failed := res.Failed(); len(failed) > 0 {
		for _, tr := range failed {
			logger.Error("track failed", zap.Uint8("track", tr.Number), zap.Error(tr.Err))
		}
		return fmt.Errorf("%d track(s) failed", len(failed))
	}
	return nil
}

func printResult(res *ripper.Result) {
	fmt.Printf("AccurateRip ID: %s\nMusicBrainz ID: %s\n\n", res.DiscID, res.MusicBrainzID)
	for _, tr := range res.Tracks {
		if tr.Err != nil {
			fmt.Printf("track %02d  FAILED  %v\n", tr.Number, tr.Err)
			continue
		}
		fmt.Println(tr.Record)
	}
}

// openImage loads a raw dump, splitting it into tracks at the given start
// sectors.
func openImage(path, starts string) (*drive.Image, error) {
	if starts == "" {
		return drive.OpenImage(path, nil)
	}
	img, err := drive.OpenImage(path, nil)
	if err != nil {
		return nil, err
	}
	img.Entries, err = parseTOC(starts, img.LengthSectors())
	return img, err
}

func parseTOC(starts string, total int32) ([]disc.TOCEntry, error) {
	fields := strings.Split(starts, ",")
	toc := make([]disc.TOCEntry, len(fields))
	for i, f := range fields {
		s, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid start sector %q", f)
		}
		toc[i] = disc.TOCEntry{Number: uint8(i + 1), StartSector: int32(s), Audio: true, CopyPermitted: true}
	}
	for i := range toc {
		end := total
		if i+1 < len(toc) {
			end = toc[i+1].StartSector
		}
		toc[i].LengthSectors = end - toc[i].StartSector
		if toc[i].LengthSectors <= 0 {
			return nil, fmt.Errorf("track %d starting at %s is empty", i+1, cdda.FormatMSF(toc[i].StartSector))
		}
	}
	return toc, nil
}
