package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/store"
)

func runRecords(ctx context.Context, args []string) error {
	fset, configPath := newFlagSet("records")
	discID := fset.String("disc", "", "only records of this AccurateRip disc ID")
	limit := fset.Int("n", 20, "number of recent records to list")
	if err := fset.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	var entries []store.Entry
	if *discID != "" {
		entries, err = st.ListByDisc(*discID)
	} else {
		entries, err = st.Recent(*limit)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDISC\tTRACK\tSTATUS\tCHECKSUM\tCONF\tFLAGGED\tMD5\tDESTINATION")
	for _, e := range entries {
		v1, _ := e.Checksums().Checksum(accuraterip.KindPrimary)
		fmt.Fprintf(tw, "%s\t%s\t%02d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.Date().Local().Format("2006-01-02 15:04"), e.DiscID, e.Track().Number,
			e.Status(), accuraterip.FormatChecksum(v1), e.Checksums().Confidence(),
			e.ErrorFlags().ErrorCount(), e.MD5Hex(), e.Destination())
	}
	return tw.Flush()
}
