// Command ripcheck extracts audio CDs and verifies the result against the
// AccurateRip database.
//
//	ripcheck rip [-device /dev/sr0 | -image disc.cdda] [-album name] [-tracks 1,3]
//	ripcheck checksum [-first] [-last] [-ref 1A2B3C4D:12]... track.wav
//	ripcheck records [-disc ID] [-n 20]
//
// Settings come from the YAML file named by -config or CONFIG_PATH.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rabidaudio/ripcheck/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: ripcheck <command> [flags]

commands:
  rip       extract and verify a disc
  checksum  compute AccurateRip checksums of a track file
  records   list stored extraction records
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var run func(ctx context.Context, args []string) error
	switch cmd {
	case "rip":
		run = runRip
	case "checksum":
		run = runChecksum
	case "records":
		run = runRecords
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "ripcheck %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// loadConfig reads path, falling back to CONFIG_PATH and then to the
// defaults when no file exists.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./ripcheck.yaml"
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.LoadConfig(path)
}

// initLogger initializes the zap logger
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// serveMetrics exposes reg until the returned function is called.
func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", zap.String("addr", srv.Addr), zap.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func parseTrackNumbers(s string) ([]uint8, error) {
	if s == "" {
		return nil, nil
	}
	var out []uint8
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil || n == 0 || n > 99 {
			return nil, fmt.Errorf("invalid track number %q", f)
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fset := flag.NewFlagSet("ripcheck "+name, flag.ContinueOnError)
	configPath := fset.String("config", "", "path to the YAML config (default $CONFIG_PATH)")
	return fset, configPath
}
