package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"runtime"

	"github.com/felixge/fgprof"
	"github.com/gernest/bitpack/array"
	"github.com/prometheus/common/promslog"
)

func main() {
	cfg, logCfg, profile := registerFlags(flag.CommandLine)
	flag.Parse()

	if cfg.width < 0 || cfg.width > array.MaxWidth[uint32]() {
		fmt.Fprintf(os.Stderr, "invalid -width %d: must be in [0, %d]\n", cfg.width, array.MaxWidth[uint32]())
		os.Exit(2)
	}
	if cfg.eq > math.MaxUint32 {
		fmt.Fprintf(os.Stderr, "invalid -eq %d: must fit in 32 bits\n", cfg.eq)
		os.Exit(2)
	}

	lo := promslog.New(logCfg)
	os.Exit(start(lo, *cfg, *profile, flag.Args()))
}

func registerFlags(fs *flag.FlagSet) (*config, *promslog.Config, *string) {
	cfg := new(config)
	fs.IntVar(&cfg.width, "width", 0, "bits per element, 0 uses the smallest width that fits all values")
	fs.Int64Var(&cfg.eq, "eq", -1, "count elements equal to this value, negative disables")
	fs.IntVar(&cfg.workers, "workers", runtime.GOMAXPROCS(0), "maximum number of inputs packed concurrently")
	logCfg := &promslog.Config{Level: promslog.NewLevel()}
	fs.Var(logCfg.Level, "log.level", "only log messages with the given severity or above. One of: [debug, info, warn, error]")
	profile := fs.String("profile", "", "write a wall clock profile to this path")
	return cfg, logCfg, profile
}

func start(lo *slog.Logger, cfg config, profile string, names []string) int {
	if profile != "" {
		f, err := os.Create(profile)
		if err != nil {
			lo.Error("creating profile", "path", profile, "err", err)
			return 1
		}
		defer f.Close()
		stop := fgprof.Start(f, fgprof.FormatPprof)
		defer func() {
			if err := stop(); err != nil {
				lo.Error("writing profile", "path", profile, "err", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lo, cfg, names, os.Stdout); err != nil {
		lo.Error("pack failed", "err", err)
		return 1
	}
	return 0
}
