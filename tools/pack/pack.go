package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/docker/go-units"
	"github.com/gernest/bitpack/array"
	"github.com/gernest/bitpack/bitmaps"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// stdin is the input name used when no files are given.
const stdin = "-"

type config struct {
	width   int
	eq      int64
	workers int
}

type values struct {
	B []uint32
}

// valuesPool reuses decode buffers across inputs.
type valuesPool struct {
	base sync.Pool
}

func (p *valuesPool) Get() *values {
	if v := p.base.Get(); v != nil {
		return v.(*values)
	}
	return &values{B: make([]uint32, 0, 4<<10)}
}

func (p *valuesPool) Put(v *values) {
	v.B = v.B[:0]
	p.base.Put(v)
}

var buffers valuesPool

// run packs every named input concurrently and writes one summary line per
// input to out, in the order of names.
func run(ctx context.Context, lo *slog.Logger, cfg config, names []string, out io.Writer) error {
	if len(names) == 0 {
		names = []string{stdin}
	}
	lines := make([]string, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.workers, 1))
	for i, name := range names {
		g.Go(func() error {
			line, err := packFile(ctx, lo.With("component", "pack", "input", name), cfg, name)
			if err != nil {
				return errors.Wrapf(err, "packing %s", name)
			}
			lines[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return nil
}

func packFile(ctx context.Context, lo *slog.Logger, cfg config, name string) (string, error) {
	if name == stdin {
		return pack(ctx, lo, cfg, name, os.Stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return pack(ctx, lo, cfg, name, f)
}

func pack(ctx context.Context, lo *slog.Logger, cfg config, name string, r io.Reader) (string, error) {
	buf := buffers.Get()
	defer buffers.Put(buf)

	var err error
	buf.B, err = readValues(ctx, buf.B, r)
	if err != nil {
		return "", err
	}

	need := array.MinWidth(buf.B)
	width := cfg.width
	if width == 0 {
		width = need
	} else if need > width {
		lo.Warn("values wider than element width will be truncated", "width", width, "need", need)
	}
	a := array.New(width, buf.B)
	lo.Debug("packed", "n", a.Len(), "width", a.Width(), "size", a.Size())

	line := fmt.Sprintf("%s n=%d width=%d words=%d size=%s sum=%016x",
		name, a.Len(), a.Width(), a.Size()/(array.WordBits/8),
		units.BytesSize(float64(a.Size())), a.Sum())
	if cfg.eq >= 0 {
		ra := bitmaps.Range(a, bitmaps.EQ, uint32(cfg.eq), 0)
		line += fmt.Sprintf(" eq=%d", ra.Count())
	}
	return line, nil
}

// readValues appends whitespace separated unsigned 32 bit decimal integers
// read from r to dst.
func readValues(ctx context.Context, dst []uint32, r io.Reader) ([]uint32, error) {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	for s.Scan() {
		if len(dst)%(1<<16) == 0 {
			if err := ctx.Err(); err != nil {
				return dst, err
			}
		}
		v, err := strconv.ParseUint(s.Text(), 10, 32)
		if err != nil {
			return dst, errors.Wrapf(err, "value %d", len(dst))
		}
		dst = append(dst, uint32(v))
	}
	return dst, s.Err()
}
