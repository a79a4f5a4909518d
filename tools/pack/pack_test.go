package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gernest/bitpack/array"
	"github.com/prometheus/common/promslog"
	"github.com/stretchr/testify/require"
)

func TestReadValues(t *testing.T) {
	got, err := readValues(context.Background(), nil, strings.NewReader("1 2\n\t3\n4294967295\n"))
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3, 4294967295}, got)

	_, err = readValues(context.Background(), nil, strings.NewReader("1 x"))
	require.ErrorContains(t, err, "value 1")

	_, err = readValues(context.Background(), nil, strings.NewReader("4294967296"))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = readValues(ctx, nil, strings.NewReader("1"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPack(t *testing.T) {
	lo := promslog.NewNopLogger()
	input := "3 17 3 0 31 8 17"
	sum := array.New(5, []uint32{3, 17, 3, 0, 31, 8, 17}).Sum()

	line, err := pack(context.Background(), lo, config{eq: 17}, "in", strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("in n=7 width=5 words=2 size=8B sum=%016x eq=2", sum), line)

	line, err = pack(context.Background(), lo, config{width: 32, eq: -1}, "in", strings.NewReader(input))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "in n=7 width=32 words=7 size=28B sum="), line)
	require.NotContains(t, line, "eq=")

	line, err = pack(context.Background(), lo, config{width: 2, eq: 3}, "in", strings.NewReader(input))
	require.NoError(t, err)
	// 3 and 31 both become 3 with two bits
	require.True(t, strings.HasSuffix(line, " eq=3"), line)

	line, err = pack(context.Background(), lo, config{eq: -1}, "empty", strings.NewReader(""))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "empty n=0 width=1 words=0 size=0B"), line)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var names []string
	for i := range 5 {
		name := filepath.Join(dir, strconv.Itoa(i))
		var b strings.Builder
		for j := range 100 * (i + 1) {
			fmt.Fprintln(&b, j%(i+2))
		}
		require.NoError(t, os.WriteFile(name, []byte(b.String()), 0600))
		names = append(names, name)
	}

	var o bytes.Buffer
	err := run(context.Background(), promslog.NewNopLogger(), config{eq: 1, workers: 2}, names, &o)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(o.String()), "\n")
	require.Len(t, lines, len(names))
	for i, line := range lines {
		require.True(t, strings.HasPrefix(line, names[i]+" n="+strconv.Itoa(100*(i+1))+" "), line)
	}

	missing := filepath.Join(dir, "missing")
	err = run(context.Background(), promslog.NewNopLogger(), config{workers: 1}, []string{missing}, &o)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.ErrorContains(t, err, "packing "+missing+": open "+missing)
}

func TestFlags(t *testing.T) {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, logCfg, profile := registerFlags(fs)
	require.NoError(t, fs.Parse([]string{"-width=7", "-eq=3", "-log.level=debug", "-profile=p.out", "a", "b"}))
	require.Equal(t, 7, cfg.width)
	require.Equal(t, int64(3), cfg.eq)
	require.Equal(t, "p.out", *profile)
	require.Equal(t, []string{"a", "b"}, fs.Args())

	var o bytes.Buffer
	logCfg.Writer = &o
	lo := promslog.New(logCfg)
	_, err := pack(context.Background(), lo, *cfg, "in", strings.NewReader("3 17 3"))
	require.NoError(t, err)
	require.Contains(t, o.String(), "packed")

	fs = flag.NewFlagSet("pack", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	registerFlags(fs)
	require.Error(t, fs.Parse([]string{"-log.level=verbose"}))
}

func TestFlagsDefaultLevel(t *testing.T) {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	cfg, logCfg, _ := registerFlags(fs)
	require.NoError(t, fs.Parse(nil))
	require.Equal(t, int64(-1), cfg.eq)

	var o bytes.Buffer
	logCfg.Writer = &o
	_, err := pack(context.Background(), promslog.New(logCfg), *cfg, "in", strings.NewReader("1 2"))
	require.NoError(t, err)
	require.NotContains(t, o.String(), "packed")
}

func TestBuffers(t *testing.T) {
	b := buffers.Get()
	b.B = append(b.B, 1, 2, 3)
	buffers.Put(b)
	require.Empty(t, b.B)
	require.Empty(t, buffers.Get().B)
}
