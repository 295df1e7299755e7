package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/asyncmediacodec/decoder"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/source"
	"github.com/xaionaro-go/asyncmediacodec/source/mp4"
	"github.com/xaionaro-go/asyncmediacodec/source/mpegts"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/typing"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [options] <file.mp4|file.ts>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	codecNames := pflag.StringSlice("codec", nil, "the codec names to try (in this order) instead of the platform's list")
	lowLatency := pflag.Bool("low-latency", false, "ask the codec for the low-latency mode")
	maxInputSize := pflag.String("max-input-size", "", "the maximal size of a sample (e.g. 2MiB)")
	withSurface := pflag.Bool("surface", false, "decode into a surface instead of copying the frames out")
	render := pflag.Bool("render", false, "render the decoded frames (with --surface)")
	flushAt := pflag.Int("flush-at", -1, "flush the decoder before the sample with this index")
	seekTo := pflag.Duration("seek-to", 0, "after --flush-at, skip the frames ending before this presentation time")
	smpte432Quirk := pflag.Bool("quirk-smpte432", false, "treat the SMPTE EG 432 colour standard reported by the codec as BT.709")
	pflag.Parse()
	if len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logger.NewLogrus(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	var opts []decoder.Option
	if len(*codecNames) > 0 {
		opts = append(opts, decoder.OptionCodecNames(*codecNames))
	}
	if *lowLatency {
		opts = append(opts, decoder.OptionLowLatency(true))
	}
	if *maxInputSize != "" {
		size, err := humanize.ParseBytes(*maxInputSize)
		if err != nil {
			l.Fatalf("unable to parse the max input size '%s': %v", *maxInputSize, err)
		}
		opts = append(opts, decoder.OptionMaxInputSize(int32(size)))
	}
	if *smpte432Quirk {
		opts = append(opts, decoder.OptionQuirks(decoder.QuirkSMPTE432ColorPrimariesBuggy))
	}

	platform, allocator, err := newPlatform(ctx, *withSurface)
	if err != nil {
		l.Fatalf("unable to initialize the codec platform: %v", err)
	}
	if allocator != nil {
		opts = append(opts, decoder.OptionSurfaceAllocator{Allocator: allocator})
	}

	filePath := pflag.Arg(0)
	f, err := os.Open(filePath)
	if err != nil {
		l.Fatal(err)
	}
	defer f.Close()

	var src source.Source
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".m2ts", ".mts":
		src = mpegts.New(ctx, f)
	default:
		src, err = mp4.New(ctx, f)
		if err != nil {
			l.Fatal(err)
		}
	}

	cfg := runConfig{
		FlushAt: *flushAt,
		Render:  *render,
	}
	if *seekTo > 0 {
		cfg.SeekTo = typing.Opt(*seekTo)
	}

	startedAt := time.Now()
	r, err := decodeAll(ctx, platform, src, cfg, opts...)
	if err != nil {
		l.Fatal(err)
	}
	elapsed := time.Since(startedAt)

	statsJSON, err := json.Marshal(r)
	if err != nil {
		l.Fatal(err)
	}
	fmt.Printf("%s\n", statsJSON)
	fmt.Fprintf(
		os.Stderr,
		"decoded %d frames out of %d samples (%s in, %s out) in %v with %s\n",
		r.Frames, r.Samples,
		humanize.IBytes(r.Stats.Received.Bytes), humanize.IBytes(r.Stats.Decoded.Bytes),
		elapsed.Round(time.Millisecond), r.PlatformCodec,
	)
}
