// Command mp4info prints a summary of an MP4 file: its brand, movie
// header, and a block of lines per track.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/isobmff/mp4"
	"github.com/isobmff/mp4/track"
)

func main() {
	cmd := &cli.Command{
		Name:      "mp4info",
		Usage:     "print a summary of an MP4 file's movie header and tracks",
		ArgsUsage: "<file.mp4>",
		Action:    run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return cli.Exit("missing file argument", 1)
	}
	path := c.Args().First()

	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error opening file: %v", err), 1)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return cli.Exit(fmt.Sprintf("error statting file: %v", err), 1)
	}

	rd, err := mp4.NewReader(f)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error reading file: %v", err), 1)
	}

	ftyp := rd.Ftyp()
	fmt.Printf("File:\n")
	fmt.Printf("  size: %d\n", info.Size())
	if ftyp != nil {
		fmt.Printf("  brand: %s\n", string(ftyp.Brand[:]))
		compat := make([]string, len(ftyp.CompatibleBrands))
		for i, b := range ftyp.CompatibleBrands {
			compat[i] = string(b[:])
		}
		fmt.Printf("  compatible brands: %v\n", compat)
	}

	duration, timescale := rd.Duration()
	fmt.Printf("Movie:\n")
	fmt.Printf("  duration: %d\n", duration)
	fmt.Printf("  timescale: %d\n", timescale)

	ids := rd.TrackIDs()
	fmt.Printf("Found %d Tracks\n", len(ids))

	for _, id := range ids {
		t := rd.Track(id)
		kind := track.KindOf(t)

		fmt.Printf("Track: #%d(%s)\n", t.ID(), t.Language())
		fmt.Printf("  type: %v\n", t.Kind())
		fmt.Printf("  sample count: %d\n", t.SampleCount())
		fmt.Printf("  timescale: %d\n", t.TimeScale())
		fmt.Printf("  duration: %d (ms: %d)\n", t.Duration(), t.Duration()*1000/uint64(t.TimeScale()))
		fmt.Printf("  bitrate: %d kb/s\n", t.Bitrate()/1000)

		switch kind {
		case track.KindVideo:
			fmt.Printf("  width: %d\n", t.Width())
			fmt.Printf("  height: %d\n", t.Height())
			fmt.Printf("  frame rate: %.2f\n", t.FrameRate())
		case track.KindAudio:
			fmt.Printf("  sample rate: %d\n", t.SampleRate())
			fmt.Printf("  channel count: %d\n", t.ChannelCount())
		}
	}
	return nil
}
