// Command mp4dump reads an MP4 file and prints its box structure.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/isobmff/mp4"
)

// boxNode is a box in the printed tree, independent of mp4.Box so that the
// JSON/text renderers don't have to know about the typed payload union.
type boxNode struct {
	Type     string         `json:"type"`
	Offset   int            `json:"offset"`
	Size     uint64         `json:"size"`
	Version  *uint8         `json:"version,omitempty"`
	Flags    *uint32        `json:"flags,omitempty"`
	Info     map[string]any `json:"info,omitempty"`
	Children []boxNode      `json:"children,omitempty"`
}

func main() {
	cmd := &cli.Command{
		Name:  "mp4dump",
		Usage: "print the box structure of an ISO-BMFF (MP4) file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "text", Usage: "output format: text or json"},
		},
		ArgsUsage: "<file.mp4>",
		Action: func(_ context.Context, c *cli.Command) error {
			if c.NArg() < 1 {
				return cli.Exit("missing file argument", 1)
			}
			format := strings.ToLower(c.String("format"))
			if format != "text" && format != "json" {
				return cli.Exit(fmt.Sprintf("unknown format: %s", format), 1)
			}

			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error opening file: %v", err), 1)
			}

			file, err := mp4.DecodeFile(data)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error parsing file: %v", err), 1)
			}

			nodes := make([]boxNode, len(file.Boxes))
			for i, box := range file.Boxes {
				nodes[i] = buildNode(box)
			}

			if format == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(nodes)
			}
			for _, node := range nodes {
				printNodeText(node, 0)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildNode(box *mp4.Box) boxNode {
	node := boxNode{Type: box.Type.String(), Offset: box.Start, Size: box.Size}
	if mp4.IsFullBox(box.Type) {
		v := box.Version
		flags := uint32(box.Flags[0])<<16 | uint32(box.Flags[1])<<8 | uint32(box.Flags[2])
		node.Version = &v
		node.Flags = &flags
	}
	node.Info = collectInfo(box)

	for _, child := range box.Children {
		node.Children = append(node.Children, buildNode(child))
	}
	if box.Type == mp4.TypeStsd && box.Stsd != nil {
		for _, entry := range box.Stsd.Entries {
			node.Children = append(node.Children, buildNode(entry))
		}
	}
	if box.Type == mp4.TypeDref && box.Dref != nil {
		for _, entry := range box.Dref.Entries {
			node.Children = append(node.Children, buildNode(entry))
		}
	}
	return node
}

func collectInfo(box *mp4.Box) map[string]any {
	info := map[string]any{}
	switch box.Type {
	case mp4.TypeFtyp:
		f := box.Ftyp
		info["brand"] = string(f.Brand[:])
		info["version"] = f.BrandVersion
		compat := make([]string, len(f.CompatibleBrands))
		for i, c := range f.CompatibleBrands {
			compat[i] = string(c[:])
		}
		info["compatible"] = compat
	case mp4.TypeMvhd:
		info["timescale"] = box.Mvhd.TimeScale
		info["duration"] = box.Mvhd.Duration
		info["nextTrackId"] = box.Mvhd.NextTrackId
	case mp4.TypeTkhd:
		info["trackId"] = box.Tkhd.TrackId
		info["duration"] = box.Tkhd.Duration
		info["width"] = mp4.Fixed16_16(box.Tkhd.TrackWidth).ToFloat64()
		info["height"] = mp4.Fixed16_16(box.Tkhd.TrackHeight).ToFloat64()
	case mp4.TypeMdhd:
		info["timescale"] = box.Mdhd.TimeScale
		info["duration"] = box.Mdhd.Duration
		info["language"] = box.Mdhd.LanguageCode()
	case mp4.TypeHdlr:
		info["handlerType"] = string(box.Hdlr.HandlerType[:])
		info["name"] = box.Hdlr.Name
	case mp4.TypeAvc1:
		info["width"] = box.Visual.Width
		info["height"] = box.Visual.Height
		info["compressor"] = box.Visual.CompressorName
	case mp4.TypeMp4a:
		info["channelCount"] = box.Audio.ChannelCount
		info["sampleSize"] = box.Audio.SampleSize
		info["sampleRate"] = box.Audio.SampleRate >> 16
	case mp4.TypeAvcC:
		info["codec"] = box.AvcC.MimeCodec
	case mp4.TypeEsds:
		info["codec"] = box.Esds.MimeCodec
	case mp4.TypeStsz:
		info["entries"] = len(box.Stsz.Entries)
	case mp4.TypeStz2:
		info["entries"] = len(box.Stz2.Entries)
	case mp4.TypeStco:
		info["entries"] = len(box.Stco.Entries)
	case mp4.TypeCo64:
		info["entries"] = len(box.Co64.Entries)
	case mp4.TypeStss:
		info["entries"] = len(box.Stss.Entries)
	case mp4.TypeStts:
		info["entries"] = len(box.Stts.Entries)
	case mp4.TypeCtts:
		info["entries"] = len(box.Ctts.Entries)
	case mp4.TypeStsc:
		info["entries"] = len(box.Stsc.Entries)
	case mp4.TypeElst:
		info["entries"] = len(box.Elst.Entries)
	case mp4.TypeDref:
		info["entries"] = len(box.Dref.Entries)
	case mp4.TypeUrl:
		info["location"] = box.Url.Location
	case mp4.TypeMehd:
		info["fragmentDuration"] = box.Mehd.FragmentDuration
	case mp4.TypeTrex:
		info["trackId"] = box.Trex.TrackId
	case mp4.TypeMfhd:
		info["sequence"] = box.Mfhd.SequenceNumber
	case mp4.TypeTfhd:
		info["trackId"] = box.Tfhd.TrackId
	case mp4.TypeTfdt:
		info["baseMediaDecodeTime"] = box.Tfdt.BaseMediaDecodeTime
	case mp4.TypeTrun:
		info["entries"] = len(box.Trun.Entries)
	case mp4.TypeMdat:
		info["dataLength"] = len(box.Mdat.Buffer)
	}
	if len(info) == 0 {
		delete(info, "")
		if len(box.Unparsed) > 0 {
			info["dataLength"] = len(box.Unparsed)
		}
	}
	return info
}

func printNodeText(node boxNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s[%s] offset=%d size=%d", indent, node.Type, node.Offset, node.Size)
	if node.Version != nil {
		fmt.Printf(" v=%d", *node.Version)
	}
	if node.Flags != nil {
		fmt.Printf(" flags=0x%06x", *node.Flags)
	}
	for key, val := range node.Info {
		fmt.Printf(" %s=%v", key, val)
	}
	fmt.Println()
	for _, child := range node.Children {
		printNodeText(child, depth+1)
	}
}
