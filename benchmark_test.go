package mp4_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/isobmff/mp4"
)

func loadTestFile(b *testing.B) []byte {
	b.Helper()
	data, err := os.ReadFile("testdata/big-buck-bunny-480p-30sec.mp4")
	if err != nil {
		b.Skipf("test file not available: %v", err)
	}
	return data
}

func BenchmarkDecodeFile(b *testing.B) {
	data := loadTestFile(b)
	b.SetBytes(int64(len(data)))

	for b.Loop() {
		if _, err := mp4.DecodeFile(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReaderReadSample(b *testing.B) {
	data := loadTestFile(b)
	r, err := mp4.NewReader(bytes.NewReader(data))
	if err != nil {
		b.Fatal(err)
	}
	ids := r.TrackIDs()
	if len(ids) == 0 {
		b.Skip("no tracks")
	}
	trackID := ids[0]

	for b.Loop() {
		for id := uint32(1); ; id++ {
			s, err := r.ReadSample(trackID, id)
			if err != nil {
				b.Fatal(err)
			}
			if s == nil {
				break
			}
		}
	}
}

func BenchmarkWriterBuild(b *testing.B) {
	for b.Loop() {
		w := mp4.NewWriter()
		w.WriteFtyp([4]byte{'i', 's', 'o', '5'}, 0,
			[][4]byte{{'i', 's', 'o', '5'}, {'a', 'v', 'c', '1'}})

		w.StartBox(mp4.TypeMoov)
		w.WriteMvhd(1000, 30000, 3)

		w.StartBox(mp4.TypeTrak)
		w.WriteTkhd(0x03, 1, 30000, 1920<<16, 1080<<16)
		w.StartBox(mp4.TypeMdia)
		w.WriteMdhd(12288, 368640, 0x55C4)
		w.WriteHdlr([4]byte{'v', 'i', 'd', 'e'}, "VideoHandler")
		w.EndBox() // mdia
		w.EndBox() // trak

		w.StartBox(mp4.TypeMvex)
		w.WriteTrex(1, 1, 0, 0, 0)
		w.EndBox() // mvex

		w.EndBox() // moov
		if _, err := w.Bytes(); err != nil {
			b.Fatal(err)
		}
	}
}
