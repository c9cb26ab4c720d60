package mp4_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isobmff/mp4"
)

// buildMinimalFile assembles a one-track, two-sample file by hand (the
// Writer fluent builder only covers the boxes a synthetic fragment-style
// file needs; a full sample table is built directly as a Box tree here,
// the same way Decode would produce one) and returns its encoded bytes
// plus the two samples' expected contents.
func buildMinimalFile(t *testing.T) ([]byte, [][]byte) {
	t.Helper()
	samples := [][]byte{[]byte("AAAA"), []byte("BBBBB")}

	ftypBox := &mp4.Box{Type: mp4.TypeFtyp, Ftyp: &mp4.Ftyp{
		Brand:            [4]byte{'i', 's', 'o', 'm'},
		CompatibleBrands: [][4]byte{{'i', 's', 'o', 'm'}, {'m', 'p', '4', '1'}},
	}}

	tkhdBox := &mp4.Box{Type: mp4.TypeTkhd, Tkhd: &mp4.Tkhd{TrackId: 1, Duration: 1024}}
	mdhdBox := &mp4.Box{Type: mp4.TypeMdhd, Mdhd: &mp4.Mdhd{TimeScale: 1000, Duration: 1024}}
	hdlrBox := &mp4.Box{Type: mp4.TypeHdlr, Hdlr: &mp4.Hdlr{HandlerType: [4]byte{'v', 'i', 'd', 'e'}, Name: "VideoHandler"}}
	vmhdBox := &mp4.Box{Type: mp4.TypeVmhd, Vmhd: &mp4.Vmhd{}}

	stsdBox := &mp4.Box{Type: mp4.TypeStsd, Stsd: &mp4.Stsd{Entries: []*mp4.Box{
		{Type: mp4.TypeAvc1, Visual: &mp4.VisualSampleEntry{Width: 64, Height: 48}},
	}}}
	stscBox := &mp4.Box{Type: mp4.TypeStsc, Stsc: &mp4.Stsc{Entries: []mp4.STSCEntry{{FirstChunk: 1, SamplesPerChunk: 2, SampleDescriptionId: 1}}}}
	stszBox := &mp4.Box{Type: mp4.TypeStsz, Stsz: &mp4.Stsz{Entries: []uint32{uint32(len(samples[0])), uint32(len(samples[1]))}}}
	stcoBox := &mp4.Box{Type: mp4.TypeStco, Stco: &mp4.Stco{Entries: []uint32{0}}} // patched below
	sttsBox := &mp4.Box{Type: mp4.TypeStts, Stts: &mp4.Stts{Entries: []mp4.STTSEntry{{Count: 2, Duration: 512}}}}

	stblBox := &mp4.Box{Type: mp4.TypeStbl, Children: []*mp4.Box{stsdBox, stscBox, stszBox, stcoBox, sttsBox}}
	minfBox := &mp4.Box{Type: mp4.TypeMinf, Children: []*mp4.Box{vmhdBox, stblBox}}
	mdiaBox := &mp4.Box{Type: mp4.TypeMdia, Children: []*mp4.Box{mdhdBox, hdlrBox, minfBox}}
	trakBox := &mp4.Box{Type: mp4.TypeTrak, Children: []*mp4.Box{tkhdBox, mdiaBox}}

	mvhdBox := &mp4.Box{Type: mp4.TypeMvhd, Mvhd: &mp4.Mvhd{TimeScale: 1000, Duration: 1024, NextTrackId: 2}}
	moovBox := &mp4.Box{Type: mp4.TypeMoov, Children: []*mp4.Box{mvhdBox, trakBox}}

	// Freeze ftyp/moov sizes so the mdat offset can be computed before the
	// chunk offset (embedded inside moov) is patched in.
	ftypSize := mp4.EncodingLength(ftypBox)
	moovSize := mp4.EncodingLength(moovBox)
	mdatOffset := ftypSize + moovSize + 8 // +8 for mdat's own header
	stcoBox.Stco.Entries[0] = uint32(mdatOffset)

	var mdatData []byte
	for _, s := range samples {
		mdatData = append(mdatData, s...)
	}
	mdatBox := &mp4.Box{Type: mp4.TypeMdat, Mdat: &mp4.Mdat{Buffer: mdatData}}

	f := &mp4.File{Boxes: []*mp4.Box{ftypBox, moovBox, mdatBox}}
	var buf bytes.Buffer
	require.NoError(t, mp4.WriteFile(&buf, f))
	return buf.Bytes(), samples
}

func TestReaderRoundTripsTrackAndSamples(t *testing.T) {
	data, samples := buildMinimalFile(t)

	r, err := mp4.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	duration, timescale := r.Duration()
	assert.Equal(t, uint32(1024), duration)
	assert.Equal(t, uint32(1000), timescale)

	ids := r.TrackIDs()
	require.Equal(t, []uint32{1}, ids)

	track := r.Track(1)
	require.NotNil(t, track)
	assert.Equal(t, uint32(1), track.ID())
	assert.Equal(t, "vide", track.Kind())
	assert.Equal(t, uint32(len(samples)), track.SampleCount())

	for i, want := range samples {
		s, err := r.ReadSample(1, uint32(i+1))
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, want, s.Bytes)
		assert.True(t, s.IsSync)
	}

	last, err := r.ReadSample(1, uint32(len(samples)+1))
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestReaderMissingTrackReturnsError(t *testing.T) {
	data, _ := buildMinimalFile(t)
	r, err := mp4.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = r.ReadSample(99, 1)
	assert.Error(t, err)
}
