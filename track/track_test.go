package track_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isobmff/mp4"
	"github.com/isobmff/mp4/track"
)

func buildSoundFile(t *testing.T) []byte {
	t.Helper()
	samples := [][]byte{{1, 2, 3}, {4, 5}, {6, 7, 8, 9}}

	ftypBox := &mp4.Box{Type: mp4.TypeFtyp, Ftyp: &mp4.Ftyp{Brand: [4]byte{'i', 's', 'o', 'm'}}}

	tkhdBox := &mp4.Box{Type: mp4.TypeTkhd, Tkhd: &mp4.Tkhd{TrackId: 1}}
	mdhdBox := &mp4.Box{Type: mp4.TypeMdhd, Mdhd: &mp4.Mdhd{TimeScale: 48000}}
	hdlrBox := &mp4.Box{Type: mp4.TypeHdlr, Hdlr: &mp4.Hdlr{HandlerType: [4]byte{'s', 'o', 'u', 'n'}}}
	smhdBox := &mp4.Box{Type: mp4.TypeSmhd, Smhd: &mp4.Smhd{}}

	sizes := make([]uint32, len(samples))
	for i, s := range samples {
		sizes[i] = uint32(len(s))
	}
	stsdBox := &mp4.Box{Type: mp4.TypeStsd, Stsd: &mp4.Stsd{Entries: []*mp4.Box{
		{Type: mp4.TypeMp4a, Audio: &mp4.AudioSampleEntry{ChannelCount: 1, SampleSize: 16, SampleRate: 48000 << 16}},
	}}}
	stscBox := &mp4.Box{Type: mp4.TypeStsc, Stsc: &mp4.Stsc{Entries: []mp4.STSCEntry{{FirstChunk: 1, SamplesPerChunk: uint32(len(samples)), SampleDescriptionId: 1}}}}
	stszBox := &mp4.Box{Type: mp4.TypeStsz, Stsz: &mp4.Stsz{Entries: sizes}}
	stcoBox := &mp4.Box{Type: mp4.TypeStco, Stco: &mp4.Stco{Entries: []uint32{0}}}
	sttsBox := &mp4.Box{Type: mp4.TypeStts, Stts: &mp4.Stts{Entries: []mp4.STTSEntry{{Count: uint32(len(samples)), Duration: 1024}}}}

	stblBox := &mp4.Box{Type: mp4.TypeStbl, Children: []*mp4.Box{stsdBox, stscBox, stszBox, stcoBox, sttsBox}}
	minfBox := &mp4.Box{Type: mp4.TypeMinf, Children: []*mp4.Box{smhdBox, stblBox}}
	mdiaBox := &mp4.Box{Type: mp4.TypeMdia, Children: []*mp4.Box{mdhdBox, hdlrBox, minfBox}}
	trakBox := &mp4.Box{Type: mp4.TypeTrak, Children: []*mp4.Box{tkhdBox, mdiaBox}}
	mvhdBox := &mp4.Box{Type: mp4.TypeMvhd, Mvhd: &mp4.Mvhd{TimeScale: 48000, NextTrackId: 2}}
	moovBox := &mp4.Box{Type: mp4.TypeMoov, Children: []*mp4.Box{mvhdBox, trakBox}}

	ftypSize := mp4.EncodingLength(ftypBox)
	moovSize := mp4.EncodingLength(moovBox)
	stcoBox.Stco.Entries[0] = uint32(ftypSize + moovSize + 8)

	var payload []byte
	for _, s := range samples {
		payload = append(payload, s...)
	}
	mdatBox := &mp4.Box{Type: mp4.TypeMdat, Mdat: &mp4.Mdat{Buffer: payload}}

	f := &mp4.File{Boxes: []*mp4.Box{ftypBox, moovBox, mdatBox}}
	var buf bytes.Buffer
	require.NoError(t, mp4.WriteFile(&buf, f))
	return buf.Bytes()
}

func TestKindOf(t *testing.T) {
	data := buildSoundFile(t)
	r, err := mp4.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	tr := r.Track(1)
	require.NotNil(t, tr)
	assert.Equal(t, track.KindAudio, track.KindOf(tr))
}

func TestCollectSampleStats(t *testing.T) {
	data := buildSoundFile(t)
	r, err := mp4.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	stats, err := track.CollectSampleStats(r, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, uint64(9), stats.TotalBytes)
	assert.Equal(t, uint32(2), stats.MinSize)
	assert.Equal(t, uint32(4), stats.MaxSize)
}

func TestCollectSampleStatsNotFound(t *testing.T) {
	data := buildSoundFile(t)
	r, err := mp4.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = track.CollectSampleStats(r, 42)
	assert.ErrorIs(t, err, track.ErrNotFound)
}
