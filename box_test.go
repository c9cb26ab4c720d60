package mp4_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isobmff/mp4"
)

// roundTrip encodes box, decodes the result, and returns the decoded copy.
// Mirrors the encode-then-decode invariant check in the Rust reference's
// ftyp round-trip test.
func roundTrip(t *testing.T, box *mp4.Box) *mp4.Box {
	t.Helper()
	f := &mp4.File{Boxes: []*mp4.Box{box}}
	var buf bytesBuffer
	require.NoError(t, mp4.WriteFile(&buf, f))

	decoded, err := mp4.DecodeFile(buf.data)
	require.NoError(t, err)
	require.Len(t, decoded.Boxes, 1)
	return decoded.Boxes[0]
}

type bytesBuffer struct{ data []byte }

func (b *bytesBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func TestFtypRoundTrip(t *testing.T) {
	box := &mp4.Box{Type: mp4.TypeFtyp, Ftyp: &mp4.Ftyp{
		Brand:            [4]byte{'i', 's', 'o', 'm'},
		BrandVersion:     512,
		CompatibleBrands: [][4]byte{{'i', 's', 'o', '2'}, {'a', 'v', 'c', '1'}, {'m', 'p', '4', '1'}},
	}}
	got := roundTrip(t, box)
	assert.Equal(t, box.Ftyp, got.Ftyp)
}

func TestMdhdRoundTripVersion0(t *testing.T) {
	box := &mp4.Box{Type: mp4.TypeMdhd, Mdhd: &mp4.Mdhd{
		TimeScale: 48000,
		Duration:  96000,
		Language:  0x55C4,
	}}
	got := roundTrip(t, box)
	require.NotNil(t, got.Mdhd)
	assert.False(t, got.Mdhd.V1)
	assert.Equal(t, box.Mdhd.TimeScale, got.Mdhd.TimeScale)
	assert.Equal(t, box.Mdhd.Duration, got.Mdhd.Duration)
	assert.Equal(t, box.Mdhd.Language, got.Mdhd.Language)
}

func TestMdhdRoundTripVersion1(t *testing.T) {
	box := &mp4.Box{Type: mp4.TypeMdhd, Mdhd: &mp4.Mdhd{
		V1:        true,
		TimeScale: 1000,
		Duration:  1 << 40,
		Language:  0,
	}}
	got := roundTrip(t, box)
	require.NotNil(t, got.Mdhd)
	assert.True(t, got.Mdhd.V1)
	assert.Equal(t, box.Mdhd.Duration, got.Mdhd.Duration)
	assert.Equal(t, "und", got.Mdhd.LanguageCode())
}

func TestStszRoundTrip(t *testing.T) {
	box := &mp4.Box{Type: mp4.TypeStsz, Stsz: &mp4.Stsz{Entries: []uint32{179, 180, 160}}}
	got := roundTrip(t, box)
	assert.Equal(t, []uint32{179, 180, 160}, got.Stsz.Entries)
}

func TestStz2RoundTripFieldWidths(t *testing.T) {
	for _, fieldSize := range []uint8{4, 8, 16} {
		box := &mp4.Box{Type: mp4.TypeStz2, Stz2: &mp4.Stz2{FieldSize: fieldSize, Entries: []uint32{1, 2, 3, 4, 5}}}
		got := roundTrip(t, box)
		require.NotNil(t, got.Stz2)
		assert.Equal(t, box.Stz2.Entries, got.Stz2.Entries)
	}
}

func TestCo64RoundTrip(t *testing.T) {
	box := &mp4.Box{Type: mp4.TypeCo64, Co64: &mp4.Co64{Entries: []uint64{1 << 40, 1 << 41}}}
	got := roundTrip(t, box)
	assert.Equal(t, box.Co64.Entries, got.Co64.Entries)
}

func TestSttsCttsRoundTrip(t *testing.T) {
	stts := &mp4.Box{Type: mp4.TypeStts, Stts: &mp4.Stts{Entries: []mp4.STTSEntry{{Count: 3, Duration: 1024}}}}
	got := roundTrip(t, stts)
	assert.Equal(t, stts.Stts.Entries, got.Stts.Entries)

	ctts := &mp4.Box{Type: mp4.TypeCtts, Ctts: &mp4.Ctts{Entries: []mp4.CTTSEntry{{Count: 2, CompositionOffset: -512}}}}
	got2 := roundTrip(t, ctts)
	assert.Equal(t, ctts.Ctts.Entries, got2.Ctts.Entries)
}

func TestStssRoundTrip(t *testing.T) {
	box := &mp4.Box{Type: mp4.TypeStss, Stss: &mp4.Stss{Entries: []uint32{1, 30, 60}}}
	got := roundTrip(t, box)
	assert.Equal(t, box.Stss.Entries, got.Stss.Entries)
}

func TestDrefUrlRoundTrip(t *testing.T) {
	dref := &mp4.Box{Type: mp4.TypeDref, Dref: &mp4.DrefBox{Entries: []*mp4.Box{
		{Type: mp4.TypeUrl, Flags: [3]byte{0, 0, 1}, Url: &mp4.UrlBox{}},
	}}}
	got := roundTrip(t, dref)
	require.Len(t, got.Dref.Entries, 1)
	entry := got.Dref.Entries[0]
	assert.Equal(t, mp4.TypeUrl, entry.Type)
	assert.Equal(t, byte(1), entry.Flags[2])
	assert.Equal(t, "", entry.Url.Location)
}

func TestHdlrRoundTrip(t *testing.T) {
	box := &mp4.Box{Type: mp4.TypeHdlr, Hdlr: &mp4.Hdlr{HandlerType: [4]byte{'s', 'o', 'u', 'n'}, Name: "SoundHandler"}}
	got := roundTrip(t, box)
	assert.Equal(t, box.Hdlr.HandlerType, got.Hdlr.HandlerType)
	assert.Equal(t, box.Hdlr.Name, got.Hdlr.Name)
}
