package mp4

import "testing"

// buildSoundTrak constructs a minimal single-chunk audio track whose sample
// table matches the audio track fixture used throughout this package's
// reference material: three samples of sizes 179/180/160, decode times
// 0/1024/2048 at duration 1024/1024/896.
func buildSoundTrak() *Trak {
	tkhdBox := &Box{Type: TypeTkhd, Tkhd: &Tkhd{TrackId: 2}}
	mdhdBox := &Box{Type: TypeMdhd, Mdhd: &Mdhd{TimeScale: 48000, Duration: 3072}}
	hdlrBox := &Box{Type: TypeHdlr, Hdlr: &Hdlr{HandlerType: [4]byte{'s', 'o', 'u', 'n'}}}
	stsdBox := &Box{Type: TypeStsd, Stsd: &Stsd{Entries: []*Box{
		{Type: TypeMp4a, Audio: &AudioSampleEntry{ChannelCount: 2, SampleSize: 16, SampleRate: 48000 << 16}},
	}}}
	stscBox := &Box{Type: TypeStsc, Stsc: &Stsc{Entries: []STSCEntry{{FirstChunk: 1, SamplesPerChunk: 3, SampleDescriptionId: 1}}}}
	stszBox := &Box{Type: TypeStsz, Stsz: &Stsz{Entries: []uint32{179, 180, 160}}}
	stcoBox := &Box{Type: TypeStco, Stco: &Stco{Entries: []uint32{100}}}
	sttsBox := &Box{Type: TypeStts, Stts: &Stts{Entries: []STTSEntry{{Count: 2, Duration: 1024}, {Count: 1, Duration: 896}}}}

	stblBox := &Box{Type: TypeStbl, Children: []*Box{stsdBox, stscBox, stszBox, stcoBox, sttsBox}}
	minfBox := &Box{Type: TypeMinf, Children: []*Box{stblBox}}
	mdiaBox := &Box{Type: TypeMdia, Children: []*Box{mdhdBox, hdlrBox, minfBox}}
	trakBox := &Box{Type: TypeTrak, Children: []*Box{tkhdBox, mdiaBox}}
	return newTrak(trakBox)
}

func TestSampleOffsetSingleChunk(t *testing.T) {
	tv, err := newTrackView(buildSoundTrak())
	if err != nil {
		t.Fatalf("newTrackView: %v", err)
	}

	want := []uint64{100, 279, 459}
	for i, w := range want {
		got, err := tv.sampleOffset(uint32(i + 1))
		if err != nil {
			t.Fatalf("sampleOffset(%d): %v", i+1, err)
		}
		if got != w {
			t.Errorf("sampleOffset(%d) = %d, want %d", i+1, got, w)
		}
	}
}

func TestSampleTimeWalksStts(t *testing.T) {
	tv, err := newTrackView(buildSoundTrak())
	if err != nil {
		t.Fatalf("newTrackView: %v", err)
	}

	cases := []struct {
		id           uint32
		start, dur   uint64
	}{
		{1, 0, 1024},
		{2, 1024, 1024},
		{3, 2048, 896},
	}
	for _, c := range cases {
		start, dur, err := tv.sampleTime(c.id)
		if err != nil {
			t.Fatalf("sampleTime(%d): %v", c.id, err)
		}
		if start != c.start || uint64(dur) != c.dur {
			t.Errorf("sampleTime(%d) = (%d, %d), want (%d, %d)", c.id, start, dur, c.start, c.dur)
		}
	}
}

func TestSampleTimeOutOfOrderRescans(t *testing.T) {
	tv, err := newTrackView(buildSoundTrak())
	if err != nil {
		t.Fatalf("newTrackView: %v", err)
	}
	if _, _, err := tv.sampleTime(3); err != nil {
		t.Fatal(err)
	}
	start, dur, err := tv.sampleTime(1)
	if err != nil {
		t.Fatal(err)
	}
	if start != 0 || dur != 1024 {
		t.Errorf("sampleTime(1) after sampleTime(3) = (%d, %d), want (0, 1024)", start, dur)
	}
}

func TestIsSyncSampleDefaultsTrueWithoutStss(t *testing.T) {
	tv, err := newTrackView(buildSoundTrak())
	if err != nil {
		t.Fatalf("newTrackView: %v", err)
	}
	for id := uint32(1); id <= 3; id++ {
		if !tv.isSyncSample(id) {
			t.Errorf("isSyncSample(%d) = false, want true (no stss present)", id)
		}
	}
}

func TestIsSyncSampleHonorsStss(t *testing.T) {
	trak := buildSoundTrak()
	stbl := trak.Mdia().Minf().Stbl()
	stbl.box.Children = append(stbl.box.Children, &Box{Type: TypeStss, Stss: &Stss{Entries: []uint32{1, 3}}})

	tv, err := newTrackView(trak)
	if err != nil {
		t.Fatalf("newTrackView: %v", err)
	}
	if !tv.isSyncSample(1) {
		t.Error("isSyncSample(1) = false, want true")
	}
	if tv.isSyncSample(2) {
		t.Error("isSyncSample(2) = true, want false")
	}
	if !tv.isSyncSample(3) {
		t.Error("isSyncSample(3) = false, want true")
	}
}

func TestSampleRenderingOffsetDefaultsZeroWithoutCtts(t *testing.T) {
	tv, err := newTrackView(buildSoundTrak())
	if err != nil {
		t.Fatalf("newTrackView: %v", err)
	}
	if off := tv.sampleRenderingOffset(1); off != 0 {
		t.Errorf("sampleRenderingOffset(1) = %d, want 0", off)
	}
}

func TestMissingStscRejected(t *testing.T) {
	tkhdBox := &Box{Type: TypeTkhd, Tkhd: &Tkhd{TrackId: 1}}
	mdhdBox := &Box{Type: TypeMdhd, Mdhd: &Mdhd{TimeScale: 1000}}
	hdlrBox := &Box{Type: TypeHdlr, Hdlr: &Hdlr{HandlerType: [4]byte{'v', 'i', 'd', 'e'}}}
	stsdBox := &Box{Type: TypeStsd, Stsd: &Stsd{Entries: []*Box{
		{Type: TypeAvc1, Visual: &VisualSampleEntry{Width: 320, Height: 240}},
	}}}
	stszBox := &Box{Type: TypeStsz, Stsz: &Stsz{Entries: []uint32{10}}}
	stblBox := &Box{Type: TypeStbl, Children: []*Box{stsdBox, stszBox}}
	minfBox := &Box{Type: TypeMinf, Children: []*Box{stblBox}}
	mdiaBox := &Box{Type: TypeMdia, Children: []*Box{mdhdBox, hdlrBox, minfBox}}
	trakBox := &Box{Type: TypeTrak, Children: []*Box{tkhdBox, mdiaBox}}

	_, err := newTrackView(newTrak(trakBox))
	if err == nil {
		t.Fatal("expected error for missing stsc, got nil")
	}
	var stblErr *BoxInStblNotFoundError
	if !asStblNotFound(err, &stblErr) {
		t.Fatalf("expected *BoxInStblNotFoundError, got %T: %v", err, err)
	}
	if stblErr.Type != TypeStsc {
		t.Errorf("expected missing box type stsc, got %s", stblErr.Type)
	}
}

func asStblNotFound(err error, target **BoxInStblNotFoundError) bool {
	e, ok := err.(*BoxInStblNotFoundError)
	if !ok {
		return false
	}
	*target = e
	return true
}
