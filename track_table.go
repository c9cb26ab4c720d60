package mp4

import (
	"fmt"
	"io"
)

// MediaType is the codec carried by a track's sample entries.
type MediaType int

const (
	MediaUnknown MediaType = iota
	MediaH264
	MediaAAC
)

// Sample is one fully resolved sample: its byte range, decode/composition
// time, and sync flag. Bytes is nil until ReadSample is called; Offset/Size
// alone are enough for a caller that wants to do its own I/O.
type Sample struct {
	TrackID            uint32
	Offset             uint64
	Size               uint32
	StartTime          uint64 // decode timestamp, media timescale
	Duration           uint32
	RenderingOffset    int32 // composition offset, media timescale
	IsSync             bool
	Bytes              []byte
}

// stscRun is a precomputed sample-to-chunk run: the same entry as read from
// "stsc", plus its derived first_sample threshold (computed once at load so
// every lookup afterward is a binary search, not a rescan).
type stscRun struct {
	firstChunk      uint32
	samplesPerChunk uint32
	firstSample     uint32
}

// sttsCursor and cttsCursor carry the amortized O(1) monotonic-lookup state
// described by the sample-table engine: as a caller steps through samples in
// increasing id order, each lookup resumes from the last entry touched
// instead of rescanning from the table start.
type sttsCursor struct {
	entryIndex   int
	sampleCount  uint32 // samples consumed by entries before entryIndex
	elapsed      uint64
}

type cttsCursor struct {
	entryIndex  int
	sampleCount uint32
}

// trackView holds one track's decoded boxes plus derived, eagerly-built
// lookup structures. Only the stts/ctts cursors change after construction;
// sampleTime and sampleRenderingOffset advance them.
type trackView struct {
	id        uint32
	tkhd      *Tkhd
	mdhd      *Mdhd
	hdlr      *Hdlr
	stbl      *Stbl
	mediaType MediaType
	visual    *VisualSampleEntry
	audio     *AudioSampleEntry

	stsc      []stscRun
	sampleSizes []uint32
	fixedSampleSize uint32 // nonzero when every sample shares one size (stsz optimization)

	stts sttsCursor
	ctts cttsCursor
}

func newTrackView(trak *Trak) (*trackView, error) {
	tkhd := trak.Tkhd()
	if tkhd == nil {
		return nil, &BoxNotFoundError{Type: TypeTkhd}
	}
	mdia := trak.Mdia()
	if mdia == nil {
		return nil, &BoxNotFoundError{Type: TypeMdia}
	}
	mdhd := mdia.Mdhd()
	if mdhd == nil {
		return nil, &BoxNotFoundError{Type: TypeMdhd}
	}
	hdlr := mdia.Hdlr()
	if hdlr == nil {
		return nil, &BoxNotFoundError{Type: TypeHdlr}
	}
	minf := mdia.Minf()
	if minf == nil {
		return nil, &BoxNotFoundError{Type: TypeMinf}
	}
	stbl := minf.Stbl()
	if stbl == nil {
		return nil, &BoxNotFoundError{Type: TypeStbl}
	}

	tv := &trackView{
		id:   tkhd.TrackId,
		tkhd: tkhd,
		mdhd: mdhd,
		hdlr: hdlr,
		stbl: stbl,
	}

	stsdBox := stbl.Stsd()
	if stsdBox == nil {
		return nil, &BoxInStblNotFoundError{TrackID: tv.id, Type: TypeStsd}
	}
	if stsdBox.Stsd != nil {
		for _, entry := range stsdBox.Stsd.Entries {
			switch entry.Type {
			case TypeAvc1:
				tv.mediaType = MediaH264
				tv.visual = entry.Visual
			case TypeMp4a:
				tv.mediaType = MediaAAC
				tv.audio = entry.Audio
			}
		}
	}

	stsc := stbl.Stsc()
	if stsc == nil {
		return nil, &BoxInStblNotFoundError{TrackID: tv.id, Type: TypeStsc}
	}
	tv.stsc = derivedStsc(stsc)

	sizes, ok := stbl.SampleSizes()
	if !ok {
		return nil, &BoxInStblNotFoundError{TrackID: tv.id, Type: TypeStsz}
	}
	tv.sampleSizes = sizes
	if stsz := childPayload(stbl.box, TypeStsz, func(b *Box) *Stsz { return b.Stsz }); stsz != nil {
		tv.fixedSampleSize = stsz.SampleSize
	}

	return tv, nil
}

// derivedStsc precomputes each run's first_sample threshold, so
// sampleOffset never needs to re-walk earlier runs to find it.
func derivedStsc(stsc *Stsc) []stscRun {
	runs := make([]stscRun, len(stsc.Entries))
	firstSample := uint32(1)
	for i, e := range stsc.Entries {
		runs[i] = stscRun{firstChunk: e.FirstChunk, samplesPerChunk: e.SamplesPerChunk, firstSample: firstSample}
		if i+1 < len(stsc.Entries) {
			chunkSpan := stsc.Entries[i+1].FirstChunk - e.FirstChunk
			firstSample += chunkSpan * e.SamplesPerChunk
		}
	}
	return runs
}

// stscIndexFor returns the run covering sampleID: the last run whose
// firstSample is <= sampleID. Runs are sorted by firstSample ascending
// (guaranteed by the ISO layout), so this is a binary search.
func (tv *trackView) stscIndexFor(sampleID uint32) (int, error) {
	if len(tv.stsc) == 0 {
		return 0, &BoxInStblNotFoundError{TrackID: tv.id, Type: TypeStsc}
	}
	lo, hi := 0, len(tv.stsc)
	for lo < hi {
		mid := (lo + hi) / 2
		if tv.stsc[mid].firstSample <= sampleID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0, &EntryInStblNotFoundError{TrackID: tv.id, Type: TypeStsc, EntryID: sampleID}
	}
	return lo - 1, nil
}

func (tv *trackView) chunkOffset(chunkID uint32) (uint64, error) {
	if stco := tv.stbl.Stco(); stco != nil {
		if int(chunkID-1) < 0 || int(chunkID-1) >= len(stco.Entries) {
			return 0, &EntryInStblNotFoundError{TrackID: tv.id, Type: TypeStco, EntryID: chunkID}
		}
		return uint64(stco.Entries[chunkID-1]), nil
	}
	if co64 := tv.stbl.Co64(); co64 != nil {
		if int(chunkID-1) < 0 || int(chunkID-1) >= len(co64.Entries) {
			return 0, &EntryInStblNotFoundError{TrackID: tv.id, Type: TypeCo64, EntryID: chunkID}
		}
		return co64.Entries[chunkID-1], nil
	}
	return 0, &Box2NotFoundError{A: TypeStco, B: TypeCo64}
}

func (tv *trackView) sampleSize(sampleID uint32) (uint32, error) {
	idx := int(sampleID) - 1
	if idx < 0 || idx >= len(tv.sampleSizes) {
		return 0, &EntryInStblNotFoundError{TrackID: tv.id, Type: TypeStsz, EntryID: sampleID}
	}
	return tv.sampleSizes[idx], nil
}

func (tv *trackView) sampleCount() uint32 { return uint32(len(tv.sampleSizes)) }

// sampleOffset resolves sampleID's absolute file offset via the stsc/stco
// (or co64) join: which chunk the sample falls in, the chunk's base offset,
// then the running size of every sample before it within that same chunk.
func (tv *trackView) sampleOffset(sampleID uint32) (uint64, error) {
	runIdx, err := tv.stscIndexFor(sampleID)
	if err != nil {
		return 0, err
	}
	run := tv.stsc[runIdx]
	if run.samplesPerChunk == 0 {
		return 0, fmt.Errorf("%w: stsc run has samples_per_chunk=0", ErrInvalidData)
	}

	chunkID := run.firstChunk + (sampleID-run.firstSample)/run.samplesPerChunk
	chunkOffset, err := tv.chunkOffset(chunkID)
	if err != nil {
		return 0, err
	}

	firstSampleInChunk := sampleID - (sampleID-run.firstSample)%run.samplesPerChunk
	var offsetInChunk uint64
	for i := firstSampleInChunk; i < sampleID; i++ {
		size, err := tv.sampleSize(i)
		if err != nil {
			return 0, err
		}
		offsetInChunk += uint64(size)
	}
	return chunkOffset + offsetInChunk, nil
}

// sampleTime resolves sampleID's decode timestamp and duration by walking
// "stts" run lengths. The walk resumes from tv.stts's last position when
// sampleID is monotonically increasing across calls (the expected access
// pattern for sequential extraction), making amortized cost O(1) per call;
// a sampleID that goes backward forces a rescan from the start.
func (tv *trackView) sampleTime(sampleID uint32) (uint64, uint32, error) {
	stts := tv.stbl.Stts()
	if stts == nil {
		return 0, 0, &BoxInStblNotFoundError{TrackID: tv.id, Type: TypeStts}
	}

	entryIndex := tv.stts.entryIndex
	sampleCount := tv.stts.sampleCount + 1
	elapsed := tv.stts.elapsed
	if entryIndex >= len(stts.Entries) || sampleID < sampleCount {
		entryIndex, sampleCount, elapsed = 0, 1, 0
	}

	for entryIndex < len(stts.Entries) {
		entry := stts.Entries[entryIndex]
		if sampleID <= sampleCount+entry.Count-1 {
			startTime := uint64(sampleID-sampleCount)*uint64(entry.Duration) + elapsed
			tv.stts = sttsCursor{entryIndex: entryIndex, sampleCount: sampleCount - 1, elapsed: elapsed}
			return startTime, entry.Duration, nil
		}
		elapsed += uint64(entry.Count) * uint64(entry.Duration)
		sampleCount += entry.Count
		entryIndex++
	}
	return 0, 0, &EntryInStblNotFoundError{TrackID: tv.id, Type: TypeStts, EntryID: sampleID}
}

// sampleRenderingOffset resolves sampleID's composition-time offset via
// "ctts", with the same resumable-cursor behavior as sampleTime. Tracks
// without "ctts" (the common case for audio) always report offset 0.
func (tv *trackView) sampleRenderingOffset(sampleID uint32) int32 {
	ctts := tv.stbl.Ctts()
	if ctts == nil {
		return 0
	}

	entryIndex := tv.ctts.entryIndex
	sampleCount := tv.ctts.sampleCount + 1
	if entryIndex >= len(ctts.Entries) || sampleID < sampleCount {
		entryIndex, sampleCount = 0, 1
	}

	for entryIndex < len(ctts.Entries) {
		entry := ctts.Entries[entryIndex]
		if sampleID <= sampleCount+entry.Count-1 {
			tv.ctts = cttsCursor{entryIndex: entryIndex, sampleCount: sampleCount - 1}
			return entry.CompositionOffset
		}
		sampleCount += entry.Count
		entryIndex++
	}
	return 0
}

// isSyncSample reports whether sampleID is a random-access point: a binary
// search against "stss" if present, or true unconditionally when stss is
// absent (every sample is a sync sample, per ISO/IEC 14496-12 §8.6.2).
func (tv *trackView) isSyncSample(sampleID uint32) bool {
	stss := tv.stbl.Stss()
	if stss == nil {
		return true
	}
	entries := stss.Entries
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if entries[mid] < sampleID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(entries) && entries[lo] == sampleID
}

// readSample resolves sampleID to bytes, seeking into r at the sample's
// absolute file offset. It returns (nil, nil) once sampleID passes the last
// sample: the sentinel end-of-track condition, distinct from a real error.
func (tv *trackView) readSample(r io.ReadSeeker, sampleID uint32) (*Sample, error) {
	if sampleID == 0 {
		return nil, fmt.Errorf("%w: sample_id is 1-based", ErrInvalidData)
	}
	size, err := tv.sampleSize(sampleID)
	if err != nil {
		if _, ok := err.(*EntryInStblNotFoundError); ok {
			return nil, nil
		}
		return nil, err
	}
	offset, err := tv.sampleOffset(sampleID)
	if err != nil {
		return nil, err
	}
	startTime, duration, err := tv.sampleTime(sampleID)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	return &Sample{
		TrackID:         tv.id,
		Offset:          offset,
		Size:            size,
		StartTime:       startTime,
		Duration:        duration,
		RenderingOffset: tv.sampleRenderingOffset(sampleID),
		IsSync:          tv.isSyncSample(sampleID),
		Bytes:           buf,
	}, nil
}

// Track is the public, read-only view of one track's metadata and sample
// table, returned by Reader.Track.
type Track struct {
	view *trackView
}

// ID returns the track's track_id (Tkhd.TrackId).
func (t *Track) ID() uint32 { return t.view.id }

// Kind reports whether the track is video, audio, or something else
// (derived from Hdlr.HandlerType: "vide" or "soun").
func (t *Track) Kind() string { return string(t.view.hdlr.HandlerType[:]) }

// MediaType reports the sample entry codec found in "stsd": H.264 or AAC.
func (t *Track) MediaType() MediaType { return t.view.mediaType }

// TimeScale returns the track's media timescale (Mdhd.TimeScale).
func (t *Track) TimeScale() uint32 { return t.view.mdhd.TimeScale }

// Duration returns the track's duration in ITS OWN media timescale
// (Mdhd.Duration). This is deliberately distinct from Reader.Duration,
// which is the movie's duration in the movie timescale: the two boxes are
// not interchangeable, so they get two named accessors rather than one
// overloaded one.
func (t *Track) Duration() uint64 { return t.view.mdhd.Duration }

// Language returns the track's 3-letter ISO-639-2/T language code.
func (t *Track) Language() string { return t.view.mdhd.LanguageCode() }

// Width and Height return the track's visual dimensions, preferring the
// sample entry's pixel dimensions over Tkhd's (track presentation) size.
func (t *Track) Width() uint16 {
	if t.view.visual != nil {
		return t.view.visual.Width
	}
	return uint16(Fixed16_16(t.view.tkhd.TrackWidth).ToFloat64())
}

func (t *Track) Height() uint16 {
	if t.view.visual != nil {
		return t.view.visual.Height
	}
	return uint16(Fixed16_16(t.view.tkhd.TrackHeight).ToFloat64())
}

// SampleRate returns the audio sample rate in Hz, or 0 for non-audio tracks.
func (t *Track) SampleRate() uint32 {
	if t.view.audio == nil {
		return 0
	}
	return t.view.audio.SampleRate >> 16 // mp4a stores rate as a 16.16 fixed value
}

// ChannelCount returns the audio channel count, or 0 for non-audio tracks.
func (t *Track) ChannelCount() uint16 {
	if t.view.audio == nil {
		return 0
	}
	return t.view.audio.ChannelCount
}

// SampleCount returns the number of samples in the track's sample table.
func (t *Track) SampleCount() uint32 { return t.view.sampleCount() }

// FrameRate returns SampleCount / (Duration in seconds), or 0 if Duration
// is 0 (e.g. a track with no samples).
func (t *Track) FrameRate() float64 {
	durSec := float64(t.Duration()) / float64(t.TimeScale())
	if durSec <= 0 {
		return 0
	}
	return float64(t.SampleCount()) / durSec
}

// Bitrate returns the track's average bitrate in bits/second, derived from
// total sample bytes over duration, or 0 if Duration is under one second.
func (t *Track) Bitrate() uint32 {
	durSec := float64(t.Duration()) / float64(t.TimeScale())
	if durSec < 1 {
		return 0
	}
	var total uint64
	for _, s := range t.view.sampleSizes {
		total += uint64(s)
	}
	return uint32(float64(total) * 8 / durSec)
}
