package mp4

import (
	"fmt"
	"io"
)

// rootBox describes one top-level box as found while scanning the stream:
// header offset/size plus, for "moov", its fully decoded tree. Large
// payload boxes ("mdat", "free", "skip", and anything unrecognized) are
// never loaded into memory — only their byte range is recorded, so opening
// a multi-gigabyte file costs only the size of its moov.
type rootBox struct {
	Type       BoxType
	Offset     int64 // offset of the header
	Size       int64 // total size including header
	bodyOffset int64
	decoded    *Box // non-nil only for "moov" and "ftyp"
}

// Reader parses an ISO-BMFF stream's box tree and exposes per-track sample
// tables for random access. It keeps the caller's io.ReadSeeker open for the
// lifetime of the Reader so ReadSample can seek directly into "mdat".
type Reader struct {
	r     io.ReadSeeker
	roots []rootBox
	file  *File
	moov  *Moov

	tracks map[uint32]*trackView
}

// readRootHeader reads one top-level box header (8 or 16 bytes) at the
// reader's current position. size==0 means "extends to end of file".
func readRootHeader(r io.ReadSeeker) (BoxType, int64, int64, error) {
	hdrOffset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return BoxType{}, 0, 0, err
	}
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return BoxType{}, 0, 0, err
	}
	size64 := uint64(be.Uint32(hdr[0:4]))
	var t BoxType
	copy(t[:], hdr[4:8])
	bodyOffset := hdrOffset + 8

	switch size64 {
	case 0:
		end, err := r.Seek(0, io.SeekEnd)
		if err != nil {
			return BoxType{}, 0, 0, err
		}
		size64 = uint64(end - hdrOffset)
	case 1:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return BoxType{}, 0, 0, err
		}
		size64 = be.Uint64(ext[:])
		bodyOffset += 8
	}
	if size64 < uint64(bodyOffset-hdrOffset) {
		return BoxType{}, 0, 0, fmt.Errorf("%w: box %s declares size %d smaller than its header", ErrInvalidData, t, size64)
	}
	return t, hdrOffset, int64(size64), nil
}

// NewReader scans r's top-level boxes and fully decodes "moov" (and "ftyp").
// r must remain open and seekable for the lifetime of the returned Reader.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	rd := &Reader{r: r, file: &File{}}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	for {
		t, offset, size, err := readRootHeader(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		root := rootBox{Type: t, Offset: offset, Size: size, bodyOffset: offset + 8}

		switch t {
		case TypeFtyp, TypeMoov:
			if _, err := r.Seek(offset, io.SeekStart); err != nil {
				return nil, err
			}
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			box, err := Decode(buf, 0, len(buf))
			if err != nil {
				return nil, err
			}
			root.decoded = box
			rd.file.Boxes = append(rd.file.Boxes, box)
		}

		rd.roots = append(rd.roots, root)
		if _, err := r.Seek(offset+size, io.SeekStart); err != nil {
			return nil, err
		}
	}

	ftypCount := 0
	for i, root := range rd.roots {
		if root.Type != TypeFtyp {
			continue
		}
		ftypCount++
		if i != 0 {
			return nil, fmt.Errorf("%w: ftyp must be the first box in the file", ErrInvalidData)
		}
	}
	if ftypCount != 1 {
		return nil, fmt.Errorf("%w: file must contain exactly one ftyp box, found %d", ErrInvalidData, ftypCount)
	}

	moov := rd.file.Moov()
	if moov == nil {
		return nil, &BoxNotFoundError{Type: TypeMoov}
	}
	rd.moov = moov

	rd.tracks = make(map[uint32]*trackView)
	for _, trak := range moov.Traks() {
		tv, err := newTrackView(trak)
		if err != nil {
			return nil, err
		}
		rd.tracks[tv.id] = tv
	}
	return rd, nil
}

// Ftyp returns the file's "ftyp" box, or nil if absent.
func (rd *Reader) Ftyp() *Ftyp { return rd.file.Ftyp() }

// Duration returns the movie's duration in movie-timescale units, as
// recorded in "mvhd". Compare to Track.Duration, which is media-timescale.
func (rd *Reader) Duration() (uint32, uint32) {
	mvhd := rd.moov.Mvhd()
	return mvhd.Duration, mvhd.TimeScale
}

// TrackIDs returns every track id present in the file, in "trak" order.
func (rd *Reader) TrackIDs() []uint32 {
	ids := make([]uint32, 0, len(rd.tracks))
	for _, trak := range rd.moov.Traks() {
		ids = append(ids, trak.Tkhd().TrackId)
	}
	return ids
}

// Track returns the track with the given id, or nil if none matches.
func (rd *Reader) Track(id uint32) *Track {
	tv, ok := rd.tracks[id]
	if !ok {
		return nil
	}
	return &Track{view: tv}
}

// ReadSample reads the sampleID'th sample (1-based) of the given track.
// It returns (nil, nil) once sampleID passes the last sample, matching
// end-of-track rather than an error.
func (rd *Reader) ReadSample(trackID uint32, sampleID uint32) (*Sample, error) {
	tv, ok := rd.tracks[trackID]
	if !ok {
		return nil, &BoxNotFoundError{Type: TypeTrak}
	}
	return tv.readSample(rd.r, sampleID)
}
