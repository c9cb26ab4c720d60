package mp4

import (
	"fmt"
	"io"
)

// WriteFile serializes every box in f back to w, bit-exact with what Decode
// would read back from the result. Sizes are recomputed bottom-up from the
// current tree before anything is written, so mutations made after Decode
// (or boxes built by Writer) are reflected correctly.
func WriteFile(w io.Writer, f *File) error {
	var total uint64
	for _, box := range f.Boxes {
		total += EncodingLength(box)
	}

	buf := make([]byte, total)
	ptr := 0
	for _, box := range f.Boxes {
		n, err := encodeBox(box, buf, ptr)
		if err != nil {
			return err
		}
		ptr += n
	}
	if uint64(ptr) != total {
		return fmt.Errorf("%w: encoded %d bytes, expected %d", ErrInvalidData, ptr, total)
	}
	_, err := w.Write(buf)
	return err
}

// Writer builds a box tree with a fluent, teacher-style API (StartBox/
// EndBox bracketing, one WriteXxx method per leaf box) and serializes it on
// Bytes(). It is a convenience over constructing *Box/File values directly
// and calling WriteFile — useful for tests and for small synthetic files
// where hand-assembling the tree top-down reads better than building leaves
// bottom-up.
type Writer struct {
	roots []*Box
	stack []*Box
	err   error
}

// NewWriter returns an empty Writer ready to accept top-level boxes.
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) append(box *Box) {
	if len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		top.Children = append(top.Children, box)
		return
	}
	w.roots = append(w.roots, box)
}

// StartBox opens a container box of type t; subsequent writes become its
// children until the matching EndBox.
func (w *Writer) StartBox(t BoxType) {
	box := &Box{Type: t}
	w.append(box)
	w.stack = append(w.stack, box)
}

// EndBox closes the most recently opened container.
func (w *Writer) EndBox() {
	if len(w.stack) == 0 {
		w.err = fmt.Errorf("%w: EndBox with no matching StartBox", ErrInvalidData)
		return
	}
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *Writer) WriteFtyp(brand [4]byte, brandVersion uint32, compatible [][4]byte) {
	w.append(&Box{Type: TypeFtyp, Ftyp: &Ftyp{Brand: brand, BrandVersion: brandVersion, CompatibleBrands: compatible}})
}

func (w *Writer) WriteMvhd(timescale, duration uint32, nextTrackID uint32) {
	w.append(&Box{Type: TypeMvhd, Mvhd: &Mvhd{
		TimeScale:       timescale,
		Duration:        duration,
		PreferredRate:   [4]byte{0, 1, 0, 0},
		PreferredVolume: [2]byte{1, 0},
		Matrix:          unityMatrix(),
		NextTrackId:     nextTrackID,
	}})
}

func (w *Writer) WriteTkhd(flags uint32, trackID uint32, duration uint32, width, height uint32) {
	box := &Box{Type: TypeTkhd, Tkhd: &Tkhd{
		TrackId:     trackID,
		Duration:    duration,
		Volume:      0x0100,
		Matrix:      unityMatrix(),
		TrackWidth:  width,
		TrackHeight: height,
	}}
	box.Flags = [3]byte{byte(flags >> 16), byte(flags >> 8), byte(flags)}
	w.append(box)
}

func (w *Writer) WriteMdhd(timescale uint32, duration uint64, language uint16) {
	w.append(&Box{Type: TypeMdhd, Mdhd: &Mdhd{TimeScale: timescale, Duration: duration, Language: language}})
}

func (w *Writer) WriteHdlr(handlerType [4]byte, name string) {
	w.append(&Box{Type: TypeHdlr, Hdlr: &Hdlr{HandlerType: handlerType, Name: name}})
}

func (w *Writer) WriteTrex(trackID, defaultSampleDescriptionIndex, defaultSampleDuration, defaultSampleSize, defaultSampleFlags uint32) {
	w.append(&Box{Type: TypeTrex, Trex: &Trex{
		TrackId:                       trackID,
		DefaultSampleDescriptionIndex: defaultSampleDescriptionIndex,
		DefaultSampleDuration:         defaultSampleDuration,
		DefaultSampleSize:             defaultSampleSize,
		DefaultSampleFlags:            defaultSampleFlags,
	}})
}

func (w *Writer) WriteVmhd() {
	w.append(&Box{Type: TypeVmhd, Vmhd: &Vmhd{}})
}

func (w *Writer) WriteSmhd() {
	w.append(&Box{Type: TypeSmhd, Smhd: &Smhd{}})
}

func (w *Writer) WriteMdat(data []byte) {
	w.append(&Box{Type: TypeMdat, Mdat: &Mdat{Buffer: data}})
}

func unityMatrix() [36]byte {
	var m [36]byte
	be.PutUint32(m[0:4], 0x00010000)
	be.PutUint32(m[16:20], 0x00010000)
	be.PutUint32(m[32:36], 0x40000000)
	return m
}

// Bytes serializes the accumulated tree and returns it, or nil plus the
// first error encountered (from a mismatched StartBox/EndBox or a codec
// failure).
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if len(w.stack) != 0 {
		return nil, fmt.Errorf("%w: %d unclosed StartBox", ErrInvalidData, len(w.stack))
	}
	f := &File{Boxes: w.roots}
	buf := &byteSink{}
	if err := WriteFile(buf, f); err != nil {
		return nil, err
	}
	return buf.buf, nil
}

type byteSink struct{ buf []byte }

func (s *byteSink) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}
