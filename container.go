package mp4

// This file provides typed, read-only views over the generic Box tree for
// the containers File/Moov/Trak/Mdia/Minf/Stbl (dinf and edts have no typed
// view and are reached through Box.Children). Decode already parses these
// recursively as plain *Box with Children; these wrappers just give named
// access to the children a well-formed file is expected to carry, returning
// nil when a child is absent.

// Stbl is a typed view over a "stbl" box's children.
type Stbl struct{ box *Box }

func newStbl(box *Box) *Stbl { return &Stbl{box: box} }

func (s *Stbl) Stsd() *Box  { return s.box.FindChild(TypeStsd) }
func (s *Stbl) Stts() *Stts { return childPayload(s.box, TypeStts, func(b *Box) *Stts { return b.Stts }) }
func (s *Stbl) Ctts() *Ctts { return childPayload(s.box, TypeCtts, func(b *Box) *Ctts { return b.Ctts }) }
func (s *Stbl) Stsc() *Stsc { return childPayload(s.box, TypeStsc, func(b *Box) *Stsc { return b.Stsc }) }
func (s *Stbl) Stco() *Stco { return childPayload(s.box, TypeStco, func(b *Box) *Stco { return b.Stco }) }
func (s *Stbl) Co64() *Co64 { return childPayload(s.box, TypeCo64, func(b *Box) *Co64 { return b.Co64 }) }
func (s *Stbl) Stss() *Stss { return childPayload(s.box, TypeStss, func(b *Box) *Stss { return b.Stss }) }

// SampleSizes returns the box's stsz or stz2 entries (after fixed-size
// expansion for stsz) and ok=false if neither is present.
func (s *Stbl) SampleSizes() ([]uint32, bool) {
	if stsz := childPayload(s.box, TypeStsz, func(b *Box) *Stsz { return b.Stsz }); stsz != nil {
		return stsz.Entries, true
	}
	if stz2 := childPayload(s.box, TypeStz2, func(b *Box) *Stz2 { return b.Stz2 }); stz2 != nil {
		return stz2.Entries, true
	}
	return nil, false
}

func childPayload[T any](box *Box, t BoxType, get func(*Box) T) T {
	var zero T
	c := box.FindChild(t)
	if c == nil {
		return zero
	}
	return get(c)
}

// Minf is a typed view over a "minf" box's children.
type Minf struct{ box *Box }

func newMinf(box *Box) *Minf { return &Minf{box: box} }

func (m *Minf) Stbl() *Stbl {
	if c := m.box.FindChild(TypeStbl); c != nil {
		return newStbl(c)
	}
	return nil
}

func (m *Minf) Vmhd() *Vmhd { return childPayload(m.box, TypeVmhd, func(b *Box) *Vmhd { return b.Vmhd }) }
func (m *Minf) Smhd() *Smhd { return childPayload(m.box, TypeSmhd, func(b *Box) *Smhd { return b.Smhd }) }

// Mdia is a typed view over a "mdia" box's children.
type Mdia struct{ box *Box }

func newMdia(box *Box) *Mdia { return &Mdia{box: box} }

func (m *Mdia) Mdhd() *Mdhd { return childPayload(m.box, TypeMdhd, func(b *Box) *Mdhd { return b.Mdhd }) }
func (m *Mdia) Hdlr() *Hdlr { return childPayload(m.box, TypeHdlr, func(b *Box) *Hdlr { return b.Hdlr }) }

func (m *Mdia) Minf() *Minf {
	if c := m.box.FindChild(TypeMinf); c != nil {
		return newMinf(c)
	}
	return nil
}

// Trak is a typed view over a "trak" box's children.
type Trak struct{ box *Box }

func newTrak(box *Box) *Trak { return &Trak{box: box} }

func (t *Trak) Tkhd() *Tkhd { return childPayload(t.box, TypeTkhd, func(b *Box) *Tkhd { return b.Tkhd }) }

func (t *Trak) Mdia() *Mdia {
	if c := t.box.FindChild(TypeMdia); c != nil {
		return newMdia(c)
	}
	return nil
}

// Moov is a typed view over a "moov" box's children.
type Moov struct{ box *Box }

func newMoov(box *Box) *Moov { return &Moov{box: box} }

func (m *Moov) Mvhd() *Mvhd { return childPayload(m.box, TypeMvhd, func(b *Box) *Mvhd { return b.Mvhd }) }

func (m *Moov) Traks() []*Trak {
	children := m.box.FindChildren(TypeTrak)
	traks := make([]*Trak, len(children))
	for i, c := range children {
		traks[i] = newTrak(c)
	}
	return traks
}

// File is the top-level decoded box tree: the sequence of boxes found at
// the root of the byte stream (typically ftyp, moov, mdat, in some order).
type File struct {
	Boxes []*Box
}

func (f *File) root(t BoxType) *Box {
	for _, b := range f.Boxes {
		if b.Type == t {
			return b
		}
	}
	return nil
}

// Ftyp returns the root "ftyp" box's payload, or nil if absent.
func (f *File) Ftyp() *Ftyp {
	if b := f.root(TypeFtyp); b != nil {
		return b.Ftyp
	}
	return nil
}

// Moov returns a typed view of the root "moov" box, or nil if absent.
func (f *File) Moov() *Moov {
	if b := f.root(TypeMoov); b != nil {
		return newMoov(b)
	}
	return nil
}

// DecodeFile parses every top-level box in buf.
func DecodeFile(buf []byte) (*File, error) {
	f := &File{}
	ptr := 0
	for len(buf)-ptr >= 8 {
		box, err := Decode(buf, ptr, len(buf))
		if err != nil {
			return nil, err
		}
		f.Boxes = append(f.Boxes, box)
		ptr += int(box.Size)
	}
	return f, nil
}
