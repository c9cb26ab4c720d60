// Package mp4 implements decoding and encoding of ISO Base Media File Format
// (ISO/IEC 14496-12) boxes: the container structure shared by MP4, M4A and
// related file types.
package mp4

import (
	"encoding/binary"
	"fmt"
)

var be = binary.BigEndian

// BoxType is a 4-byte box type identifier (FourCC).
type BoxType [4]byte

func (t BoxType) String() string {
	return string(t[:])
}

// FourCC is an alias for BoxType kept for readability at call sites that
// talk about sample-entry codec identifiers rather than box types.
type FourCC = BoxType

// Known box types.
var (
	TypeFtyp = BoxType{'f', 't', 'y', 'p'} // File type and compatibility
	TypeStyp = BoxType{'s', 't', 'y', 'p'} // Segment type (fragmented MP4)
)

// Movie structure boxes (moov and children).
var (
	TypeMoov = BoxType{'m', 'o', 'o', 'v'} // Movie metadata container
	TypeMvhd = BoxType{'m', 'v', 'h', 'd'} // Movie header (timescale, duration)
	TypeTrak = BoxType{'t', 'r', 'a', 'k'} // Track container
	TypeTkhd = BoxType{'t', 'k', 'h', 'd'} // Track header (ID, dimensions)
	TypeTref = BoxType{'t', 'r', 'e', 'f'} // Track reference container
	TypeTrgr = BoxType{'t', 'r', 'g', 'r'} // Track grouping indication
	TypeEdts = BoxType{'e', 'd', 't', 's'} // Edit list container
	TypeElst = BoxType{'e', 'l', 's', 't'} // Edit list entries
	TypeMdia = BoxType{'m', 'd', 'i', 'a'} // Media information container
	TypeMdhd = BoxType{'m', 'd', 'h', 'd'} // Media header (timescale, duration)
	TypeHdlr = BoxType{'h', 'd', 'l', 'r'} // Handler reference (vide/soun)
	TypeElng = BoxType{'e', 'l', 'n', 'g'} // Extended language tag
	TypeMinf = BoxType{'m', 'i', 'n', 'f'} // Media information container
	TypeVmhd = BoxType{'v', 'm', 'h', 'd'} // Video media header
	TypeSmhd = BoxType{'s', 'm', 'h', 'd'} // Sound media header
	TypeHmhd = BoxType{'h', 'm', 'h', 'd'} // Hint media header
	TypeSthd = BoxType{'s', 't', 'h', 'd'} // Subtitle media header
	TypeNmhd = BoxType{'n', 'm', 'h', 'd'} // Null media header
	TypeDinf = BoxType{'d', 'i', 'n', 'f'} // Data information container
	TypeDref = BoxType{'d', 'r', 'e', 'f'} // Data reference (URL/URN entries)
	TypeUrl  = BoxType{'u', 'r', 'l', ' '} // Data reference: URL entry
)

// Sample table boxes (stbl children).
var (
	TypeStbl = BoxType{'s', 't', 'b', 'l'} // Sample table container
	TypeStsd = BoxType{'s', 't', 's', 'd'} // Sample descriptions (codec config)
	TypeStts = BoxType{'s', 't', 't', 's'} // Decoding time-to-sample
	TypeCtts = BoxType{'c', 't', 't', 's'} // Composition time-to-sample
	TypeCslg = BoxType{'c', 's', 'l', 'g'} // Composition to decode timeline mapping
	TypeStsc = BoxType{'s', 't', 's', 'c'} // Sample-to-chunk mapping
	TypeStsz = BoxType{'s', 't', 's', 'z'} // Sample sizes
	TypeStz2 = BoxType{'s', 't', 'z', '2'} // Compact sample sizes
	TypeStco = BoxType{'s', 't', 'c', 'o'} // Chunk offsets (32-bit)
	TypeCo64 = BoxType{'c', 'o', '6', '4'} // Chunk offsets (64-bit)
	TypeStss = BoxType{'s', 't', 's', 's'} // Sync sample table (keyframes)
	TypeStsh = BoxType{'s', 't', 's', 'h'} // Shadow sync sample table
	TypePadb = BoxType{'p', 'a', 'd', 'b'} // Padding bits
	TypeStdp = BoxType{'s', 't', 'd', 'p'} // Sample degradation priority
	TypeSdtp = BoxType{'s', 'd', 't', 'p'} // Sample dependency type
	TypeSbgp = BoxType{'s', 'b', 'g', 'p'} // Sample-to-group
	TypeSgpd = BoxType{'s', 'g', 'p', 'd'} // Sample group description
	TypeSubs = BoxType{'s', 'u', 'b', 's'} // Sub-sample information
	TypeSaiz = BoxType{'s', 'a', 'i', 'z'} // Sample auxiliary information sizes
	TypeSaio = BoxType{'s', 'a', 'i', 'o'} // Sample auxiliary information offsets
)

// Fragment boxes (moof and children, mvex).
var (
	TypeMvex = BoxType{'m', 'v', 'e', 'x'} // Movie extends (signals fragmented file)
	TypeMehd = BoxType{'m', 'e', 'h', 'd'} // Movie extends header (fragment duration)
	TypeTrex = BoxType{'t', 'r', 'e', 'x'} // Track extends defaults
	TypeLeva = BoxType{'l', 'e', 'v', 'a'} // Level assignment
	TypeMoof = BoxType{'m', 'o', 'o', 'f'} // Movie fragment container
	TypeMfhd = BoxType{'m', 'f', 'h', 'd'} // Movie fragment header (sequence number)
	TypeTraf = BoxType{'t', 'r', 'a', 'f'} // Track fragment container
	TypeTfhd = BoxType{'t', 'f', 'h', 'd'} // Track fragment header
	TypeTfdt = BoxType{'t', 'f', 'd', 't'} // Track fragment decode time
	TypeTrun = BoxType{'t', 'r', 'u', 'n'} // Track run (per-sample metadata)
	TypeSidx = BoxType{'s', 'i', 'd', 'x'} // Segment index
	TypeEmsg = BoxType{'e', 'm', 's', 'g'} // Event message
)

// Metadata boxes.
var (
	TypeMeta = BoxType{'m', 'e', 't', 'a'} // Metadata container
	TypeUdta = BoxType{'u', 'd', 't', 'a'} // User data container
)

// Data boxes.
var (
	TypeMdat = BoxType{'m', 'd', 'a', 't'} // Media data payload
	TypeFree = BoxType{'f', 'r', 'e', 'e'} // Free space (can be skipped)
	TypeSkip = BoxType{'s', 'k', 'i', 'p'} // Free space (can be skipped)
)

// Sample entry boxes (children of stsd).
var (
	TypeAvc1 = BoxType{'a', 'v', 'c', '1'} // AVC/H.264 visual sample entry
	TypeAvcC = BoxType{'a', 'v', 'c', 'C'} // AVC decoder configuration record
	TypeBtrt = BoxType{'b', 't', 'r', 't'} // MPEG-4 bit rate
	TypePasp = BoxType{'p', 'a', 's', 'p'} // Pixel aspect ratio
	TypeMp4a = BoxType{'m', 'p', '4', 'a'} // MPEG-4 audio sample entry
	TypeEsds = BoxType{'e', 's', 'd', 's'} // ES descriptor
)

// IsFullBox returns true if the box type has version and flags fields.
func IsFullBox(t BoxType) bool {
	switch t {
	case TypeMvhd, TypeTkhd, TypeMdhd, TypeHdlr,
		TypeVmhd, TypeSmhd, TypeDref, TypeStsd,
		TypeStts, TypeCtts, TypeStsc, TypeStsz, TypeStz2,
		TypeStco, TypeCo64, TypeStss, TypeElst,
		TypeMeta, TypeEsds, TypeMehd, TypeTrex,
		TypeMfhd, TypeTfhd, TypeTfdt, TypeTrun,
		TypeSbgp, TypeSgpd, TypeSaiz, TypeSaio,
		TypeCslg, TypeSdtp, TypeSidx, TypeEmsg, TypeUrl:
		return true
	}
	return false
}

// IsContainerBox returns true if the box type is a container that holds child boxes.
func IsContainerBox(t BoxType) bool {
	switch t {
	case TypeMoov, TypeTrak, TypeEdts, TypeMdia,
		TypeMinf, TypeDinf, TypeStbl, TypeUdta,
		TypeMeta, TypeMvex, TypeMoof, TypeTraf,
		TypeTref, TypeTrgr:
		return true
	}
	return false
}

// Box is a decoded node of the box tree. Exactly one of the typed payload
// fields is populated, chosen by Type; container boxes populate Children
// instead (and, for dual-role boxes like Meta, may populate neither a typed
// payload nor be a pure container).
type Box struct {
	Type  BoxType
	Size  uint64 // total size on disk, including the header
	Start int    // offset of the header within the buffer it was decoded from

	Version uint8
	Flags   [3]byte

	Children []*Box

	Ftyp   *Ftyp
	Mvhd   *Mvhd
	Tkhd   *Tkhd
	Mdhd   *Mdhd
	Vmhd   *Vmhd
	Smhd   *Smhd
	Hdlr   *Hdlr
	Stsd   *Stsd
	Visual *VisualSampleEntry
	Audio  *AudioSampleEntry
	AvcC   *AvcC
	Esds   *Esds
	Stts   *Stts
	Ctts   *Ctts
	Stsc   *Stsc
	Stsz   *Stsz
	Stz2   *Stz2
	Stco   *Stco
	Co64   *Co64
	Stss   *Stss
	Dref   *DrefBox
	Url    *UrlBox
	Elst   *Elst
	Mehd   *Mehd
	Trex   *Trex
	Mfhd   *Mfhd
	Tfhd   *Tfhd
	Tfdt   *Tfdt
	Trun   *Trun
	Mdat   *Mdat

	// Unparsed holds the raw payload for boxes this package recognizes only
	// structurally (fragment boxes outside the sample-resolution path,
	// opaque metadata) so they round-trip byte-for-byte on write.
	Unparsed []byte
}

func clearBytes(b []byte, from, to int) {
	for i := from; i < to; i++ {
		b[i] = 0
	}
}

func readString(b []byte, from, limit int) string {
	end := from
	for end < limit && b[end] != 0 {
		end++
	}
	return string(b[from:end])
}

// Decode parses a single box (header + body) starting at buf[start:end).
// end bounds the search for largesize/size==0 "extends to end of enclosing
// container" boxes; it is not necessarily the end of this box.
func Decode(buf []byte, start, end int) (*Box, error) {
	if end-start < 8 {
		return nil, fmt.Errorf("%w: box header truncated", ErrInvalidData)
	}
	size64 := uint64(be.Uint32(buf[start : start+4]))
	var t BoxType
	copy(t[:], buf[start+4:start+8])

	hdr := 8
	switch size64 {
	case 0:
		size64 = uint64(end - start)
	case 1:
		if end-start < 16 {
			return nil, fmt.Errorf("%w: largesize box header truncated", ErrInvalidData)
		}
		size64 = be.Uint64(buf[start+8 : start+16])
		hdr = 16
	}
	if size64 < uint64(hdr) || start+int(size64) > end {
		return nil, fmt.Errorf("%w: box %s declares size %d outside bounds", ErrInvalidData, t, size64)
	}

	box := &Box{Type: t, Size: size64, Start: start}
	bodyStart := start + hdr
	bodyEnd := start + int(size64)

	if IsFullBox(t) {
		if bodyEnd-bodyStart < 4 {
			return nil, fmt.Errorf("%w: %s full-box header truncated", ErrInvalidData, t)
		}
		box.Version = buf[bodyStart]
		copy(box.Flags[:], buf[bodyStart+1:bodyStart+4])
		bodyStart += 4
	}

	if err := decodeBody(box, buf, bodyStart, bodyEnd); err != nil {
		return nil, fmt.Errorf("box %s: %w", t, err)
	}
	return box, nil
}

// decodeBody dispatches to a registered leaf codec, a container walk, or an
// opaque passthrough, in that order.
func decodeBody(box *Box, buf []byte, start, end int) error {
	if c := getCodec(box.Type); c != nil {
		return c.decode(box, buf, start, end)
	}
	if IsContainerBox(box.Type) {
		return decodeChildren(box, buf, start, end)
	}
	box.Unparsed = append([]byte(nil), buf[start:end]...)
	return nil
}

func decodeChildren(box *Box, buf []byte, start, end int) error {
	ptr := start
	for end-ptr >= 8 {
		child, err := Decode(buf, ptr, end)
		if err != nil {
			return err
		}
		box.Children = append(box.Children, child)
		ptr += int(child.Size)
	}
	return nil
}

// encodeBox serializes box at buf[offset:] and returns the number of bytes
// written, which equals box.Size once the tree has been re-sized by Writer.
func encodeBox(box *Box, buf []byte, offset int) (int, error) {
	hdr := 8
	if box.Size >= 1<<32 {
		hdr = 16
	}
	bodyLen := bodyEncodingLength(box)
	total := hdr + bodyLen
	if IsFullBox(box.Type) {
		total += 4
	}

	if hdr == 16 {
		be.PutUint32(buf[offset:], 1)
		copy(buf[offset+4:offset+8], box.Type[:])
		be.PutUint64(buf[offset+8:offset+16], uint64(total))
	} else {
		be.PutUint32(buf[offset:], uint32(total))
		copy(buf[offset+4:offset+8], box.Type[:])
	}
	ptr := offset + hdr

	if IsFullBox(box.Type) {
		buf[ptr] = box.Version
		copy(buf[ptr+1:ptr+4], box.Flags[:])
		ptr += 4
	}

	n, err := encodeBody(box, buf, ptr)
	if err != nil {
		return 0, fmt.Errorf("box %s: %w", box.Type, err)
	}
	_ = n
	return total, nil
}

func encodeBody(box *Box, buf []byte, offset int) (int, error) {
	if c := getCodec(box.Type); c != nil {
		return c.encode(box, buf, offset), nil
	}
	if box.Children != nil || IsContainerBox(box.Type) {
		ptr := offset
		for _, child := range box.Children {
			n, err := encodeBox(child, buf, ptr)
			if err != nil {
				return 0, err
			}
			ptr += n
		}
		return ptr - offset, nil
	}
	copy(buf[offset:], box.Unparsed)
	return len(box.Unparsed), nil
}

func bodyEncodingLength(box *Box) int {
	if c := getCodec(box.Type); c != nil {
		return c.encodingLength(box)
	}
	if box.Children != nil || IsContainerBox(box.Type) {
		n := 0
		for _, child := range box.Children {
			n += int(EncodingLength(child))
		}
		return n
	}
	return len(box.Unparsed)
}

// EncodingLength recomputes box.Size (header + body) bottom-up and returns
// it. WriteFile calls this before encoding so every box's recorded Size reflects
// the current tree, including any mutations made after decode.
func EncodingLength(box *Box) uint64 {
	hdr := 8
	if IsFullBox(box.Type) {
		hdr += 4
	}
	body := bodyEncodingLength(box)
	total := uint64(hdr + body)
	if total >= 1<<32 {
		total += 8
	}
	box.Size = total
	return total
}

// FindChild returns the first direct child of box with the given type.
func (box *Box) FindChild(t BoxType) *Box {
	for _, c := range box.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// FindChildren returns all direct children of box with the given type.
func (box *Box) FindChildren(t BoxType) []*Box {
	var out []*Box
	for _, c := range box.Children {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}
