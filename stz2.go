package mp4

import "fmt"

// Stz2 represents the compact sample size box: a field-width-packed
// alternative to Stsz used when every sample size fits in 4, 8 or 16 bits.
type Stz2 struct {
	FieldSize uint8 // 4, 8 or 16
	Entries   []uint32
}

func decodeStz2(box *Box, buf []byte, start, _ int) error {
	b := buf[start:]
	fieldSize := b[3]
	switch fieldSize {
	case 4, 8, 16:
	default:
		return fmt.Errorf("%w: stz2 field size %d not one of {4,8,16}", ErrInvalidData, fieldSize)
	}
	num := int(be.Uint32(b[4:8]))
	entries := make([]uint32, num)
	ptr := 8
	switch fieldSize {
	case 16:
		for i := 0; i < num; i++ {
			entries[i] = uint32(be.Uint16(b[ptr:]))
			ptr += 2
		}
	case 8:
		for i := 0; i < num; i++ {
			entries[i] = uint32(b[ptr])
			ptr++
		}
	case 4:
		for i := 0; i < num; i++ {
			byteVal := b[ptr+i/2]
			if i%2 == 0 {
				entries[i] = uint32(byteVal >> 4)
			} else {
				entries[i] = uint32(byteVal & 0x0f)
			}
		}
	}
	box.Stz2 = &Stz2{FieldSize: fieldSize, Entries: entries}
	return nil
}

func encodeStz2(box *Box, buf []byte, offset int) int {
	b := buf[offset:]
	s := box.Stz2
	clearBytes(b, 0, 3)
	b[3] = s.FieldSize
	be.PutUint32(b[4:8], uint32(len(s.Entries)))
	ptr := 8
	switch s.FieldSize {
	case 16:
		for _, e := range s.Entries {
			be.PutUint16(b[ptr:], uint16(e))
			ptr += 2
		}
	case 8:
		for _, e := range s.Entries {
			b[ptr] = byte(e)
			ptr++
		}
	case 4:
		nBytes := (len(s.Entries) + 1) / 2
		clearBytes(b, ptr, ptr+nBytes)
		for i, e := range s.Entries {
			if i%2 == 0 {
				b[ptr+i/2] |= byte(e&0xf) << 4
			} else {
				b[ptr+i/2] |= byte(e & 0xf)
			}
		}
		ptr += nBytes
	}
	return ptr
}

func encodingLengthStz2(box *Box) int {
	n := len(box.Stz2.Entries)
	switch box.Stz2.FieldSize {
	case 16:
		return 8 + n*2
	case 4:
		return 8 + (n+1)/2
	default:
		return 8 + n
	}
}

// Stss represents the sync sample table: the sorted list of sample numbers
// (1-based) that are random access points.
type Stss struct {
	Entries []uint32
}

func decodeStss(box *Box, buf []byte, start, _ int) error {
	b := buf[start:]
	num := int(be.Uint32(b[0:4]))
	entries := make([]uint32, num)
	for i := 0; i < num; i++ {
		entries[i] = be.Uint32(b[4+i*4:])
	}
	box.Stss = &Stss{Entries: entries}
	return nil
}

func encodeStss(box *Box, buf []byte, offset int) int {
	b := buf[offset:]
	s := box.Stss
	be.PutUint32(b[0:4], uint32(len(s.Entries)))
	for i, e := range s.Entries {
		be.PutUint32(b[4+i*4:], e)
	}
	return 4 + len(s.Entries)*4
}

func encodingLengthStss(box *Box) int {
	return 4 + len(box.Stss.Entries)*4
}

// UrlBox represents a data-reference "url " entry (ISO/IEC 14496-12 §8.7.2).
// Flags&0x1 set means the media data is in the same file as the movie box,
// in which case Location is empty.
type UrlBox struct {
	Location string
}

func decodeUrl(box *Box, buf []byte, start, end int) error {
	box.Url = &UrlBox{Location: readString(buf, start, end)}
	return nil
}

func encodeUrl(box *Box, buf []byte, offset int) int {
	u := box.Url
	n := copy(buf[offset:], u.Location)
	if len(u.Location) > 0 {
		buf[offset+n] = 0
		n++
	}
	return n
}

func encodingLengthUrl(box *Box) int {
	if box.Url.Location == "" {
		return 0
	}
	return len(box.Url.Location) + 1
}
