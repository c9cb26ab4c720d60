package mp4

import "time"

// mp4Epoch is the MP4/QuickTime reference date (1904-01-01T00:00:00Z)
// expressed as seconds before the Unix epoch.
const mp4Epoch = 2082844800

// Fixed16_16 is a 16.16 fixed-point number, as used by Mvhd.PreferredRate
// and Tkhd's width/height.
type Fixed16_16 uint32

// ToFloat64 returns the fixed-point value as a float64.
func (f Fixed16_16) ToFloat64() float64 {
	return float64(f) / 65536.0
}

// Fixed8_8 is an 8.8 fixed-point number, as used by Mvhd.PreferredVolume.
type Fixed8_8 uint16

// ToFloat64 returns the fixed-point value as a float64.
func (f Fixed8_8) ToFloat64() float64 {
	return float64(f) / 256.0
}

// MP4TimeToUnix converts a seconds-since-1904 MP4 timestamp to a time.Time.
func MP4TimeToUnix(t uint64) time.Time {
	if t < mp4Epoch {
		return time.Unix(0, 0).UTC()
	}
	return time.Unix(int64(t)-mp4Epoch, 0).UTC()
}

// UnixToMP4Time converts a time.Time to a seconds-since-1904 MP4 timestamp.
func UnixToMP4Time(t time.Time) uint64 {
	return uint64(t.Unix() + mp4Epoch)
}

// packedLanguage decodes the 15-bit ISO-639-2/T language code packed into
// Mdhd.Language (bit 15 is a padding zero, then three 5-bit fields each
// offset from 'a'-1, i.e. char = field + 0x60). A zero code, the historical
// "unspecified" value, decodes to "und".
func packedLanguage(code uint16) string {
	if code == 0 {
		return "und"
	}
	c1 := byte((code>>10)&0x1f) + 0x60
	c2 := byte((code>>5)&0x1f) + 0x60
	c3 := byte(code&0x1f) + 0x60
	return string([]byte{c1, c2, c3})
}

// LanguageCode decodes the box's packed language field to a 3-letter
// ISO-639-2/T code, or "und" if unspecified.
func (m *Mdhd) LanguageCode() string { return packedLanguage(m.Language) }

// packLanguage encodes a 3-letter ISO-639-2/T language code into Mdhd's
// packed 15-bit field. Any string not exactly 3 lowercase ASCII letters
// encodes as 0 ("und").
func packLanguage(lang string) uint16 {
	if len(lang) != 3 {
		return 0
	}
	for i := 0; i < 3; i++ {
		if lang[i] < 'a' || lang[i] > 'z' {
			return 0
		}
	}
	return uint16(lang[0]-0x60)<<10 | uint16(lang[1]-0x60)<<5 | uint16(lang[2]-0x60)
}
