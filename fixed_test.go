package mp4_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isobmff/mp4"
)

func TestFixed16_16(t *testing.T) {
	assert.InDelta(t, 1.0, mp4.Fixed16_16(1<<16).ToFloat64(), 0.0001)
	assert.InDelta(t, 320.0, mp4.Fixed16_16(320<<16).ToFloat64(), 0.0001)
}

func TestFixed8_8(t *testing.T) {
	assert.InDelta(t, 1.0, mp4.Fixed8_8(1<<8).ToFloat64(), 0.0001)
}

func TestMP4TimeRoundTrip(t *testing.T) {
	now := mp4.MP4TimeToUnix(3913142400) // an arbitrary MP4-epoch timestamp
	back := mp4.UnixToMP4Time(now)
	assert.Equal(t, uint64(3913142400), back)
}

func TestPackedLanguageRoundTrip(t *testing.T) {
	cases := []string{"eng", "fra", "und"}
	for _, lang := range cases {
		m := &mp4.Mdhd{}
		if lang == "und" {
			m.Language = 0
		} else {
			m.Language = packLanguageForTest(lang)
		}
		assert.Equal(t, lang, m.LanguageCode())
	}
}

// packLanguageForTest mirrors the package-private packLanguage helper so the
// test can exercise LanguageCode without depending on unexported API.
func packLanguageForTest(lang string) uint16 {
	return uint16(lang[0]-0x60)<<10 | uint16(lang[1]-0x60)<<5 | uint16(lang[2]-0x60)
}
