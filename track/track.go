// Package track provides convenience helpers built on top of a decoded
// mp4.Reader: track-kind classification and whole-track sample statistics,
// without requiring a caller to re-derive them from the raw sample table.
package track

import (
	"errors"

	"github.com/isobmff/mp4"
)

// Kind classifies a track by its handler type.
type Kind int

const (
	KindUnknown Kind = iota
	KindVideo
	KindAudio
)

// ErrNotFound is returned when a requested track id is absent from the file.
var ErrNotFound = errors.New("track: not found")

// KindOf classifies t by its ISO-BMFF handler type ("vide" or "soun").
func KindOf(t *mp4.Track) Kind {
	switch t.Kind() {
	case "vide":
		return KindVideo
	case "soun":
		return KindAudio
	default:
		return KindUnknown
	}
}

// SampleStats summarizes one track's sample sizes.
type SampleStats struct {
	Count      int
	TotalBytes uint64
	MinSize    uint32
	MaxSize    uint32
}

// CollectSampleStats walks every sample in trackID via r, computing size
// statistics.
func CollectSampleStats(r *mp4.Reader, trackID uint32) (SampleStats, error) {
	var stats SampleStats
	if r.Track(trackID) == nil {
		return stats, ErrNotFound
	}
	for id := uint32(1); ; id++ {
		s, err := r.ReadSample(trackID, id)
		if err != nil {
			return stats, err
		}
		if s == nil {
			break
		}
		stats.Count++
		stats.TotalBytes += uint64(s.Size)
		if stats.MinSize == 0 || s.Size < stats.MinSize {
			stats.MinSize = s.Size
		}
		if s.Size > stats.MaxSize {
			stats.MaxSize = s.Size
		}
	}
	return stats, nil
}
