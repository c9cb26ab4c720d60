package mp4

import (
	"errors"
	"fmt"
)

// Sentinel errors for consumer error matching with errors.Is.
var (
	// ErrInvalidData indicates a box failed a structural or range check
	// while decoding (truncated header, size outside its container, bad
	// field value).
	ErrInvalidData = errors.New("mp4: invalid data")

	// ErrBoxNotFound indicates a required top-level or descendant box is
	// absent from the tree.
	ErrBoxNotFound = errors.New("mp4: box not found")

	// ErrUnsupportedBoxVersion indicates a FullBox carries a version this
	// package does not know how to decode.
	ErrUnsupportedBoxVersion = errors.New("mp4: unsupported box version")
)

// BoxNotFoundError reports that a single required box type is missing.
type BoxNotFoundError struct {
	Type BoxType
}

func (e *BoxNotFoundError) Error() string {
	return fmt.Sprintf("mp4: box %s not found", e.Type)
}

func (e *BoxNotFoundError) Unwrap() error { return ErrBoxNotFound }

// Box2NotFoundError reports that neither of two mutually-acceptable box
// types is present (e.g. neither stco nor co64 under a stbl).
type Box2NotFoundError struct {
	A, B BoxType
}

func (e *Box2NotFoundError) Error() string {
	return fmt.Sprintf("mp4: neither %s nor %s found", e.A, e.B)
}

func (e *Box2NotFoundError) Unwrap() error { return ErrBoxNotFound }

// BoxInStblNotFoundError reports that a box expected under a specific
// track's sample table is missing.
type BoxInStblNotFoundError struct {
	TrackID uint32
	Type    BoxType
}

func (e *BoxInStblNotFoundError) Error() string {
	return fmt.Sprintf("mp4: track %d: box %s not found in stbl", e.TrackID, e.Type)
}

func (e *BoxInStblNotFoundError) Unwrap() error { return ErrBoxNotFound }

// EntryInStblNotFoundError reports that a sample-table box exists but has no
// entry covering the requested sample or chunk id. When the sample-size
// lookup reports it (a sample id past the last sample), ReadSample treats it
// as end-of-track and returns (nil, nil); from any other table it is
// returned to the caller as an error.
type EntryInStblNotFoundError struct {
	TrackID uint32
	Type    BoxType
	EntryID uint32
}

func (e *EntryInStblNotFoundError) Error() string {
	return fmt.Sprintf("mp4: track %d: no entry %d in %s", e.TrackID, e.EntryID, e.Type)
}

func (e *EntryInStblNotFoundError) Unwrap() error { return ErrBoxNotFound }

// UnsupportedBoxVersionError reports a FullBox version this package cannot
// decode.
type UnsupportedBoxVersionError struct {
	Type    BoxType
	Version uint8
}

func (e *UnsupportedBoxVersionError) Error() string {
	return fmt.Sprintf("mp4: box %s: unsupported version %d", e.Type, e.Version)
}

func (e *UnsupportedBoxVersionError) Unwrap() error { return ErrUnsupportedBoxVersion }
