package data

import (
	"errors"
	"fmt"
)

const (
	// magicNumber identifies treesearch binary matrix files (ASCII: "TSMX").
	magicNumber = 0x54534D58

	// formatVersion is the current binary format version.
	formatVersion = 1
)

var (
	// ErrUnknownFormat is returned when a path carries an extension no
	// reader or writer is registered for.
	ErrUnknownFormat = errors.New("data: unknown file format")

	// ErrInvalidMagic is returned when a binary file does not start with
	// the treesearch magic number.
	ErrInvalidMagic = errors.New("data: invalid magic number")

	// ErrInvalidVersion is returned when a binary file was written by an
	// unsupported format version.
	ErrInvalidVersion = errors.New("data: unsupported format version")

	// ErrCorruptFile is returned when a binary file is structurally broken
	// (truncated header, payload shorter than its declared shape).
	ErrCorruptFile = errors.New("data: corrupt file")
)

// Codec selects the payload compression of binary matrix files.
type Codec uint8

const (
	// CodecNone stores the payload as raw little-endian float64s.
	CodecNone Codec = iota

	// CodecZstd compresses the payload with zstandard. Good ratio, still
	// fast to decode; the default for archived datasets.
	CodecZstd

	// CodecLZ4 compresses the payload with LZ4 block compression. Fastest
	// to decode, lighter ratio.
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps a codec name to its Codec value. Used by the CLI and by
// YAML job files.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "none":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("data: unknown codec %q", name)
	}
}

// ParseError reports where in a text dataset parsing failed. Row and Col are
// zero-based; Col is -1 when the whole row is malformed rather than a single
// cell.
//
// It wraps the underlying cause, so errors.Is sees through it: a non-numeric
// cell matches treesearch.ErrInvalidParameter and a ragged row matches
// treesearch.ErrDimensionMismatch.
type ParseError struct {
	Path string
	Row  int
	Col  int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Col < 0 {
		return fmt.Sprintf("%s: row %d: %v", e.Path, e.Row, e.Err)
	}

	return fmt.Sprintf("%s: row %d, col %d: %v", e.Path, e.Row, e.Col, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ChecksumMismatchError is returned when the CRC32 footer of a binary file
// does not match its contents.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("data: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}
