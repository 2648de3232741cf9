package data

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"sync"

	"github.com/hupe1980/treesearch/matrix"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Binary layout, all little-endian:
//
//	magic    uint32  "TSMX"
//	version  uint16
//	codec    uint8
//	reserved uint8
//	rows     uint32
//	cols     uint32
//	payload  rows*cols float64, possibly compressed
//	crc32    uint32  IEEE, over header + payload
type binaryHeader struct {
	Magic    uint32
	Version  uint16
	Codec    uint8
	Reserved uint8
	Rows     uint32
	Cols     uint32
}

const (
	binaryHeaderSize = 16
	checksumSize     = 4
)

// ZSTD encoder/decoder pools: EncodeAll/DecodeAll contexts are expensive to
// build and safe to reuse.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}

	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))

	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}

	dec, _ := zstd.NewReader(nil)

	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// encodeBinary serializes a matrix to the binary format. The requested codec
// may be downgraded to CodecNone when the payload is incompressible.
func encodeBinary(m *matrix.Dense, codec Codec) ([]byte, error) {
	raw := floatsToBytes(m.Data())

	payload, codec, err := compressPayload(raw, codec)
	if err != nil {
		return nil, err
	}

	hdr := binaryHeader{
		Magic:   magicNumber,
		Version: formatVersion,
		Codec:   uint8(codec),
		Rows:    uint32(m.Rows()),
		Cols:    uint32(m.Cols()),
	}

	buf := bytes.NewBuffer(make([]byte, 0, binaryHeaderSize+len(payload)+checksumSize))
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}

	buf.Write(payload)

	sum := crc32.ChecksumIEEE(buf.Bytes())
	if err := binary.Write(buf, binary.LittleEndian, sum); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decodeBinary parses a binary matrix file. It validates magic and version
// before the checksum, so a wrong-format file reports what it is rather than
// a checksum mismatch.
func decodeBinary(data []byte) (*matrix.Dense, error) {
	if len(data) < binaryHeaderSize+checksumSize {
		return nil, fmt.Errorf("%w: %d bytes is too small for a header", ErrCorruptFile, len(data))
	}

	var hdr binaryHeader
	if err := binary.Read(bytes.NewReader(data[:binaryHeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}

	if hdr.Magic != magicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}

	if hdr.Version != formatVersion {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, hdr.Version)
	}

	body := data[:len(data)-checksumSize]
	expected := binary.LittleEndian.Uint32(data[len(data)-checksumSize:])
	if actual := crc32.ChecksumIEEE(body); actual != expected {
		return nil, &ChecksumMismatchError{Expected: expected, Actual: actual}
	}

	cells := uint64(hdr.Rows) * uint64(hdr.Cols)
	if cells > math.MaxInt/8 {
		return nil, fmt.Errorf("%w: declared shape %dx%d is implausibly large", ErrCorruptFile, hdr.Rows, hdr.Cols)
	}

	raw, err := decompressPayload(body[binaryHeaderSize:], Codec(hdr.Codec), int(cells)*8)
	if err != nil {
		return nil, err
	}

	return matrix.FromFlat(int(hdr.Rows), int(hdr.Cols), bytesToFloats(raw))
}

// compressPayload applies the requested codec. LZ4 reports incompressible
// payloads by producing no output; those fall back to CodecNone so the codec
// byte always describes what is actually stored.
func compressPayload(raw []byte, codec Codec) ([]byte, Codec, error) {
	if len(raw) == 0 {
		return nil, CodecNone, nil
	}

	switch codec {
	case CodecNone:
		return raw, CodecNone, nil

	case CodecZstd:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)

		return enc.EncodeAll(raw, nil), CodecZstd, nil

	case CodecLZ4:
		compressed := make([]byte, lz4.CompressBlockBound(len(raw)))

		n, err := lz4.CompressBlock(raw, compressed, nil)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			return raw, CodecNone, nil
		}

		return compressed[:n], CodecLZ4, nil

	default:
		return nil, 0, fmt.Errorf("data: unknown codec %v", codec)
	}
}

func decompressPayload(payload []byte, codec Codec, want int) ([]byte, error) {
	switch codec {
	case CodecNone:
		if len(payload) != want {
			return nil, fmt.Errorf("%w: payload is %d bytes, shape needs %d", ErrCorruptFile, len(payload), want)
		}

		return payload, nil

	case CodecZstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		raw, err := dec.DecodeAll(payload, make([]byte, 0, want))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptFile, err)
		}
		if len(raw) != want {
			return nil, fmt.Errorf("%w: decompressed to %d bytes, shape needs %d", ErrCorruptFile, len(raw), want)
		}

		return raw, nil

	case CodecLZ4:
		raw := make([]byte, want)

		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptFile, err)
		}
		if n != want {
			return nil, fmt.Errorf("%w: decompressed to %d bytes, shape needs %d", ErrCorruptFile, n, want)
		}

		return raw, nil

	default:
		return nil, fmt.Errorf("%w: codec byte %d", ErrCorruptFile, codec)
	}
}

func floatsToBytes(vals []float64) []byte {
	raw := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	return raw
}

func bytesToFloats(raw []byte) []float64 {
	vals := make([]float64, len(raw)/8)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}

	return vals
}
