package tsfile

import (
	"encoding/binary"
	"testing"

	"github.com/soltixdb/soltix/internal/compression"
)

// canonicalEncoding returns the one encoding NewValueDecoder accepts for
// dataType, mirroring the dispatch table every test chunk must agree with.
func canonicalEncoding(dataType DataType) Encoding {
	switch dataType {
	case Float, Double:
		return EncodingGorilla
	case Int32, Int64:
		return EncodingDelta
	case Bool:
		return EncodingBitmap
	default:
		return EncodingDictionary
	}
}

func valuesToInterface(dataType DataType, values []Value) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		switch dataType {
		case Bool:
			out[i] = v.AsBool()
		case Int32:
			out[i] = int64(v.AsInt32())
		case Int64:
			out[i] = v.AsInt64()
		case Float:
			out[i] = float64(v.AsFloat32())
		case Double:
			out[i] = v.AsFloat64()
		case Text:
			out[i] = v.AsText()
		}
	}
	return out
}

func encodeValueColumn(t *testing.T, dataType DataType, values []Value) []byte {
	t.Helper()
	vals := valuesToInterface(dataType, values)
	var (
		buf []byte
		err error
	)
	switch canonicalEncoding(dataType) {
	case EncodingGorilla:
		buf, err = compression.NewGorillaEncoder().Encode(vals)
	case EncodingDelta:
		buf, err = compression.NewDeltaEncoder().Encode(vals)
	case EncodingBitmap:
		buf, err = compression.NewBoolEncoder().Encode(vals)
	case EncodingDictionary:
		buf, err = compression.NewDictionaryEncoder().Encode(vals)
	}
	if err != nil {
		t.Fatalf("encode value column: %v", err)
	}
	return buf
}

func encodeTimeColumn(t *testing.T, times []int64) []byte {
	t.Helper()
	vals := make([]interface{}, len(times))
	for i, ts := range times {
		vals[i] = ts
	}
	buf, err := compression.NewDeltaEncoder().Encode(vals)
	if err != nil {
		t.Fatalf("encode time column: %v", err)
	}
	return buf
}

// testPoint is one (timestamp, value) pair used to build synthetic pages
// and chunks across the test files in this package.
type testPoint struct {
	ts int64
	v  Value
}

func times(points []testPoint) []int64 {
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.ts
	}
	return out
}

func vals(points []testPoint) []Value {
	out := make([]Value, len(points))
	for i, p := range points {
		out[i] = p.v
	}
	return out
}

// buildPageBytes returns the on-disk bytes (header + compressed body) of
// one page carrying points, compressed with algo.
func buildPageBytes(t *testing.T, dataType DataType, algo compression.Algorithm, points []testPoint) []byte {
	t.Helper()
	if len(points) == 0 {
		t.Fatalf("buildPageBytes: at least one point required")
	}

	timeBytes := encodeTimeColumn(t, times(points))
	valueBytes := encodeValueColumn(t, dataType, vals(points))

	raw := make([]byte, 4, 4+len(timeBytes)+len(valueBytes))
	binary.LittleEndian.PutUint32(raw, uint32(len(timeBytes)))
	raw = append(raw, timeBytes...)
	raw = append(raw, valueBytes...)

	compressor, err := compression.GetCompressor(algo)
	if err != nil {
		t.Fatalf("get compressor: %v", err)
	}
	compressed, err := compressor.Compress(raw)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	stats := NewStatistics(dataType)
	stats.UpdateBatch(vals(points))
	statsBytes := stats.Serialize()

	minTS, maxTS := points[0].ts, points[0].ts
	for _, p := range points {
		if p.ts < minTS {
			minTS = p.ts
		}
		if p.ts > maxTS {
			maxTS = p.ts
		}
	}

	header := make([]byte, 0, 8+len(statsBytes)+20)
	uLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(uLen, uint32(len(raw)))
	header = append(header, uLen...)
	cLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(cLen, uint32(len(compressed)))
	header = append(header, cLen...)
	header = append(header, statsBytes...)

	tail := make([]byte, 20)
	binary.LittleEndian.PutUint32(tail[0:4], uint32(len(points)))
	binary.LittleEndian.PutUint64(tail[4:12], uint64(maxTS))
	binary.LittleEndian.PutUint64(tail[12:20], uint64(minTS))
	header = append(header, tail...)

	return append(header, compressed...)
}

// buildChunkBytes returns the full on-disk bytes of a chunk with the
// given measurement UID and pages, each page's points already split by
// the caller (a chunk may span several pages).
func buildChunkBytes(t *testing.T, uid string, dataType DataType, algo compression.Algorithm, pages [][]testPoint) []byte {
	t.Helper()

	body := make([]byte, 0)
	for _, page := range pages {
		body = append(body, buildPageBytes(t, dataType, algo, page)...)
	}

	header := make([]byte, 0, 1+4+len(uid)+10+2)
	header = append(header, chunkMarker)
	uidLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(uidLen, uint32(len(uid)))
	header = append(header, uidLen...)
	header = append(header, []byte(uid)...)

	rest := make([]byte, 10)
	binary.LittleEndian.PutUint32(rest[0:4], uint32(len(body)))
	binary.LittleEndian.PutUint32(rest[4:8], uint32(len(pages)))
	rest[8] = byte(algo)
	rest[9] = byte(canonicalEncoding(dataType))
	header = append(header, rest...)
	header = append(header, byte(dataType), byte(LittleEndian))

	return append(header, body...)
}

// chunkFromBytes parses full on-disk chunk bytes (as buildChunkBytes
// produces) into a Chunk ready for NewChunkReader.
func chunkFromBytes(t *testing.T, buf []byte, deletedAt int64) *Chunk {
	t.Helper()
	header, n, err := ParseChunkHeader(buf)
	if err != nil {
		t.Fatalf("ParseChunkHeader: %v", err)
	}
	return &Chunk{Header: header, Body: buf[n:], DeletedAt: deletedAt}
}

// staticLoader is a ChunkLoader that always returns the same pre-built
// chunk, for tests that only need one ChunkMetaData -> Chunk mapping.
type staticLoader struct {
	chunk *Chunk
}

// Load returns a shallow copy of the pre-built chunk with DeletedAt
// overridden by meta, matching FileChunkLoader's contract that a
// modification-widened watermark on the metadata takes effect even
// though the underlying bytes never change.
func (l *staticLoader) Load(meta *ChunkMetaData) (*Chunk, error) {
	c := *l.chunk
	c.DeletedAt = meta.DeletedAt
	return &c, nil
}
