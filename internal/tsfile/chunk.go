package tsfile

import (
	"encoding/binary"

	"github.com/soltixdb/soltix/internal/compression"
)

// chunkMarker is the single byte every ChunkHeader begins with. Any
// other leading byte means the offset recorded in ChunkMetaData no
// longer points at a chunk boundary.
const chunkMarker = 0x01

// ChunkHeader is the bit-exact on-disk prefix of one chunk, per spec
// §6: marker, measurement UID, body size, page count, and the codec
// triple (compression, encoding, data type) plus endianness.
type ChunkHeader struct {
	MeasurementUID string
	BodySize       int32
	NumPages       int32
	Compression    compression.Algorithm
	Encoding       Encoding
	DataType       DataType
	// Endianness is carried through for parity with the wire format but
	// never consulted by this read path; see DESIGN.md's "Endianness"
	// entry.
	Endianness Endianness
}

// ParseChunkHeader decodes a ChunkHeader from the front of buf and
// returns the number of bytes consumed.
func ParseChunkHeader(buf []byte) (ChunkHeader, int, error) {
	if len(buf) < 1 || buf[0] != chunkMarker {
		return ChunkHeader{}, 0, newErr(KindCorruptChunk, "ParseChunkHeader", nil)
	}
	offset := 1

	uid, n, err := readUTF8String(buf[offset:])
	if err != nil {
		return ChunkHeader{}, 0, newErr(KindCorruptChunk, "ParseChunkHeader", err)
	}
	offset += n

	if len(buf) < offset+10 {
		return ChunkHeader{}, 0, newErr(KindCorruptChunk, "ParseChunkHeader", nil)
	}
	h := ChunkHeader{
		MeasurementUID: uid,
		BodySize:       int32(binary.LittleEndian.Uint32(buf[offset : offset+4])),
		NumPages:       int32(binary.LittleEndian.Uint32(buf[offset+4 : offset+8])),
		Compression:    compression.Algorithm(buf[offset+8]),
		Encoding:       Encoding(buf[offset+9]),
	}
	offset += 10

	if len(buf) < offset+2 {
		return ChunkHeader{}, 0, newErr(KindCorruptChunk, "ParseChunkHeader", nil)
	}
	h.DataType = DataType(buf[offset])
	h.Endianness = Endianness(buf[offset+1])
	offset += 2

	if h.DataType > Text {
		return ChunkHeader{}, 0, newErr(KindUnknownType, "ParseChunkHeader", nil)
	}
	if h.BodySize < 0 || h.NumPages < 0 {
		return ChunkHeader{}, 0, newErr(KindCorruptChunk, "ParseChunkHeader", nil)
	}
	return h, offset, nil
}

// readUTF8String reads a length-prefixed UTF-8 string with no bound
// other than the buffer itself, used for identifiers (measurement UID)
// as opposed to the capped reader statistics.go uses to peek legacy
// field names.
func readUTF8String(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, newErr(KindCorruptChunk, "readUTF8String", nil)
	}
	length := int(binary.LittleEndian.Uint32(data))
	if length < 0 || length > len(data)-4 {
		return "", 0, newErr(KindCorruptChunk, "readUTF8String", nil)
	}
	return string(data[4 : 4+length]), 4 + length, nil
}

// Chunk is a loaded chunk: its header plus the still-compressed page
// stream that follows it. ChunkReader walks Body page by page; nothing
// is decompressed until a page survives pruning.
type Chunk struct {
	Header    ChunkHeader
	Body      []byte
	DeletedAt int64
}
