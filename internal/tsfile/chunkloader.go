package tsfile

import (
	"encoding/binary"
	"io"

	"github.com/soltixdb/soltix/internal/logging"
)

var chunkLoaderLog = logging.Global().With("component", "tsfile.chunkloader")

// ChunkLoader resolves a ChunkMetaData's offset to its decoded bytes.
// ChunkMetaData holds a handle to one, never a back-pointer to the file
// resource that produced it, so metadata stays shareable and immutable
// independent of how long the underlying file stays open.
type ChunkLoader interface {
	Load(meta *ChunkMetaData) (*Chunk, error)
}

// FileChunkLoader loads chunks from one on-disk tsfile, borrowing its
// handle from a shared FileReaderCache for the duration of each Load
// call.
type FileChunkLoader struct {
	path   string
	closed bool
	cache  *FileReaderCache
}

// NewFileChunkLoader returns a loader reading from path via cache.
// closed records whether path is a fully-indexed, immutable file (vs.
// one still being appended to), which the cache uses as part of its key
// so a file's pre- and post-seal states are never confused.
func NewFileChunkLoader(path string, closed bool, cache *FileReaderCache) *FileChunkLoader {
	return &FileChunkLoader{path: path, closed: closed, cache: cache}
}

// Load seeks to meta.Offset, reads the chunk header and body, and
// returns the decoded Chunk. The returned Chunk owns its own byte
// buffer; the borrowed file handle is released before Load returns.
func (l *FileChunkLoader) Load(meta *ChunkMetaData) (*Chunk, error) {
	handle, err := l.cache.Get(l.path, l.closed)
	if err != nil {
		return nil, err
	}
	defer l.cache.Release(handle)

	header, headerLen, err := readChunkHeaderAt(handle.File(), meta.Offset)
	if err != nil {
		chunkLoaderLog.Warn("chunk header read failed", "path", l.path, "offset", meta.Offset, "error", err)
		return nil, err
	}

	body := make([]byte, header.BodySize)
	if header.BodySize > 0 {
		if _, err := handle.File().ReadAt(body, meta.Offset+int64(headerLen)); err != nil && err != io.EOF {
			chunkLoaderLog.Warn("chunk body read failed", "path", l.path, "offset", meta.Offset, "error", err)
			return nil, newErr(KindIO, "FileChunkLoader.Load", err)
		}
	}

	return &Chunk{Header: header, Body: body, DeletedAt: meta.DeletedAt}, nil
}

// readChunkHeaderAt reads exactly the bytes a ChunkHeader occupies
// starting at offset: first the marker + UID length prefix to learn the
// UID's size, then the whole fixed-plus-variable header in one read.
func readChunkHeaderAt(r io.ReaderAt, offset int64) (ChunkHeader, int, error) {
	prefix := make([]byte, 5)
	if _, err := r.ReadAt(prefix, offset); err != nil {
		return ChunkHeader{}, 0, newErr(KindIO, "readChunkHeaderAt", err)
	}
	if prefix[0] != chunkMarker {
		return ChunkHeader{}, 0, newErr(KindCorruptChunk, "readChunkHeaderAt", nil)
	}
	uidLen := int(binary.LittleEndian.Uint32(prefix[1:5]))
	if uidLen < 0 || uidLen > 1<<20 {
		return ChunkHeader{}, 0, newErr(KindCorruptChunk, "readChunkHeaderAt", nil)
	}

	total := 1 + 4 + uidLen + 4 + 4 + 1 + 1 + 1 + 1
	buf := make([]byte, total)
	if _, err := r.ReadAt(buf, offset); err != nil {
		return ChunkHeader{}, 0, newErr(KindIO, "readChunkHeaderAt", err)
	}

	header, n, err := ParseChunkHeader(buf)
	if err != nil {
		return ChunkHeader{}, 0, err
	}
	return header, n, nil
}
