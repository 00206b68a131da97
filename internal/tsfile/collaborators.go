package tsfile

// Modification is a tombstone: points at or before TimestampUpperBound
// written at or before Version are invisible. The catalogue's write
// path produces these; the read path only ever consumes them.
type Modification struct {
	Path                string
	Version             int64
	TimestampUpperBound int64
}

// TsFileResource is the minimal shape C8 (UnseqResourceMergeReader)
// needs from a file resource, whether it is a closed, fully-indexed
// file or one still being appended to. It is the seam between the read
// path and the (out-of-scope) write path / catalogue.
type TsFileResource interface {
	Path() string
	Closed() bool
	// Version orders resources amongst themselves for priority
	// assignment: a higher Version is newer.
	Version() int64
	// EndTimeMap records the last flushed timestamp per series; empty
	// for a resource nothing has been flushed into yet.
	EndTimeMap() map[string]int64
	// ChunkMetas returns the metadata for path, from the file-scoped
	// cache if Closed, from the resource's in-memory list otherwise.
	ChunkMetas(path string) ([]*ChunkMetaData, error)
	// MemChunk returns the unflushed in-memory tail for path, or nil if
	// Closed or if path has no buffered points in this resource.
	MemChunk(path string) *ReadOnlyMemChunk
}

// ResourceFilter decides, cheaply and without touching chunk metadata,
// whether a resource could possibly hold a point the query's Filter
// would accept. Used to skip whole closed resources before their
// chunk-metadata list is even materialized.
type ResourceFilter interface {
	Satisfies(resource TsFileResource, filter Filter, path string) bool
}

// MetadataCatalogue resolves a resource + series path to its chunk
// metadata list. The out-of-scope schema/metadata catalogue implements
// this; TsFileResource.ChunkMetas is the common case where a resource
// can answer the question about itself without a separate catalogue
// round-trip.
type MetadataCatalogue interface {
	ChunkMetas(resource TsFileResource, path string) ([]*ChunkMetaData, error)
}

// ModificationStore resolves a resource + series path to its pending
// tombstones.
type ModificationStore interface {
	Modifications(resource TsFileResource, path string) ([]Modification, error)
}

// ReadOnlyMemChunk is the unflushed tail of an unclosed file's series:
// a snapshot of points still sitting in the write path's memtable, not
// yet sorted into a chunk on disk. Points must already be in ascending
// timestamp order; ReadOnlyMemChunk never sorts them itself.
type ReadOnlyMemChunk struct {
	Meta   *ChunkMetaData
	Points []TimeValuePair
}

// PointReader returns an IPointReader over the mem-chunk's points,
// applying its DeletedAt watermark and filter exactly as a disk
// ChunkReader would.
func (c *ReadOnlyMemChunk) PointReader(filter Filter) IPointReader {
	return newMemChunkPointReader(c.Points, c.Meta.DeletedAt, filter)
}

// memChunkPointReader walks a ReadOnlyMemChunk's points directly,
// without going through the page/chunk decode path since they are
// already decoded values sitting in memory.
type memChunkPointReader struct {
	points    []TimeValuePair
	deletedAt int64
	filter    Filter
	pos       int
}

func newMemChunkPointReader(points []TimeValuePair, deletedAt int64, filter Filter) *memChunkPointReader {
	r := &memChunkPointReader{points: points, deletedAt: deletedAt, filter: filter}
	r.skipRejected()
	return r
}

func (r *memChunkPointReader) skipRejected() {
	for r.pos < len(r.points) {
		p := r.points[r.pos]
		if p.Timestamp <= r.deletedAt {
			r.pos++
			continue
		}
		if r.filter != nil && !r.filter.AcceptsPoint(p.Timestamp, p.Value) {
			r.pos++
			continue
		}
		break
	}
}

func (r *memChunkPointReader) HasNext() (bool, error) {
	return r.pos < len(r.points), nil
}

func (r *memChunkPointReader) Current() (TimeValuePair, error) {
	if r.pos >= len(r.points) {
		return TimeValuePair{}, newErr(KindCancelled, "memChunkPointReader.Current", nil)
	}
	return r.points[r.pos], nil
}

func (r *memChunkPointReader) Advance() error {
	if r.pos < len(r.points) {
		r.pos++
	}
	r.skipRejected()
	return nil
}

func (r *memChunkPointReader) Close() error {
	r.pos = len(r.points)
	return nil
}
