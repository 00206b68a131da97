package tsfile

// ChunkMetaData is the directory entry for one chunk: enough to decide
// whether the chunk can be skipped without touching its bytes, plus the
// offset needed to load it when it cannot be skipped. One series in one
// tsfile owns an ordered (by StartTime) list of these.
type ChunkMetaData struct {
	MeasurementUID string
	Offset         int64
	NumPoints      int64
	StartTime      int64
	EndTime        int64
	DataType       DataType
	Version        int64
	Encoding       Encoding

	// DeletedAt is the modification watermark: points with Timestamp <=
	// DeletedAt are tombstoned and must not reach the caller. 0 means
	// nothing has been deleted from this chunk.
	DeletedAt int64

	Statistics *Statistics

	// Priority orders this chunk against others covering overlapping
	// time ranges when merged by PriorityMergeReader: higher wins ties.
	Priority int64

	// Loader resolves this metadata to its decoded Chunk. Left nil for
	// metadata constructed purely for statistics inspection (tests).
	Loader ChunkLoader
}

// Satisfies reports whether this chunk's summary statistics could
// possibly contain a point accepted by filter. A false result means the
// caller can skip loading the chunk entirely.
func (m *ChunkMetaData) Satisfies(filter Filter) bool {
	if filter == nil {
		return true
	}
	return filter.AcceptsStats(m.Statistics, m.StartTime, m.EndTime)
}

// IsDeletedAbove reports whether every point in this chunk at or below
// ts has been tombstoned, i.e. ts <= DeletedAt.
func (m *ChunkMetaData) IsDeletedAbove(ts int64) bool {
	return ts <= m.DeletedAt
}
