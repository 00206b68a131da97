package tsfile

import (
	"github.com/soltixdb/soltix/internal/compression"
)

// ChunkReaderMode selects between ChunkReader's two page-pruning
// strategies. Both walk the same page stream; only page_satisfied
// differs.
type ChunkReaderMode int

const (
	// ModeScan keeps every page the filter's statistics check accepts.
	ModeScan ChunkReaderMode = iota
	// ModePointLookup keeps every page whose end time has not yet
	// passed the timestamp being looked up, ignoring the value filter
	// (point lookups want the exact point, not a filtered view of it).
	ModePointLookup
)

// ChunkReader iterates the pages of one loaded Chunk, pruning by each
// PageHeader's embedded statistics before decompression. It never
// re-reads a page once skipped or consumed.
type ChunkReader struct {
	chunk  *Chunk
	cursor int

	dataType   DataType
	compressor compression.Compressor
	filter     Filter

	timeDecoder  Decoder
	valueDecoder Decoder

	mode            ChunkReaderMode
	lookupTimestamp int64

	current *PageReader
}

// NewChunkReader builds a scan-mode reader over chunk. filter may be
// nil to accept every page.
func NewChunkReader(chunk *Chunk, filter Filter) (*ChunkReader, error) {
	return newChunkReader(chunk, filter, ModeScan)
}

// NewChunkReaderByTimestamp builds a point-lookup-mode reader over
// chunk; SetLookupTimestamp must be called with the sought timestamp
// before the first HasNextBatch.
func NewChunkReaderByTimestamp(chunk *Chunk) (*ChunkReader, error) {
	return newChunkReader(chunk, nil, ModePointLookup)
}

func newChunkReader(chunk *Chunk, filter Filter, mode ChunkReaderMode) (*ChunkReader, error) {
	compressor, err := compression.GetCompressor(chunk.Header.Compression)
	if err != nil {
		return nil, newErr(KindCorruptChunk, "NewChunkReader", err)
	}
	valueDecoder, err := NewValueDecoder(chunk.Header.Encoding, chunk.Header.DataType)
	if err != nil {
		return nil, err
	}
	return &ChunkReader{
		chunk:        chunk,
		dataType:     chunk.Header.DataType,
		compressor:   compressor,
		filter:       filter,
		timeDecoder:  NewTimeDecoder(),
		valueDecoder: valueDecoder,
		mode:         mode,
	}, nil
}

// SetLookupTimestamp updates the timestamp a ModePointLookup reader
// prunes pages against. Callers must supply non-decreasing timestamps
// across calls, per the monotonic point-lookup contract (§4.5); this
// reader does not itself validate that, its caller (FileSeriesReader)
// does.
func (r *ChunkReader) SetLookupTimestamp(ts int64) {
	r.lookupTimestamp = ts
}

// pageSatisfied implements page_satisfied for the reader's mode. In both
// modes the page's end time must be above the chunk's deletion watermark;
// in addition, in ModeScan the filter must accept the header's
// statistics, and in ModePointLookup the page's end time must reach the
// sought timestamp.
func (r *ChunkReader) pageSatisfied(header PageHeader) bool {
	if header.MaxTimestamp <= r.chunk.DeletedAt {
		return false
	}
	switch r.mode {
	case ModePointLookup:
		return header.MaxTimestamp >= r.lookupTimestamp
	default:
		if r.filter == nil {
			return true
		}
		return r.filter.AcceptsStats(header.Statistics, header.MinTimestamp, header.MaxTimestamp)
	}
}

// HasNextBatch reports whether another page remains that could yield a
// point. It skips, without decompressing, every page pageSatisfied
// rejects.
func (r *ChunkReader) HasNextBatch() (bool, error) {
	if r.current != nil {
		has, err := r.current.HasNextBatch()
		if err != nil {
			return false, err
		}
		if has {
			return true, nil
		}
		r.current = nil
	}

	for r.cursor < len(r.chunk.Body) {
		header, n, err := ParsePageHeader(r.chunk.Body[r.cursor:], r.dataType)
		if err != nil {
			return false, err
		}
		remaining := len(r.chunk.Body) - r.cursor - n
		if int(header.CompressedSize) > remaining {
			return false, newErr(KindCorruptChunk, "ChunkReader.HasNextBatch", nil)
		}
		pageStart := r.cursor + n
		pageEnd := pageStart + int(header.CompressedSize)

		if !r.pageSatisfied(header) {
			r.cursor = pageEnd
			continue
		}

		pr := NewPageReader(r.dataType, header, r.chunk.Body[pageStart:pageEnd], r.chunk.DeletedAt, r.compressor, r.timeDecoder, r.valueDecoder, r.scanFilter())
		r.cursor = pageEnd

		has, err := pr.HasNextBatch()
		if err != nil {
			return false, err
		}
		if has {
			r.current = pr
			return true, nil
		}
	}
	return false, nil
}

// scanFilter returns the value filter to apply inside PageReader: the
// configured Filter in scan mode, nil in point-lookup mode (the value
// filter never applies to a point lookup, only the deletion watermark
// does).
func (r *ChunkReader) scanFilter() Filter {
	if r.mode == ModePointLookup {
		return nil
	}
	return r.filter
}

// NextBatch decompresses and decodes the next satisfying page, skipping
// forward past any page whose batch turns out empty after point-level
// filtering (§4.3) until it finds a non-empty one or the chunk is
// exhausted.
func (r *ChunkReader) NextBatch() (*BatchData, error) {
	for {
		has, err := r.HasNextBatch()
		if err != nil {
			return nil, err
		}
		if !has {
			return NewBatchData(r.dataType), nil
		}
		batch, err := r.current.NextBatch()
		r.current = nil
		if err != nil {
			return nil, err
		}
		if !batch.IsEmpty() {
			return batch, nil
		}
	}
}

func (r *ChunkReader) Close() error {
	r.current = nil
	r.cursor = len(r.chunk.Body)
	return nil
}
