package tsfile

// FileSeriesReader iterates the chunks of one series within one file,
// pruning whole chunks by their ChunkMetaData.Statistics before ever
// loading their bytes. Chunks are visited in the order metas supplies
// them, which callers are required to sort by StartTime ascending
// (spec §4.8 step 7) before construction.
type FileSeriesReader struct {
	dataType DataType
	metas    []*ChunkMetaData
	cursor   int
	filter   Filter

	chunkReader  *ChunkReader
	currentBatch *BatchData

	lookedUp   bool
	lastLookup int64
}

// NewFileSeriesReader builds a scan-mode reader over metas, which must
// already be restricted to one series and one file.
func NewFileSeriesReader(dataType DataType, metas []*ChunkMetaData, filter Filter) *FileSeriesReader {
	return &FileSeriesReader{dataType: dataType, metas: metas, filter: filter}
}

// HasNext reports whether another point remains, advancing past any
// chunk the filter rejects on its ChunkMetaData.Statistics alone.
func (r *FileSeriesReader) HasNext() (bool, error) {
	if r.chunkReader != nil {
		has, err := r.chunkReader.HasNextBatch()
		if err != nil {
			return false, err
		}
		if has {
			return true, nil
		}
		r.chunkReader = nil
	}

	for r.cursor < len(r.metas) {
		meta := r.metas[r.cursor]
		r.cursor++
		if !meta.Satisfies(r.filter) {
			continue
		}
		chunk, err := meta.Loader.Load(meta)
		if err != nil {
			return false, err
		}
		cr, err := NewChunkReader(chunk, r.filter)
		if err != nil {
			return false, err
		}
		has, err := cr.HasNextBatch()
		if err != nil {
			return false, err
		}
		if has {
			r.chunkReader = cr
			return true, nil
		}
	}
	return false, nil
}

// NextBatch returns the next non-empty batch, or an empty BatchData
// once every chunk is exhausted.
func (r *FileSeriesReader) NextBatch() (*BatchData, error) {
	has, err := r.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return NewBatchData(r.dataType), nil
	}
	return r.chunkReader.NextBatch()
}

// ValueAt implements the point-lookup algorithm of spec §4.5. Successive
// calls must supply non-decreasing ts; a decreasing ts fails with
// OutOfOrderLookup. A nil, nil result means ts is absent from the
// series (it falls strictly between the timestamps the data actually
// has, or past the end of all chunks).
func (r *FileSeriesReader) ValueAt(ts int64) (*Value, error) {
	if r.lookedUp && ts < r.lastLookup {
		return nil, newErr(KindOutOfOrderLookup, "FileSeriesReader.ValueAt", nil)
	}
	r.lookedUp = true
	r.lastLookup = ts

	for {
		if r.chunkReader == nil {
			found, err := r.advanceToChunkCovering(ts)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, nil
			}
		} else {
			// Reused across calls: the still-open chunk reader's page
			// pruning must track the advancing lookup, not just the
			// timestamp that opened it.
			r.chunkReader.SetLookupTimestamp(ts)
		}

		if r.currentBatch == nil || !r.currentBatch.HasCurrent() {
			has, err := r.chunkReader.HasNextBatch()
			if err != nil {
				return nil, err
			}
			if !has {
				r.chunkReader = nil
				r.currentBatch = nil
				continue
			}
			batch, err := r.chunkReader.NextBatch()
			if err != nil {
				return nil, err
			}
			if batch.IsEmpty() {
				continue
			}
			r.currentBatch = batch
		}

		for r.currentBatch.HasCurrent() && r.currentBatch.CurrentTime() < ts {
			r.currentBatch.Next()
		}
		if !r.currentBatch.HasCurrent() {
			r.currentBatch = nil
			continue
		}
		if r.currentBatch.CurrentTime() == ts {
			v := r.currentBatch.CurrentValue()
			r.currentBatch.Next()
			return &v, nil
		}
		return nil, nil
	}
}

// advanceToChunkCovering scans forward from the cursor for the next
// chunk whose end time reaches ts, opens a point-lookup ChunkReader on
// it, and propagates ts. It returns false once metas is exhausted.
func (r *FileSeriesReader) advanceToChunkCovering(ts int64) (bool, error) {
	for r.cursor < len(r.metas) {
		meta := r.metas[r.cursor]
		r.cursor++
		if meta.EndTime < ts {
			continue
		}
		chunk, err := meta.Loader.Load(meta)
		if err != nil {
			return false, err
		}
		cr, err := NewChunkReaderByTimestamp(chunk)
		if err != nil {
			return false, err
		}
		cr.SetLookupTimestamp(ts)
		r.chunkReader = cr
		r.currentBatch = nil
		return true, nil
	}
	return false, nil
}

func (r *FileSeriesReader) Close() error {
	if r.chunkReader != nil {
		r.chunkReader.Close()
		r.chunkReader = nil
	}
	r.cursor = len(r.metas)
	return nil
}
