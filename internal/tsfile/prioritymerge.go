package tsfile

import "container/heap"

// IPointReader is the point-at-a-time capability PriorityMergeReader
// merges over. A BatchReader is adapted to it by pointReaderFromBatches
// so every layer below (ChunkReader, FileSeriesReader) can feed the
// merge without the merge reader knowing about pages or chunks at all.
type IPointReader interface {
	HasNext() (bool, error)
	Current() (TimeValuePair, error)
	Advance() error
	Close() error
}

// pointReaderFromBatches adapts a BatchReader to IPointReader by
// pulling whole batches and walking their cursor one point at a time.
type pointReaderFromBatches struct {
	src   BatchReader
	batch *BatchData
}

// NewPointReader wraps src as an IPointReader.
func NewPointReader(src BatchReader) IPointReader {
	return &pointReaderFromBatches{src: src}
}

func (p *pointReaderFromBatches) prime() (bool, error) {
	for p.batch == nil || !p.batch.HasCurrent() {
		has, err := p.src.HasNextBatch()
		if err != nil {
			return false, err
		}
		if !has {
			p.batch = nil
			return false, nil
		}
		batch, err := p.src.NextBatch()
		if err != nil {
			return false, err
		}
		p.batch = batch
	}
	return true, nil
}

func (p *pointReaderFromBatches) HasNext() (bool, error) {
	return p.prime()
}

func (p *pointReaderFromBatches) Current() (TimeValuePair, error) {
	ok, err := p.prime()
	if err != nil {
		return TimeValuePair{}, err
	}
	if !ok {
		return TimeValuePair{}, newErr(KindCancelled, "pointReaderFromBatches.Current", nil)
	}
	return TimeValuePair{Timestamp: p.batch.CurrentTime(), Value: p.batch.CurrentValue()}, nil
}

func (p *pointReaderFromBatches) Advance() error {
	if p.batch != nil && p.batch.HasCurrent() {
		p.batch.Next()
	}
	return nil
}

func (p *pointReaderFromBatches) Close() error {
	return p.src.Close()
}

// mergeEntry is one live source parked in the merge heap: its next
// unconsumed point's timestamp, its priority, and the reader it came
// from. readerID breaks ties between equal priorities deterministically
// (lowest id first), matching spec §4.7's "stable" tie-break.
type mergeEntry struct {
	reader    IPointReader
	priority  int64
	readerID  int
	timestamp int64
}

type mergeHeap []*mergeEntry

func (h mergeHeap) Len() int { return len(h) }

// Less orders by ascending timestamp; on a tie, higher priority sorts
// first (it must win), and on a further tie, lower readerID sorts
// first for a deterministic, stable result.
func (h mergeHeap) Less(i, j int) bool {
	if h[i].timestamp != h[j].timestamp {
		return h[i].timestamp < h[j].timestamp
	}
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].readerID < h[j].readerID
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*mergeEntry)) }

func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// PriorityMergeReader merges any number of IPointReader sources by
// ascending timestamp; when two sources hold the same timestamp, the
// one with the higher priority wins and the others are discarded
// (shadowed), never emitted. Closing it closes every child reader.
type PriorityMergeReader struct {
	dataType DataType
	h        mergeHeap
	nextID   int
	closed   bool
}

// NewPriorityMergeReader returns an empty merge reader for a series of
// the given type. Sources are attached with AddReader before the first
// call to HasNext/HasNextBatch.
func NewPriorityMergeReader(dataType DataType) *PriorityMergeReader {
	return &PriorityMergeReader{dataType: dataType}
}

// AddReader primes reader and, if it holds at least one point, parks it
// in the heap under priority. A reader that is already exhausted is
// closed immediately rather than retained.
func (m *PriorityMergeReader) AddReader(reader IPointReader, priority int64) error {
	has, err := reader.HasNext()
	if err != nil {
		return err
	}
	if !has {
		return reader.Close()
	}
	tv, err := reader.Current()
	if err != nil {
		return err
	}
	id := m.nextID
	m.nextID++
	heap.Push(&m.h, &mergeEntry{reader: reader, priority: priority, readerID: id, timestamp: tv.Timestamp})
	return nil
}

// HasNext reports whether any source still holds an unconsumed point.
func (m *PriorityMergeReader) HasNext() bool {
	return m.h.Len() > 0
}

// PeekTimestamp returns the timestamp Next would emit without consuming
// it. Callers must check HasNext first; PeekTimestamp panics on an
// empty heap.
func (m *PriorityMergeReader) PeekTimestamp() int64 {
	return m.h[0].timestamp
}

// Next pops the earliest timestamp's highest-priority point, draining
// and discarding any other source parked at the same timestamp (they
// are shadowed by the winner), and advances every reader it touched.
func (m *PriorityMergeReader) Next() (TimeValuePair, error) {
	if m.h.Len() == 0 {
		return TimeValuePair{}, newErr(KindCancelled, "PriorityMergeReader.Next", nil)
	}
	winner := heap.Pop(&m.h).(*mergeEntry)
	t := winner.timestamp

	for m.h.Len() > 0 && m.h[0].timestamp == t {
		shadowed := heap.Pop(&m.h).(*mergeEntry)
		if err := m.advanceAndRequeue(shadowed); err != nil {
			return TimeValuePair{}, err
		}
	}

	tv, err := winner.reader.Current()
	if err != nil {
		return TimeValuePair{}, err
	}
	if err := m.advanceAndRequeue(winner); err != nil {
		return TimeValuePair{}, err
	}
	return tv, nil
}

// advanceAndRequeue moves entry's reader past its current point and,
// if it still has one, re-parks it in the heap with its new timestamp;
// otherwise the reader is closed.
func (m *PriorityMergeReader) advanceAndRequeue(entry *mergeEntry) error {
	if err := entry.reader.Advance(); err != nil {
		return err
	}
	has, err := entry.reader.HasNext()
	if err != nil {
		return err
	}
	if !has {
		return entry.reader.Close()
	}
	tv, err := entry.reader.Current()
	if err != nil {
		return err
	}
	entry.timestamp = tv.Timestamp
	heap.Push(&m.h, entry)
	return nil
}

// Close closes every still-live child reader. Idempotent.
func (m *PriorityMergeReader) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	var firstErr error
	for _, entry := range m.h {
		if err := entry.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.h = nil
	return firstErr
}

// HasNextBatch adapts PriorityMergeReader to BatchReader so it can sit
// directly under a SeriesReader facade or another merge stage.
func (m *PriorityMergeReader) HasNextBatch() (bool, error) {
	return m.HasNext(), nil
}

// NextBatch drains up to BatchSize merged points into one BatchData.
func (m *PriorityMergeReader) NextBatch() (*BatchData, error) {
	batch := NewBatchData(m.dataType)
	for batch.Length() < BatchSize && m.HasNext() {
		tv, err := m.Next()
		if err != nil {
			return nil, err
		}
		batch.PutAnyValue(tv.Timestamp, tv.Value)
	}
	return batch, nil
}
