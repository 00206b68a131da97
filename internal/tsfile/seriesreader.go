package tsfile

import "github.com/soltixdb/soltix/internal/logging"

var seriesReaderLog = logging.Global().With("component", "tsfile.seriesreader")

// seriesReaderState implements the INIT→READY→EOF/FAILED state machine
// of spec §4.9: once FAILED, every subsequent call fails fast without
// re-attempting the pipeline.
type seriesReaderState int

const (
	stateInit seriesReaderState = iota
	stateReady
	stateEOF
	stateFailed
)

// SeriesReader is the facade (C9) a query actually drives: it combines
// a sequential-file reader with an unsequential merge reader behind one
// BatchReader, picking the smaller current timestamp from either side
// on every point and preferring the unsequential side on a tie (it
// always carries the newer version, per §4.9).
type SeriesReader struct {
	dataType DataType
	seq      IPointReader
	unseq    IPointReader
	state    seriesReaderState
	closed   bool
}

// NewSeriesReader wraps a sequential-file BatchReader (scan-mode
// FileSeriesReader) and an unsequential BatchReader (an
// UnseqResourceMergeReader, or PriorityMergeReader directly) behind the
// facade. Both sides are assumed to already apply their own
// modifications and filter (§4.9: "Modifications already applied per
// 4.8; sequential files apply theirs at chunk-metadata load time
// through the same rule").
func NewSeriesReader(dataType DataType, sequential, unsequential BatchReader) *SeriesReader {
	return &SeriesReader{
		dataType: dataType,
		seq:      NewPointReader(sequential),
		unseq:    NewPointReader(unsequential),
		state:    stateInit,
	}
}

func (s *SeriesReader) fail(op string, err error) error {
	s.state = stateFailed
	seriesReaderLog.Error("series read failed", "op", op, "error", err)
	return err
}

// HasNextBatch reports whether either side still holds an unconsumed
// point. Once both are exhausted the reader transitions to EOF and
// every later call returns false without touching either side again.
func (s *SeriesReader) HasNextBatch() (bool, error) {
	switch s.state {
	case stateFailed:
		return false, newErr(KindCancelled, "SeriesReader.HasNextBatch", nil)
	case stateEOF:
		return false, nil
	}

	seqHas, err := s.seq.HasNext()
	if err != nil {
		return false, s.fail("HasNextBatch.seq", err)
	}
	unseqHas, err := s.unseq.HasNext()
	if err != nil {
		return false, s.fail("HasNextBatch.unseq", err)
	}
	if !seqHas && !unseqHas {
		s.state = stateEOF
		return false, nil
	}
	s.state = stateReady
	return true, nil
}

// NextBatch drains up to BatchSize points, merging the two sides point
// by point so the combined output stays non-decreasing even across a
// batch boundary.
func (s *SeriesReader) NextBatch() (*BatchData, error) {
	has, err := s.HasNextBatch()
	if err != nil {
		return nil, err
	}
	if !has {
		return NewBatchData(s.dataType), nil
	}

	batch := NewBatchData(s.dataType)
	for batch.Length() < BatchSize {
		seqHas, err := s.seq.HasNext()
		if err != nil {
			return nil, s.fail("NextBatch.seq", err)
		}
		unseqHas, err := s.unseq.HasNext()
		if err != nil {
			return nil, s.fail("NextBatch.unseq", err)
		}
		if !seqHas && !unseqHas {
			s.state = stateEOF
			break
		}

		switch {
		case seqHas && unseqHas:
			seqTV, err := s.seq.Current()
			if err != nil {
				return nil, s.fail("NextBatch.seq.Current", err)
			}
			unseqTV, err := s.unseq.Current()
			if err != nil {
				return nil, s.fail("NextBatch.unseq.Current", err)
			}
			switch {
			case unseqTV.Timestamp <= seqTV.Timestamp:
				batch.PutAnyValue(unseqTV.Timestamp, unseqTV.Value)
				if err := s.unseq.Advance(); err != nil {
					return nil, s.fail("NextBatch.unseq.Advance", err)
				}
				if unseqTV.Timestamp == seqTV.Timestamp {
					// The sequential side's point at this timestamp is
					// shadowed by the unsequential (newer) value:
					// discard it without emitting.
					if err := s.seq.Advance(); err != nil {
						return nil, s.fail("NextBatch.seq.Advance", err)
					}
				}
			default:
				batch.PutAnyValue(seqTV.Timestamp, seqTV.Value)
				if err := s.seq.Advance(); err != nil {
					return nil, s.fail("NextBatch.seq.Advance", err)
				}
			}
		case unseqHas:
			tv, err := s.unseq.Current()
			if err != nil {
				return nil, s.fail("NextBatch.unseq.Current", err)
			}
			batch.PutAnyValue(tv.Timestamp, tv.Value)
			if err := s.unseq.Advance(); err != nil {
				return nil, s.fail("NextBatch.unseq.Advance", err)
			}
		default:
			tv, err := s.seq.Current()
			if err != nil {
				return nil, s.fail("NextBatch.seq.Current", err)
			}
			batch.PutAnyValue(tv.Timestamp, tv.Value)
			if err := s.seq.Advance(); err != nil {
				return nil, s.fail("NextBatch.seq.Advance", err)
			}
		}
	}
	return batch, nil
}

// Close releases both sides. Idempotent.
func (s *SeriesReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err1 := s.seq.Close()
	err2 := s.unseq.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
