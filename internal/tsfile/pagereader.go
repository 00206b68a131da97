package tsfile

import (
	"encoding/binary"

	"github.com/soltixdb/soltix/internal/compression"
)

// PageHeader describes one page within a chunk's body, in the bit-exact
// layout of spec §6: uncompressed/compressed size, a Statistics blob,
// point count, then max/min timestamp. PointCount is required up front
// because the compression decoders take an explicit count rather than
// self-delimiting their output.
type PageHeader struct {
	UncompressedSize int32
	CompressedSize   int32
	Statistics       *Statistics
	PointCount       int32
	MaxTimestamp     int64
	MinTimestamp     int64
}

// ParsePageHeader decodes one PageHeader from the front of buf and
// returns the number of bytes consumed. dataType selects how the
// embedded Statistics blob is interpreted.
func ParsePageHeader(buf []byte, dataType DataType) (PageHeader, int, error) {
	if len(buf) < 8 {
		return PageHeader{}, 0, newErr(KindCorruptChunk, "ParsePageHeader", nil)
	}
	h := PageHeader{
		UncompressedSize: int32(binary.LittleEndian.Uint32(buf[0:4])),
		CompressedSize:   int32(binary.LittleEndian.Uint32(buf[4:8])),
	}
	offset := 8

	stats, n, err := DeserializeStatistics(buf[offset:], dataType)
	if err != nil {
		return PageHeader{}, 0, err
	}
	if !stats.IsEmpty() {
		h.Statistics = stats
	}
	offset += n

	if len(buf) < offset+20 {
		return PageHeader{}, 0, newErr(KindCorruptChunk, "ParsePageHeader", nil)
	}
	h.PointCount = int32(binary.LittleEndian.Uint32(buf[offset : offset+4]))
	offset += 4
	h.MaxTimestamp = int64(binary.LittleEndian.Uint64(buf[offset : offset+8]))
	offset += 8
	h.MinTimestamp = int64(binary.LittleEndian.Uint64(buf[offset : offset+8]))
	offset += 8

	if h.CompressedSize < 0 || h.UncompressedSize < 0 {
		return PageHeader{}, 0, newErr(KindCorruptChunk, "ParsePageHeader", nil)
	}
	return h, offset, nil
}

// PageReader decodes one page's compressed bytes into a single
// BatchData. A Filter's statistics pruning is applied before
// decompression is attempted; the deletion watermark and the per-point
// filter are applied to each decoded point. A page yields at
// most one batch; HasNextBatch becomes permanently false after it is
// produced or skipped.
type PageReader struct {
	dataType  DataType
	startTime int64
	endTime   int64
	stats     *Statistics
	deletedAt int64
	filter    Filter

	compressed []byte
	pointCount int32
	compressor compression.Compressor

	timeDecoder  Decoder
	valueDecoder Decoder

	consumed bool
}

// NewPageReader builds a reader for one page. compressed is the page's
// compressed body (time block + value block, once decompressed).
// header.MinTimestamp/MaxTimestamp bound the page and are consulted by
// Filter.AcceptsStats even when the page carries no Statistics blob.
func NewPageReader(
	dataType DataType,
	header PageHeader,
	compressed []byte,
	deletedAt int64,
	compressor compression.Compressor,
	timeDecoder, valueDecoder Decoder,
	filter Filter,
) *PageReader {
	return &PageReader{
		dataType:     dataType,
		startTime:    header.MinTimestamp,
		endTime:      header.MaxTimestamp,
		stats:        header.Statistics,
		deletedAt:    deletedAt,
		filter:       filter,
		compressed:   compressed,
		pointCount:   header.PointCount,
		compressor:   compressor,
		timeDecoder:  timeDecoder,
		valueDecoder: valueDecoder,
	}
}

func (p *PageReader) HasNextBatch() (bool, error) {
	if p.consumed {
		return false, nil
	}
	if p.filter != nil && !p.filter.AcceptsStats(p.stats, p.startTime, p.endTime) {
		p.consumed = true
		return false, nil
	}
	return true, nil
}

// NextBatch decompresses the page, decodes the time and value columns,
// and returns the points that survive the deletion watermark and
// per-point filter evaluation. Called at most once per page.
func (p *PageReader) NextBatch() (*BatchData, error) {
	if p.consumed {
		return nil, newErr(KindCancelled, "PageReader.NextBatch", nil)
	}
	p.consumed = true

	raw, err := p.compressor.Decompress(p.compressed)
	if err != nil {
		return nil, newErr(KindCorruptChunk, "PageReader.NextBatch", err)
	}
	if len(raw) < 4 {
		return nil, newErr(KindCorruptChunk, "PageReader.NextBatch", nil)
	}
	timeLen := int(binary.LittleEndian.Uint32(raw[0:4]))
	if timeLen < 0 || 4+timeLen > len(raw) {
		return nil, newErr(KindCorruptChunk, "PageReader.NextBatch", nil)
	}
	timeBytes := raw[4 : 4+timeLen]
	valueBytes := raw[4+timeLen:]

	p.timeDecoder.Reset()
	if err := p.timeDecoder.Load(timeBytes, int(p.pointCount)); err != nil {
		return nil, err
	}
	p.valueDecoder.Reset()
	if err := p.valueDecoder.Load(valueBytes, int(p.pointCount)); err != nil {
		return nil, err
	}

	batch := NewBatchData(p.dataType)
	for p.timeDecoder.HasNext() {
		if !p.valueDecoder.HasNext() {
			return nil, newErr(KindCorruptChunk, "PageReader.NextBatch", nil)
		}
		ts := p.timeDecoder.Next().AsInt64()
		v := p.valueDecoder.Next()

		if ts <= p.deletedAt {
			continue
		}
		if p.filter != nil && !p.filter.AcceptsPoint(ts, v) {
			continue
		}
		batch.PutAnyValue(ts, v)
	}
	return batch, nil
}

func (p *PageReader) Close() error {
	p.consumed = true
	return nil
}
