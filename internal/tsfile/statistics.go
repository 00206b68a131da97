package tsfile

import (
	"encoding/binary"
	"math"
)

// statSlot identifies one field within the serialized statistics blob.
// Slot order is fixed by the wire format: min=0, max=1, first=2, last=3,
// sum=4.
type statSlot int16

const (
	slotMin  statSlot = 0
	slotMax  statSlot = 1
	slotFirst statSlot = 2
	slotLast statSlot = 3
	slotSum  statSlot = 4
)

// legacy slot names, recognized on read for backward compatibility with
// files written before the slot-id layout existed.
var legacySlotNames = map[string]statSlot{
	"min_value": slotMin,
	"max_value": slotMax,
	"first":     slotFirst,
	"last":      slotLast,
	"sum":       slotSum,
}

// Statistics summarizes one column (page or chunk) of a single type:
// min/max/first/last/sum/count. It is the unit of pruning consulted by
// Filter.AcceptsStats before a page or chunk is decoded.
type Statistics struct {
	dataType DataType
	empty    bool
	count    int64
	min      Value
	max      Value
	first    Value
	last     Value
	sum      float64
}

// NewStatistics returns an empty Statistics for the given column type.
func NewStatistics(dataType DataType) *Statistics {
	return &Statistics{dataType: dataType, empty: true}
}

func (s *Statistics) DataType() DataType { return s.dataType }
func (s *Statistics) IsEmpty() bool      { return s.empty }
func (s *Statistics) Count() int64       { return s.count }
func (s *Statistics) Min() Value         { return s.min }
func (s *Statistics) Max() Value         { return s.max }
func (s *Statistics) First() Value       { return s.first }
func (s *Statistics) Last() Value        { return s.last }
func (s *Statistics) Sum() float64       { return s.sum }

// Update folds one value into the summary. Values must be supplied in
// the order they occur in the page/chunk: First is latched on the first
// call and never overwritten; Last is overwritten on every call.
func (s *Statistics) Update(v Value) {
	if v.Type() != s.dataType {
		panic("tsfile: Statistics.Update type mismatch")
	}
	if s.empty {
		s.min = v
		s.max = v
		s.first = v
		s.empty = false
	} else {
		if v.Less(s.min) {
			s.min = v
		}
		if s.max.Less(v) {
			s.max = v
		}
	}
	s.last = v
	if f, ok := v.Float64(); ok {
		s.sum += f
	}
	s.count++
}

// UpdateBatch folds an ordered run of values into the summary.
func (s *Statistics) UpdateBatch(values []Value) {
	for _, v := range values {
		s.Update(v)
	}
}

// Merge widens this summary with another of the same type. Callers are
// required to merge in chronological order (earliest chunk/page first):
// First is kept from whichever side is non-empty and earliest (this
// side, if already populated), Last always takes the incoming side's
// Last, matching a reader that folds chunks in ascending start-time
// order. See DESIGN.md for why Merge does not take explicit timestamps.
func (s *Statistics) Merge(other *Statistics) error {
	if other == nil || other.empty {
		return nil
	}
	if !s.empty && other.dataType != s.dataType {
		return newErr(KindStatisticsTypeMismatch, "Statistics.Merge", nil)
	}
	if s.empty {
		*s = Statistics{
			dataType: other.dataType,
			empty:    false,
			count:    other.count,
			min:      other.min,
			max:      other.max,
			first:    other.first,
			last:     other.last,
			sum:      other.sum,
		}
		return nil
	}

	if other.min.Less(s.min) {
		s.min = other.min
	}
	if s.max.Less(other.max) {
		s.max = other.max
	}
	s.last = other.last
	s.sum += other.sum
	s.count += other.count
	return nil
}

// SizeOfDatum returns the fixed byte width of one value of this column's
// type, or -1 for a variable-length (TEXT) column.
func (s *Statistics) SizeOfDatum() int { return s.dataType.SizeOfDatum() }

// hasSum reports whether this column's type accumulates a numeric sum.
func (s *Statistics) hasSum() bool {
	switch s.dataType {
	case Int32, Int64, Float, Double:
		return true
	default:
		return false
	}
}

// SerializedSize computes the spec's accounting formula for a statistics
// blob's size: 0 for an empty statistics object, 4*datumSize+8 for a
// fixed-width type, or 4*4 + sum-of-value-lengths + 8 for a
// variable-length type (the trailing 8 is always the serialized sum).
// This is the raw value size the spec accounts for, not len(Serialize()):
// Serialize additionally frames each entry with a 2-byte slot id and a
// 4-byte length prefix, so its actual output is larger than this number.
func (s *Statistics) SerializedSize() int {
	if s.empty {
		return 0
	}
	datumSize := s.SizeOfDatum()
	if datumSize != -1 {
		return 4*datumSize + 8
	}
	return 4*4 + len(s.min.AsText()) + len(s.max.AsText()) + len(s.first.AsText()) + len(s.last.AsText()) + 8
}

// Serialize encodes the statistics as a count-prefixed array of
// (slot_id, length-prefixed bytes) entries, per §6's "current" layout.
func (s *Statistics) Serialize() []byte {
	if s.empty {
		return nil
	}

	entries := [][2]interface{}{
		{slotMin, s.min},
		{slotMax, s.max},
		{slotFirst, s.first},
		{slotLast, s.last},
	}

	buf := make([]byte, 4)
	count := int32(len(entries))
	if s.hasSum() {
		count++
	}
	binary.LittleEndian.PutUint32(buf, uint32(count))

	for _, e := range entries {
		slot := e[0].(statSlot)
		v := e[1].(Value)
		buf = appendSlot(buf, slot, encodeValue(v))
	}
	if s.hasSum() {
		sumBuf := make([]byte, 8)
		binary.LittleEndian.PutUint64(sumBuf, math.Float64bits(s.sum))
		buf = appendSlot(buf, slotSum, sumBuf)
	}
	return buf
}

func appendSlot(buf []byte, slot statSlot, payload []byte) []byte {
	hdr := make([]byte, 6)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(slot))
	binary.LittleEndian.PutUint32(hdr[2:6], uint32(len(payload)))
	buf = append(buf, hdr...)
	buf = append(buf, payload...)
	return buf
}

func encodeValue(v Value) []byte {
	switch v.Type() {
	case Bool:
		if v.AsBool() {
			return []byte{1}
		}
		return []byte{0}
	case Int32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v.AsInt32()))
		return b
	case Int64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(v.AsInt64()))
		return b
	case Float:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(v.AsFloat32()))
		return b
	case Double:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(v.AsFloat64()))
		return b
	case Text:
		return []byte(v.AsText())
	default:
		return nil
	}
}

func decodeValue(dt DataType, payload []byte) (Value, error) {
	switch dt {
	case Bool:
		if len(payload) < 1 {
			return Value{}, newErr(KindCorruptChunk, "decodeValue", nil)
		}
		return BoolValue(payload[0] != 0), nil
	case Int32:
		if len(payload) < 4 {
			return Value{}, newErr(KindCorruptChunk, "decodeValue", nil)
		}
		return Int32Value(int32(binary.LittleEndian.Uint32(payload))), nil
	case Int64:
		if len(payload) < 8 {
			return Value{}, newErr(KindCorruptChunk, "decodeValue", nil)
		}
		return Int64Value(int64(binary.LittleEndian.Uint64(payload))), nil
	case Float:
		if len(payload) < 4 {
			return Value{}, newErr(KindCorruptChunk, "decodeValue", nil)
		}
		return FloatValue(math.Float32frombits(binary.LittleEndian.Uint32(payload))), nil
	case Double:
		if len(payload) < 8 {
			return Value{}, newErr(KindCorruptChunk, "decodeValue", nil)
		}
		return DoubleValue(math.Float64frombits(binary.LittleEndian.Uint64(payload))), nil
	case Text:
		return TextValue(string(payload)), nil
	default:
		return Value{}, newErr(KindUnknownType, "decodeValue", nil)
	}
}

// DeserializeStatistics decodes a Statistics blob of the given column
// type, accepting both the current slot-id layout and the legacy
// named-key layout. It returns the decoded statistics and the number of
// bytes consumed from data.
func DeserializeStatistics(data []byte, dataType DataType) (*Statistics, int, error) {
	if len(data) < 4 {
		return nil, 0, newErr(KindCorruptChunk, "DeserializeStatistics", nil)
	}
	count := int32(binary.LittleEndian.Uint32(data))
	offset := 4
	if count == 0 {
		return NewStatistics(dataType), offset, nil
	}

	legacy := looksLikeLegacyName(data[offset:])

	s := NewStatistics(dataType)
	s.empty = false

	for i := int32(0); i < count; i++ {
		var slot statSlot
		if legacy {
			name, n, err := readLengthPrefixedString(data[offset:])
			if err != nil {
				return nil, 0, err
			}
			offset += n
			var ok bool
			slot, ok = legacySlotNames[name]
			if !ok {
				return nil, 0, newErr(KindCorruptChunk, "DeserializeStatistics", nil)
			}
		} else {
			if len(data) < offset+2 {
				return nil, 0, newErr(KindCorruptChunk, "DeserializeStatistics", nil)
			}
			slot = statSlot(binary.LittleEndian.Uint16(data[offset:]))
			offset += 2
		}

		if len(data) < offset+4 {
			return nil, 0, newErr(KindCorruptChunk, "DeserializeStatistics", nil)
		}
		length := int(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		if length < 0 || len(data) < offset+length {
			return nil, 0, newErr(KindCorruptChunk, "DeserializeStatistics", nil)
		}
		payload := data[offset : offset+length]
		offset += length

		switch slot {
		case slotSum:
			if length < 8 {
				return nil, 0, newErr(KindCorruptChunk, "DeserializeStatistics", nil)
			}
			s.sum = math.Float64frombits(binary.LittleEndian.Uint64(payload))
		case slotMin, slotMax, slotFirst, slotLast:
			v, err := decodeValue(dataType, payload)
			if err != nil {
				return nil, 0, err
			}
			switch slot {
			case slotMin:
				s.min = v
			case slotMax:
				s.max = v
			case slotFirst:
				s.first = v
			case slotLast:
				s.last = v
			}
		default:
			return nil, 0, newErr(KindCorruptChunk, "DeserializeStatistics", nil)
		}
	}

	return s, offset, nil
}

// looksLikeLegacyName peeks the first entry's key bytes: in the legacy
// layout it is a length-prefixed UTF-8 string equal to one of the known
// field names; in the slot-id layout the first two bytes are a small
// integer that will not decode to a plausible string length.
func looksLikeLegacyName(rest []byte) bool {
	name, _, err := readLengthPrefixedString(rest)
	if err != nil {
		return false
	}
	_, ok := legacySlotNames[name]
	return ok
}

func readLengthPrefixedString(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, newErr(KindCorruptChunk, "readLengthPrefixedString", nil)
	}
	length := int(binary.LittleEndian.Uint32(data))
	if length < 0 || length > len(data)-4 || length > 64 {
		return "", 0, newErr(KindCorruptChunk, "readLengthPrefixedString", nil)
	}
	return string(data[4 : 4+length]), 4 + length, nil
}
