// Package tsfile implements the read path of the columnar time-series file
// engine: chunk/page decode, statistics-driven pruning, and priority merge
// across sequential files, unsequential files, and unflushed memory.
package tsfile

import "fmt"

// DataType is the fixed type of a measurement series, matching the wire
// type codes of the chunk header.
type DataType uint8

const (
	Bool DataType = iota
	Int32
	Int64
	Float
	Double
	Text
)

func (t DataType) String() string {
	switch t {
	case Bool:
		return "BOOL"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case Text:
		return "TEXT"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// SizeOfDatum returns the fixed on-wire byte width of one value of this
// type, or -1 if the type is variable-length.
func (t DataType) SizeOfDatum() int {
	switch t {
	case Bool:
		return 1
	case Int32, Float:
		return 4
	case Int64, Double:
		return 8
	case Text:
		return -1
	default:
		return -1
	}
}

// Endianness selects the byte order chunk headers were written with.
type Endianness uint8

const (
	BigEndian Endianness = iota
	LittleEndian
)

// Value is a tagged union over the six supported data types. It is the Go
// analogue of the source's per-type boxed value ("Typed" in the spec).
type Value struct {
	typ DataType
	i   int64
	f   float64
	b   bool
	s   string
}

func BoolValue(v bool) Value { return Value{typ: Bool, b: v} }
func Int32Value(v int32) Value { return Value{typ: Int32, i: int64(v)} }
func Int64Value(v int64) Value { return Value{typ: Int64, i: v} }
func FloatValue(v float32) Value { return Value{typ: Float, f: float64(v)} }
func DoubleValue(v float64) Value { return Value{typ: Double, f: v} }
func TextValue(v string) Value { return Value{typ: Text, s: v} }

func (v Value) Type() DataType { return v.typ }

func (v Value) AsBool() bool {
	if v.typ != Bool {
		panic(fmt.Sprintf("tsfile: AsBool on %s value", v.typ))
	}
	return v.b
}

func (v Value) AsInt32() int32 {
	if v.typ != Int32 {
		panic(fmt.Sprintf("tsfile: AsInt32 on %s value", v.typ))
	}
	return int32(v.i)
}

func (v Value) AsInt64() int64 {
	if v.typ != Int64 {
		panic(fmt.Sprintf("tsfile: AsInt64 on %s value", v.typ))
	}
	return v.i
}

func (v Value) AsFloat32() float32 {
	if v.typ != Float {
		panic(fmt.Sprintf("tsfile: AsFloat32 on %s value", v.typ))
	}
	return float32(v.f)
}

func (v Value) AsFloat64() float64 {
	if v.typ != Double {
		panic(fmt.Sprintf("tsfile: AsFloat64 on %s value", v.typ))
	}
	return v.f
}

func (v Value) AsText() string {
	if v.typ != Text {
		panic(fmt.Sprintf("tsfile: AsText on %s value", v.typ))
	}
	return v.s
}

// Float64 returns the value widened to float64, for numeric types only.
// Used by Statistics.Sum accumulation, which is type-agnostic across the
// four numeric types.
func (v Value) Float64() (float64, bool) {
	switch v.typ {
	case Int32, Int64:
		return float64(v.i), true
	case Float, Double:
		return v.f, true
	default:
		return 0, false
	}
}

// Less reports whether v < other, for the same DataType. Used by
// Statistics.Update to maintain min/max.
func (v Value) Less(other Value) bool {
	switch v.typ {
	case Bool:
		return !v.b && other.b
	case Int32, Int64:
		return v.i < other.i
	case Float, Double:
		return v.f < other.f
	case Text:
		return v.s < other.s
	default:
		return false
	}
}

func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case Bool:
		return v.b == other.b
	case Int32, Int64:
		return v.i == other.i
	case Float, Double:
		return v.f == other.f
	case Text:
		return v.s == other.s
	default:
		return false
	}
}

// TimeValuePair is a single decoded point.
type TimeValuePair struct {
	Timestamp int64
	Value     Value
}
