package tsfile

import (
	"fmt"

	"github.com/soltixdb/soltix/internal/compression"
)

// Encoding selects the per-chunk value/time codec, carried in the chunk
// header alongside DataType. The read path recognizes one canonical
// encoding per type family; unrecognized encodings fail with
// UnknownType rather than guessing.
type Encoding uint8

const (
	EncodingGorilla    Encoding = 0 // FLOAT, DOUBLE
	EncodingDelta      Encoding = 1 // INT32, INT64, and the time column
	EncodingBitmap     Encoding = 2 // BOOL
	EncodingDictionary Encoding = 3 // TEXT
)

// Decoder turns a page's encoded column bytes into an ordered run of
// typed values. Reset must be called between pages; a fresh Load
// primes the decoder with one page's worth of bytes.
//
// SetEndianness is part of the contract because the chunk header
// carries the field, but every decoder below is a no-op for it: see
// "Endianness" in DESIGN.md for why.
type Decoder interface {
	Reset()
	SetEndianness(e Endianness)
	Load(buf []byte, count int) error
	HasNext() bool
	Next() Value
}

// NewTimeDecoder returns the decoder used for a chunk's time column: the
// same delta+zigzag+varint codec used for INT64 value columns, since
// timestamps are themselves monotonically-biased int64s.
func NewTimeDecoder() Decoder {
	return &deltaDecoder{dataType: Int64}
}

// NewValueDecoder returns the decoder for a chunk's value column given
// its encoding and data type.
func NewValueDecoder(encoding Encoding, dataType DataType) (Decoder, error) {
	switch encoding {
	case EncodingGorilla:
		if dataType != Float && dataType != Double {
			return nil, newErr(KindUnknownType, "NewValueDecoder", fmt.Errorf("gorilla encoding used with %s", dataType))
		}
		return &gorillaDecoder{dataType: dataType}, nil
	case EncodingDelta:
		if dataType != Int32 && dataType != Int64 {
			return nil, newErr(KindUnknownType, "NewValueDecoder", fmt.Errorf("delta encoding used with %s", dataType))
		}
		return &deltaDecoder{dataType: dataType}, nil
	case EncodingBitmap:
		if dataType != Bool {
			return nil, newErr(KindUnknownType, "NewValueDecoder", fmt.Errorf("bitmap encoding used with %s", dataType))
		}
		return &boolDecoder{}, nil
	case EncodingDictionary:
		if dataType != Text {
			return nil, newErr(KindUnknownType, "NewValueDecoder", fmt.Errorf("dictionary encoding used with %s", dataType))
		}
		return &dictionaryDecoder{}, nil
	default:
		return nil, newErr(KindUnknownType, "NewValueDecoder", fmt.Errorf("unknown encoding %d", encoding))
	}
}

// gorillaDecoder adapts compression.GorillaEncoder's decode side (XOR
// bit-packed float64) to the streaming Decoder contract.
type gorillaDecoder struct {
	dataType DataType
	enc      compression.Float64Decoder
	values   []float64
	pos      int
}

func (d *gorillaDecoder) Reset() { d.values, d.pos = nil, 0 }

func (d *gorillaDecoder) SetEndianness(Endianness) {} // bitstream codec, no raw byte order to flip

func (d *gorillaDecoder) Load(buf []byte, count int) error {
	if d.enc == nil {
		d.enc = compression.NewGorillaEncoder()
	}
	vals, _, err := d.enc.DecodeFloat64(buf, count)
	if err != nil {
		return newErr(KindDecodeError, "gorillaDecoder.Load", err)
	}
	d.values = vals
	d.pos = 0
	return nil
}

func (d *gorillaDecoder) HasNext() bool { return d.pos < len(d.values) }

func (d *gorillaDecoder) Next() Value {
	v := d.values[d.pos]
	d.pos++
	if d.dataType == Float {
		return FloatValue(float32(v))
	}
	return DoubleValue(v)
}

// deltaDecoder adapts compression.DeltaEncoder's decode side
// (delta + zigzag + varint int64) to the streaming Decoder contract; it
// also serves as the time-column decoder.
type deltaDecoder struct {
	dataType DataType
	enc      compression.Int64Decoder
	values   []int64
	pos      int
}

func (d *deltaDecoder) Reset() { d.values, d.pos = nil, 0 }

func (d *deltaDecoder) SetEndianness(Endianness) {} // varint stream, no raw byte order to flip

func (d *deltaDecoder) Load(buf []byte, count int) error {
	if d.enc == nil {
		d.enc = compression.NewDeltaEncoder()
	}
	vals, _, err := d.enc.DecodeInt64(buf, count)
	if err != nil {
		return newErr(KindDecodeError, "deltaDecoder.Load", err)
	}
	d.values = vals
	d.pos = 0
	return nil
}

func (d *deltaDecoder) HasNext() bool { return d.pos < len(d.values) }

func (d *deltaDecoder) Next() Value {
	v := d.values[d.pos]
	d.pos++
	if d.dataType == Int32 {
		return Int32Value(int32(v))
	}
	return Int64Value(v)
}

// boolDecoder adapts compression.BoolEncoder's bitmap decode to the
// streaming Decoder contract.
type boolDecoder struct {
	enc    *compression.BoolEncoder
	values []bool
	pos    int
}

func (d *boolDecoder) Reset() { d.values, d.pos = nil, 0 }

func (d *boolDecoder) SetEndianness(Endianness) {} // one bit per value, no byte order to flip

func (d *boolDecoder) Load(buf []byte, count int) error {
	if d.enc == nil {
		d.enc = compression.NewBoolEncoder()
	}
	raw, err := d.enc.Decode(buf, count)
	if err != nil {
		return newErr(KindDecodeError, "boolDecoder.Load", err)
	}
	values := make([]bool, len(raw))
	for i, v := range raw {
		if v != nil {
			values[i] = v.(bool)
		}
	}
	d.values = values
	d.pos = 0
	return nil
}

func (d *boolDecoder) HasNext() bool { return d.pos < len(d.values) }

func (d *boolDecoder) Next() Value {
	v := d.values[d.pos]
	d.pos++
	return BoolValue(v)
}

// dictionaryDecoder adapts compression.DictionaryEncoder's decode side
// to the streaming Decoder contract.
type dictionaryDecoder struct {
	enc    compression.StringDecoder
	values []string
	pos    int
}

func (d *dictionaryDecoder) Reset() { d.values, d.pos = nil, 0 }

func (d *dictionaryDecoder) SetEndianness(Endianness) {} // dictionary indices are varint, no byte order to flip

func (d *dictionaryDecoder) Load(buf []byte, count int) error {
	if d.enc == nil {
		d.enc = compression.NewDictionaryEncoder()
	}
	vals, _, err := d.enc.DecodeStrings(buf, count)
	if err != nil {
		return newErr(KindDecodeError, "dictionaryDecoder.Load", err)
	}
	d.values = vals
	d.pos = 0
	return nil
}

func (d *dictionaryDecoder) HasNext() bool { return d.pos < len(d.values) }

func (d *dictionaryDecoder) Next() Value {
	v := d.values[d.pos]
	d.pos++
	return TextValue(v)
}
