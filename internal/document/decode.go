package document

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// ErrTrailingData is returned when a payload holds more than one JSON value.
var ErrTrailingData = errors.New("document: trailing data after JSON value")

// Decode parses data into the ordered document model. Numbers are kept as
// json.Number so integer and float precision survive a round trip.
func Decode(data []byte) (any, error) {
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader is Decode over a stream. The stream must hold exactly one value.
func DecodeReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, errors.Wrap(err, "document: decode")
		}
		return nil, ErrTrailingData
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "document: decode")
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}

	switch delim {
	case '{':
		rec := NewRecord()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, errors.Wrap(err, "document: decode object key")
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, errors.Newf("document: unexpected object key %v", keyTok)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			rec.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, errors.Wrap(err, "document: decode object end")
		}
		return rec, nil
	case '[':
		items := make([]any, 0)
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, errors.Wrap(err, "document: decode array end")
		}
		return items, nil
	default:
		return nil, errors.Newf("document: unexpected delimiter %q", delim)
	}
}

// Encode renders v as compact JSON without HTML escaping.
func Encode(v any) ([]byte, error) {
	b, err := marshalValue(v)
	if err != nil {
		return nil, errors.Wrap(err, "document: encode")
	}
	return b, nil
}
