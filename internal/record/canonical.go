package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainSnapshot separates snapshot digests from any other hash use.
const DomainSnapshot = "taskbench/snapshot/v1"

// MarshalCanonical produces canonical JSON for stored identities such as
// fingerprints and submission values.
//
// Object keys are sorted by UTF-16 code units, strings are NFC normalized
// and HTML characters are not escaped. Values that are not JSON-like
// containers or scalars are first round-tripped through encoding/json.
func MarshalCanonical(v any) ([]byte, error) {
	return marshal(v, true)
}

// MarshalExact is MarshalCanonical without NFC normalization. Strings keep
// their exact code points, so two encodings are equal only if every string
// in the values is equal. Change detection compares this form.
func MarshalExact(v any) ([]byte, error) {
	return marshal(v, false)
}

func marshal(v any, nfc bool) ([]byte, error) {
	e := canonicalEncoder{nfc: nfc}
	if err := e.write(v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type canonicalEncoder struct {
	buf bytes.Buffer
	nfc bool
}

func (e *canonicalEncoder) write(v any) error {
	buf := &e.buf
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return e.writeString(val)
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64:
		return writeFloat(buf, val)
	case float32:
		return writeFloat(buf, float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", val, err)
		}
		return writeFloat(buf, f)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.write(elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		return e.writeObject(val)
	case Snapshot:
		return e.writeObject(val)
	default:
		generic, err := toGeneric(v)
		if err != nil {
			return fmt.Errorf("unsupported type %T: %w", v, err)
		}
		return e.write(generic)
	}
	return nil
}

// writeFloat writes integral values without a fraction so that 5 and 5.0
// serialize identically.
func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v has no JSON form", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func (e *canonicalEncoder) writeString(s string) error {
	if e.nfc {
		s = norm.NFC.String(s)
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	e.buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func (e *canonicalEncoder) writeObject(obj map[string]any) error {
	buf := &e.buf
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := e.writeString(k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := e.write(obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// toGeneric converts arbitrary Go values into the JSON-like shapes handled
// by canonicalEncoder.write.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// compareUTF16 orders keys by UTF-16 code units. Go string comparison uses
// UTF-8 bytes, which differs for characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
