package document

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
	"time"

	"gopkg.in/inf.v0"
)

// DateKey wraps a date value inside a document: {"$date": <epoch millis>}
const DateKey = "$date"

var bigTen = big.NewInt(10)

// DecodeJSON decodes a JSON object keeping numbers as json.Number so no precision is lost
func DecodeJSON(data []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc map[string]interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ToDecimal converts a JSON number into a decimal. Returns false when value is not a number.
func ToDecimal(value interface{}) (*inf.Dec, bool) {
	var d *inf.Dec
	switch value := value.(type) {
	case json.Number:
		var ok bool
		d, ok = parseDecimal(value.String())
		if !ok {
			return nil, false
		}
	case *inf.Dec:
		if value == nil {
			return nil, false
		}
		d = new(inf.Dec).Set(value)
	case int:
		d = inf.NewDec(int64(value), 0)
	case int32:
		d = inf.NewDec(int64(value), 0)
	case int64:
		d = inf.NewDec(value, 0)
	case float32:
		return ToDecimal(json.Number(strconv.FormatFloat(float64(value), 'f', -1, 32)))
	case float64:
		return ToDecimal(json.Number(strconv.FormatFloat(value, 'f', -1, 64)))
	default:
		return nil, false
	}
	return NormalizeDecimal(d), true
}

// parseDecimal accepts the JSON number grammar, exponent included
func parseDecimal(s string) (*inf.Dec, bool) {
	mantissa, exponent := s, int64(0)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.ParseInt(s[i+1:], 10, 32)
		if err != nil {
			return nil, false
		}
		mantissa, exponent = s[:i], exp
	}
	d, ok := new(inf.Dec).SetString(mantissa)
	if !ok {
		return nil, false
	}
	return d.SetScale(d.Scale() - inf.Scale(exponent)), true
}

// NormalizeDecimal strips trailing zeros so that 1, 1.0 and 1.00 share one representation
func NormalizeDecimal(d *inf.Dec) *inf.Dec {
	unscaled := new(big.Int).Set(d.UnscaledBig())
	scale := d.Scale()
	if unscaled.Sign() == 0 {
		return inf.NewDec(0, 0)
	}
	mod := new(big.Int)
	for {
		quo, rem := new(big.Int).QuoRem(unscaled, bigTen, mod)
		if rem.Sign() != 0 {
			break
		}
		unscaled = quo
		scale--
	}
	return inf.NewDecBig(unscaled, scale)
}

// DecimalString returns the plain (non exponent) representation of a normalised decimal
func DecimalString(d *inf.Dec) string {
	if d.Scale() >= 0 {
		return d.String()
	}
	// Negative scale means trailing zeros were folded into the scale.
	return d.UnscaledBig().String() + strings.Repeat("0", int(-d.Scale()))
}

// AsDate returns the time held by a {"$date": millis} wrapper
func AsDate(value interface{}) (time.Time, bool) {
	m, ok := value.(map[string]interface{})
	if !ok || len(m) != 1 {
		return time.Time{}, false
	}
	raw, ok := m[DateKey]
	if !ok {
		return time.Time{}, false
	}
	d, ok := ToDecimal(raw)
	if !ok || d.Scale() > 0 {
		return time.Time{}, false
	}
	millis := d.UnscaledBig()
	if d.Scale() < 0 {
		millis = new(big.Int).Mul(millis, new(big.Int).Exp(bigTen, big.NewInt(int64(-d.Scale())), nil))
	}
	if !millis.IsInt64() {
		return time.Time{}, false
	}
	return time.UnixMilli(millis.Int64()).UTC(), true
}

// DateValue wraps t as a document date value
func DateValue(t time.Time) map[string]interface{} {
	return map[string]interface{}{DateKey: json.Number(big.NewInt(t.UnixMilli()).String())}
}

// DeepCopy copies a decoded JSON document so updates can be applied without touching the source
func DeepCopy(doc map[string]interface{}) map[string]interface{} {
	if doc == nil {
		return nil
	}
	return deepCopyValue(doc).(map[string]interface{})
}

func deepCopyValue(value interface{}) interface{} {
	switch value := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(value))
		for k, v := range value {
			result[k] = deepCopyValue(v)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(value))
		for i, v := range value {
			result[i] = deepCopyValue(v)
		}
		return result
	default:
		return value
	}
}

// normalize rewrites numbers into their normalised decimal form; the result is safe to marshal
// into canonical JSON since encoding/json sorts object keys.
func normalize(value interface{}) interface{} {
	switch value := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(value))
		for k, v := range value {
			result[k] = normalize(v)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(value))
		for i, v := range value {
			result[i] = normalize(v)
		}
		return result
	default:
		if d, ok := ToDecimal(value); ok {
			return json.Number(DecimalString(d))
		}
		return value
	}
}

// CanonicalJSON renders value with sorted object keys and normalised numbers
func CanonicalJSON(value interface{}) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(normalize(value)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
