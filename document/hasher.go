package document

import (
	"crypto/md5"
	"encoding/base64"
	"strconv"

	e "github.com/datastax/cassandra-document-api/errors"
)

// Hasher produces the content hash used by the array_contains index. Scalars keep their value
// behind a type prefix, arrays and sub-documents are digested.
type Hasher interface {
	Hash(value interface{}) (string, error)
}

type DocValueHasher struct{}

func NewHasher() Hasher {
	return &DocValueHasher{}
}

func (h *DocValueHasher) Hash(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "Z", nil
	case bool:
		if v {
			return "B1", nil
		}
		return "B0", nil
	case string:
		return "S" + v, nil
	case []interface{}:
		return h.digest("A", v)
	case map[string]interface{}:
		if t, ok := AsDate(v); ok {
			return "T" + strconv.FormatInt(t.UnixMilli(), 10), nil
		}
		return h.digest("O", v)
	}
	if d, ok := ToDecimal(value); ok {
		return "N" + DecimalString(d), nil
	}
	return "", e.Errorf(e.UnsupportedFilterDataType, nil, "unsupported value type %T", value)
}

func (h *DocValueHasher) digest(prefix string, value interface{}) (string, error) {
	canonical, err := CanonicalJSON(value)
	if err != nil {
		return "", e.Errorf(e.UnsupportedFilterDataType, err, "unable to hash value")
	}
	sum := md5.Sum([]byte(canonical))
	return prefix + base64.StdEncoding.EncodeToString(sum[:]), nil
}

// HashEntry builds the "<path> <hash>" value stored in array_contains
func HashEntry(h Hasher, path string, value interface{}) (string, error) {
	hash, err := h.Hash(value)
	if err != nil {
		return "", err
	}
	return path + " " + hash, nil
}
