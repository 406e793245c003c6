package document

import (
	"encoding/json"
	"fmt"
	"strconv"

	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/google/uuid"
)

type IDType int8

const (
	IDTypeString IDType = iota + 1
	IDTypeNumber
	IDTypeBoolean
	IDTypeNull
)

// ID is a typed document id, persisted as the (tinyint, text) key tuple
type ID struct {
	Type  IDType
	Value string
}

// NewID creates an id from a decoded JSON value
func NewID(value interface{}) (ID, error) {
	switch v := value.(type) {
	case nil:
		return ID{Type: IDTypeNull}, nil
	case string:
		return ID{Type: IDTypeString, Value: v}, nil
	case bool:
		return ID{Type: IDTypeBoolean, Value: strconv.FormatBool(v)}, nil
	}
	if d, ok := ToDecimal(value); ok {
		return ID{Type: IDTypeNumber, Value: DecimalString(d)}, nil
	}
	return ID{}, e.Errorf(e.UnsupportedFilterDataType, nil,
		"unsupported document id type %T, must be a string, number, boolean or null", value)
}

// NewRandomID returns a string id backed by a random UUID
func NewRandomID() ID {
	return ID{Type: IDTypeString, Value: uuid.NewString()}
}

// IDFromKey rebuilds an id from the key tuple parts read from the table
func IDFromKey(typ int8, value string) (ID, error) {
	switch IDType(typ) {
	case IDTypeString, IDTypeNumber, IDTypeBoolean, IDTypeNull:
		return ID{Type: IDType(typ), Value: value}, nil
	}
	return ID{}, fmt.Errorf("invalid document key type %d", typ)
}

// JSON returns the id as a decoded JSON value
func (id ID) JSON() interface{} {
	switch id.Type {
	case IDTypeNumber:
		return json.Number(id.Value)
	case IDTypeBoolean:
		return id.Value == "true"
	case IDTypeNull:
		return nil
	default:
		return id.Value
	}
}

// Key returns the bind value for the key tuple column
func (id ID) Key() []interface{} {
	return []interface{}{int8(id.Type), id.Value}
}

func (id ID) String() string {
	if id.Type == IDTypeString {
		return strconv.Quote(id.Value)
	}
	if id.Type == IDTypeNull {
		return "null"
	}
	return id.Value
}
