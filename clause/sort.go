package clause

import (
	"bytes"
	"encoding/json"
	"strings"

	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/operation"
)

// ParseSort parses a sort document such as {"age": -1, "name": 1}. Field order is significant so
// the raw JSON is walked token by token instead of being decoded into a map.
func ParseSort(raw json.RawMessage) ([]operation.SortField, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return nil, e.Errorf(e.InvalidRequest, err, "invalid sort clause")
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, e.Errorf(e.InvalidRequest, nil, "sort clause must be an object")
	}

	var fields []operation.SortField
	seen := map[string]bool{}
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return nil, e.Errorf(e.InvalidRequest, err, "invalid sort clause")
		}
		path := token.(string)
		if path == "" || strings.HasPrefix(path, "$") {
			return nil, e.Errorf(e.InvalidRequest, nil, "invalid sort path '%s'", path)
		}
		if seen[path] {
			return nil, e.Errorf(e.InvalidRequest, nil, "duplicate sort path '%s'", path)
		}
		seen[path] = true

		var direction json.Number
		if err := decoder.Decode(&direction); err != nil {
			return nil, e.Errorf(e.InvalidRequest, err, "sort direction of '%s' must be 1 or -1", path)
		}
		switch direction.String() {
		case "1":
			fields = append(fields, operation.SortField{Path: path, Ascending: true})
		case "-1":
			fields = append(fields, operation.SortField{Path: path, Ascending: false})
		default:
			return nil, e.Errorf(e.InvalidRequest, nil, "sort direction of '%s' must be 1 or -1", path)
		}
	}
	return fields, nil
}
