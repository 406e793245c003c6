package clause

import (
	"strings"

	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/operation"
)

// ParseReplacement validates a replacement document and returns the updater replacing the whole
// body of each matched document. Update operators are not accepted.
func ParseReplacement(doc map[string]interface{}) (*operation.ReplaceUpdater, error) {
	if doc == nil {
		return nil, e.Errorf(e.InvalidRequest, nil, "replacement document is required")
	}
	for key := range doc {
		if strings.HasPrefix(key, "$") {
			return nil, e.Errorf(e.UnsupportedCommand, nil,
				"update operator '%s' is not supported, only replacement documents are", key)
		}
	}
	var id *document.ID
	if raw, ok := doc[document.IDField]; ok {
		parsed, err := document.NewID(raw)
		if err != nil {
			return nil, e.Errorf(e.ShredBadDocumentIDType, err, "%s", e.Message(err))
		}
		id = &parsed
	}
	return operation.NewReplaceUpdater(doc, id), nil
}
