package operation

import (
	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
)

// Updater computes the new body of a document. It receives a copy it is free to modify.
type Updater interface {
	Update(doc map[string]interface{}) error
}

// UpdaterFunc adapts a function to the Updater interface
type UpdaterFunc func(doc map[string]interface{}) error

func (f UpdaterFunc) Update(doc map[string]interface{}) error {
	return f(doc)
}

// ReplaceUpdater replaces every field of a document except its id
type ReplaceUpdater struct {
	replacement map[string]interface{}
	id          *document.ID
}

// NewReplaceUpdater creates an updater replacing documents with replacement. id is the _id held
// by the replacement, if any; it must match the id of the documents being replaced.
func NewReplaceUpdater(replacement map[string]interface{}, id *document.ID) *ReplaceUpdater {
	return &ReplaceUpdater{replacement: replacement, id: id}
}

func (r *ReplaceUpdater) Update(doc map[string]interface{}) error {
	currentID, hasID := doc[document.IDField]
	if hasID && r.id != nil {
		current, err := document.NewID(currentID)
		if err != nil {
			return err
		}
		if current != *r.id {
			return e.Errorf(e.InvalidRequest, nil,
				"replacement _id %s does not match the document _id %s", r.id, current)
		}
	}

	for k := range doc {
		delete(doc, k)
	}
	for k, v := range document.DeepCopy(r.replacement) {
		doc[k] = v
	}
	if hasID {
		doc[document.IDField] = currentID
	}
	return nil
}
