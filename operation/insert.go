package operation

import (
	"context"

	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
)

// InsertOperation inserts new documents, a document whose id is already taken is reported as an
// error for that document. Ordered inserts stop at the first failure, unordered inserts run
// concurrently and attempt every document.
type InsertOperation struct {
	Collection Collection
	Docs       []map[string]interface{}
	Shredder   *document.Shredder
	Ordered    bool
	Pool       Pool
}

func (op *InsertOperation) Execute(ctx context.Context, exec db.Executor) (*InsertResult, error) {
	// Shredding assigns missing ids up front, so every outcome carries its document id
	shredded := make([]*document.WritableDocument, len(op.Docs))
	outcomes := make([]DocumentOutcome, len(op.Docs))
	for i, doc := range op.Docs {
		var err error
		if shredded[i], err = op.Shredder.Shred(doc); err != nil {
			outcomes[i] = DocumentOutcome{Err: err}
		}
	}

	if op.Ordered {
		for i, doc := range shredded {
			if doc == nil {
				result := foldInserts(outcomes[:i+1])
				return &result, nil
			}
			outcomes[i] = op.insertDocument(ctx, exec, doc)
			if outcomes[i].kind != outcomeApplied {
				result := foldInserts(outcomes[:i+1])
				return &result, nil
			}
		}
	} else {
		runTasks(op.Pool, len(shredded), func(i int) {
			if shredded[i] != nil {
				outcomes[i] = op.insertDocument(ctx, exec, shredded[i])
			}
		}, func(i int, err error) {
			if shredded[i] != nil {
				outcomes[i] = failed(shredded[i].ID, err)
			}
		})
	}

	result := foldInserts(outcomes)
	return &result, nil
}

func (op *InsertOperation) insertDocument(ctx context.Context, exec db.Executor, doc *document.WritableDocument) DocumentOutcome {
	if err := ctx.Err(); err != nil {
		return failed(doc.ID, err)
	}
	applied, err := exec.ExecuteWrite(ctx, db.InsertStatement(&db.InsertInfo{
		Keyspace: op.Collection.Keyspace,
		Table:    op.Collection.Table,
		Document: doc,
	}))
	if err != nil {
		return failed(doc.ID, err)
	}
	if !applied {
		return DocumentOutcome{
			ID:   doc.ID,
			kind: outcomeFailed,
			Err:  e.Errorf(e.DocumentAlreadyExists, nil, "document already exists with _id %s", doc.ID),
		}
	}
	return DocumentOutcome{ID: doc.ID, kind: outcomeApplied, After: doc.Doc}
}
