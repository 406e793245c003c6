package operation

import (
	"context"
	"errors"
	"strings"

	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/expression"
	"github.com/datastax/cassandra-document-api/filter"
	"github.com/datastax/cassandra-document-api/log"
)

type ReturnDocument int

const (
	ReturnDocumentNone ReturnDocument = iota
	ReturnDocumentBefore
	ReturnDocumentAfter
)

// ReadAndUpdateOperation applies Updater to up to Limit documents matching Find. Writes are
// conditioned on the version that was read, a conflicting document is read again, updated again
// and written again at most MaxRetries times.
type ReadAndUpdateOperation struct {
	Find           *FindOperation
	Updater        Updater
	Shredder       *document.Shredder
	Limit          int
	MaxRetries     int
	ReturnDocument ReturnDocument
	// Upsert inserts a document built from the filter when nothing matches
	Upsert bool
	Pool   Pool
	Logger log.Logger
}

func (op *ReadAndUpdateOperation) Execute(ctx context.Context, exec db.Executor) (*UpdateResult, error) {
	find := *op.Find
	find.Limit = op.Limit
	response, err := find.Execute(ctx, exec)
	if err != nil {
		return nil, err
	}

	if len(response.Docs) == 0 && op.Upsert {
		return op.upsert(ctx, exec, &find)
	}

	candidates := response.Docs
	outcomes := make([]DocumentOutcome, len(candidates))
	runTasks(op.Pool, len(candidates), func(i int) {
		outcomes[i] = op.updateDocument(ctx, exec, &find, candidates[i])
	}, func(i int, err error) {
		outcomes[i] = failed(candidates[i].ID, err)
	})

	result := foldUpdates(outcomes, op.ReturnDocument, response.MoreData, response.PageState)
	return &result, nil
}

func (op *ReadAndUpdateOperation) updateDocument(ctx context.Context, exec db.Executor, find *FindOperation, doc *ReadDocument) DocumentOutcome {
	logger := loggerOrNop(op.Logger, find.Collection)
	id := doc.ID
	current := doc

	for attempt := 0; attempt <= op.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return failed(id, err)
		}

		if attempt > 0 {
			var err error
			if current, err = find.FindOneByID(ctx, exec, id); err != nil {
				return failed(id, err)
			}
			if current == nil {
				logger.Debug("document vanished before update", "id", id, "attempt", attempt)
				return DocumentOutcome{ID: id, kind: outcomeVanished}
			}
		}

		after, err := op.apply(current)
		if err != nil {
			return failed(id, err)
		}

		shredded, err := op.Shredder.Shred(after)
		if err != nil {
			return failed(id, err)
		}
		if shredded.DocJSON == current.JSON {
			return DocumentOutcome{ID: id, kind: outcomeUnchanged, Before: current.Body, After: shredded.Doc}
		}

		applied, err := exec.ExecuteWrite(ctx, db.UpdateStatement(&db.UpdateInfo{
			Keyspace: find.Collection.Keyspace,
			Table:    find.Collection.Table,
			Document: shredded,
			TxID:     current.TxID,
		}))
		if err != nil {
			return failed(id, err)
		}
		if applied {
			return DocumentOutcome{ID: id, kind: outcomeApplied, Before: current.Body, After: shredded.Doc}
		}
		logger.Debug("update conflicted with a concurrent write, retrying", "id", id, "attempt", attempt)
	}

	logger.Warn("update retries exhausted", "id", id, "retries", op.MaxRetries)
	return DocumentOutcome{ID: id, kind: outcomeExhausted, Err: errors.New("retries exhausted")}
}

// apply runs the updater on a copy of the document, the id can not be changed
func (op *ReadAndUpdateOperation) apply(doc *ReadDocument) (map[string]interface{}, error) {
	updated := document.DeepCopy(doc.Body)
	if err := op.Updater.Update(updated); err != nil {
		return nil, err
	}
	rawID, ok := updated[document.IDField]
	if !ok {
		updated[document.IDField] = doc.ID.JSON()
		return updated, nil
	}
	id, err := document.NewID(rawID)
	if err != nil || id != doc.ID {
		return nil, e.Errorf(e.InvalidRequest, err, "the _id of document %s can not be changed", doc.ID)
	}
	return updated, nil
}

func (op *ReadAndUpdateOperation) upsert(ctx context.Context, exec db.Executor, find *FindOperation) (*UpdateResult, error) {
	doc := map[string]interface{}{}
	for _, f := range upsertFilters(find.Tree) {
		value, err := f.UpsertValue()
		if err != nil {
			return nil, err
		}
		setPath(doc, f.Path(), value)
	}
	if err := op.Updater.Update(doc); err != nil {
		return nil, err
	}

	// The shredder assigns a random id when neither the filter nor the update provided one
	shredded, err := op.Shredder.Shred(doc)
	if err != nil {
		return nil, err
	}
	applied, err := exec.ExecuteWrite(ctx, db.InsertStatement(&db.InsertInfo{
		Keyspace: find.Collection.Keyspace,
		Table:    find.Collection.Table,
		Document: shredded,
	}))
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{}
	if !applied {
		result.Errors = []error{concurrencyFailure("upsert", []document.ID{shredded.ID})}
		return result, nil
	}
	id := shredded.ID
	result.UpsertedID = &id
	if op.ReturnDocument == ReturnDocumentAfter {
		result.Document = shredded.Doc
	}
	return result, nil
}

// upsertFilters returns the equality filters that every matching document satisfies, they are
// found on the AND nodes reachable from the root without crossing an OR
func upsertFilters(tree *expression.LogicalExpression) []filter.Filter {
	if tree == nil || tree.Operator != expression.OperatorAnd {
		return nil
	}
	var filters []filter.Filter
	for _, c := range tree.Comparisons {
		for _, f := range c.Filters {
			if f.CanAddToUpsert() {
				filters = append(filters, f)
			}
		}
	}
	for _, child := range tree.Children {
		filters = append(filters, upsertFilters(child)...)
	}
	return filters
}

// setPath sets a dotted path, creating the intermediate sub documents
func setPath(doc map[string]interface{}, path string, value interface{}) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := doc[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			doc[part] = next
		}
		doc = next
	}
	doc[parts[len(parts)-1]] = value
}
