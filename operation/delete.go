package operation

import (
	"context"
	"errors"

	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/log"
)

// DeleteOperation deletes up to DeleteLimit documents matching Find. Each document is deleted
// with a write conditioned on the version that was read; on conflict the document is read again
// and the delete retried at most MaxRetries times.
type DeleteOperation struct {
	Find        *FindOperation
	DeleteLimit int
	MaxRetries  int
	Pool        Pool
	Logger      log.Logger
}

func (op *DeleteOperation) Execute(ctx context.Context, exec db.Executor) (*DeleteResult, error) {
	find := *op.Find
	// The extra candidate only tells whether more documents match
	find.Limit = op.DeleteLimit + 1
	response, err := find.Execute(ctx, exec)
	if err != nil {
		return nil, err
	}

	candidates := response.Docs
	moreData := len(candidates) > op.DeleteLimit
	if moreData {
		candidates = candidates[:op.DeleteLimit]
	}

	outcomes := make([]DocumentOutcome, len(candidates))
	runTasks(op.Pool, len(candidates), func(i int) {
		outcomes[i] = op.deleteDocument(ctx, exec, &find, candidates[i])
	}, func(i int, err error) {
		outcomes[i] = failed(candidates[i].ID, err)
	})

	result := foldDeletes(outcomes, moreData)
	return &result, nil
}

func (op *DeleteOperation) deleteDocument(ctx context.Context, exec db.Executor, find *FindOperation, doc *ReadDocument) DocumentOutcome {
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
				logger.Debug("document vanished before delete", "id", id, "attempt", attempt)
				return DocumentOutcome{ID: id, kind: outcomeVanished}
			}
		}

		applied, err := exec.ExecuteWrite(ctx, db.DeleteStatement(&db.DeleteInfo{
			Keyspace: find.Collection.Keyspace,
			Table:    find.Collection.Table,
			ID:       current.ID,
			TxID:     current.TxID,
		}))
		if err != nil {
			return failed(id, err)
		}
		if applied {
			return DocumentOutcome{ID: id, kind: outcomeApplied, Before: current.Body}
		}
		logger.Debug("delete conflicted with a concurrent write, retrying", "id", id, "attempt", attempt)
	}

	logger.Warn("delete retries exhausted", "id", id, "retries", op.MaxRetries)
	return DocumentOutcome{ID: id, kind: outcomeExhausted, Err: errors.New("retries exhausted")}
}
