package operation

import (
	"context"

	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/expression"
)

// CountOperation counts the documents matching Find, id expanded queries are counted per id and
// summed
type CountOperation struct {
	Find *FindOperation
}

func (op *CountOperation) Execute(ctx context.Context, exec db.Executor) (int64, error) {
	expressions, err := op.Find.compile(nil)
	if err != nil {
		return 0, err
	}
	if expression.IsNoMatch(expressions) {
		return 0, nil
	}

	var total int64
	for _, expr := range expressions {
		count, err := exec.ExecuteCount(ctx, db.CountStatement(&db.CountInfo{
			Keyspace: op.Find.Collection.Keyspace,
			Table:    op.Find.Collection.Table,
			Where:    expr,
		}))
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}
