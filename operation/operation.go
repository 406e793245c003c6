// Package operation executes document commands against a collection table: paginated reads and
// the read then conditionally write protocol used by deletes and updates.
package operation

import (
	"sync"

	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/log"
	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

// DefaultMaxIDLookupWorkers bounds the concurrent single row reads of an id expanded query
const DefaultMaxIDLookupWorkers = 8

// Collection identifies the table holding the documents of a collection
type Collection struct {
	Keyspace string
	Table    string
}

type SortField struct {
	Path      string
	Ascending bool
}

// ReadDocument is a document as read from the table along with its version token
type ReadDocument struct {
	ID   document.ID
	TxID gocql.UUID
	// JSON is the stored canonical body
	JSON string
	Body map[string]interface{}

	row *db.Row
}

type ReadResponse struct {
	Docs []*ReadDocument
	// PageState is the base64 continuation token, empty when there is nothing left to read
	PageState string
	MoreData  bool
}

// Pool runs tasks concurrently, *ants.Pool satisfies it
type Pool interface {
	Submit(task func()) error
}

var nopLogger log.Logger = log.NewZapLogger(zap.NewNop())

func loggerOrNop(logger log.Logger, coll Collection) log.Logger {
	if logger == nil {
		return nopLogger
	}
	return logger.With("keyspace", coll.Keyspace, "table", coll.Table)
}

// runTasks runs task for every index on pool and waits for all of them. Without a pool the tasks
// run one after the other. rejected is called for tasks the pool refused and for tasks that panicked.
func runTasks(pool Pool, n int, task func(i int), rejected func(i int, err error)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if pool == nil {
			runTask(i, task, rejected)
			continue
		}
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			runTask(i, task, rejected)
		}); err != nil {
			wg.Done()
			rejected(i, err)
		}
	}
	wg.Wait()
}

func runTask(i int, task func(i int), rejected func(i int, err error)) {
	defer func() {
		if r := recover(); r != nil {
			rejected(i, e.Errorf(e.ServerError, nil, "document write panicked: %v", r))
		}
	}()
	task(i)
}

func newReadDocument(row *db.Row) (*ReadDocument, error) {
	body, err := document.DecodeJSON([]byte(row.DocJSON))
	if err != nil {
		return nil, err
	}
	return &ReadDocument{
		ID:   row.ID,
		TxID: row.TxID,
		JSON: row.DocJSON,
		Body: body,
		row:  row,
	}, nil
}
