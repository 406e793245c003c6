package operation_test

import (
	"testing"

	"github.com/datastax/cassandra-document-api/clause"
	"github.com/datastax/cassandra-document-api/document"
	"github.com/datastax/cassandra-document-api/expression"
	"github.com/datastax/cassandra-document-api/internal/testutil"
	"github.com/datastax/cassandra-document-api/operation"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
)

var collection = operation.Collection{Keyspace: "ks1", Table: "users"}

var shredder = document.NewShredder(document.NewHasher())

func decode(t *testing.T, s string) map[string]interface{} {
	doc, err := document.DecodeJSON([]byte(s))
	require.NoError(t, err)
	return doc
}

func shred(t *testing.T, s string) *document.WritableDocument {
	doc, err := shredder.Shred(decode(t, s))
	require.NoError(t, err)
	return doc
}

func newStore(t *testing.T, docs ...string) *testutil.FakeExecutor {
	store := testutil.NewFakeExecutor()
	for _, doc := range docs {
		store.Insert(shred(t, doc))
	}
	return store
}

func parseFilter(t *testing.T, s string) *expression.LogicalExpression {
	tree, err := clause.ParseFilter(decode(t, s))
	require.NoError(t, err)
	return tree
}

func find(t *testing.T, filter string) *operation.FindOperation {
	return &operation.FindOperation{Collection: collection, Tree: parseFilter(t, filter)}
}

func stringID(value string) document.ID {
	return document.ID{Type: document.IDTypeString, Value: value}
}

func ids(docs []*operation.ReadDocument) []string {
	result := make([]string, len(docs))
	for i, doc := range docs {
		result[i] = doc.ID.Value
	}
	return result
}

func newPool(t *testing.T, size int) *ants.Pool {
	pool, err := ants.NewPool(size)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}
