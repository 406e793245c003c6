package operation_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertOp(t *testing.T, ordered bool, docs ...string) *operation.InsertOperation {
	decoded := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		decoded[i] = decode(t, doc)
	}
	return &operation.InsertOperation{Collection: collection, Docs: decoded, Shredder: shredder, Ordered: ordered}
}

func insertedIDs(result *operation.InsertResult) []string {
	values := make([]string, len(result.InsertedIDs))
	for i, id := range result.InsertedIDs {
		values[i] = id.String()
	}
	return values
}

func TestInsert(t *testing.T) {
	store := newStore(t)

	result, err := insertOp(t, true, `{"_id": "doc1", "a": 1}`, `{"_id": 2}`, `{"b": true}`).Execute(context.Background(), store)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.InsertedIDs, 3)
	assert.Equal(t, []string{`"doc1"`, "2"}, insertedIDs(result)[:2])
	assert.Equal(t, document.IDTypeString, result.InsertedIDs[2].Type)
	assert.Equal(t, 3, store.Len())

	stored, ok := store.Get(result.InsertedIDs[2])
	require.True(t, ok)
	assert.Equal(t, true, stored["b"])
}

func TestInsertOrderedStopsAtFirstFailure(t *testing.T) {
	store := newStore(t, `{"_id": "doc2"}`)

	result, err := insertOp(t, true, `{"_id": "doc1"}`, `{"_id": "doc2"}`, `{"_id": "doc3"}`).Execute(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []string{`"doc1"`}, insertedIDs(result))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, e.DocumentAlreadyExists, e.Code(result.Errors[0]))
	_, inserted := store.Get(document.ID{Type: document.IDTypeString, Value: "doc3"})
	assert.False(t, inserted)
}

func TestInsertOrderedStopsAtInvalidDocument(t *testing.T) {
	store := newStore(t)

	result, err := insertOp(t, true, `{"_id": "doc1"}`, `{"$bad": 1}`, `{"_id": "doc3"}`).Execute(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []string{`"doc1"`}, insertedIDs(result))
	require.Len(t, result.Errors, 1)
	assert.Equal(t, e.ShredBadDocumentType, e.Code(result.Errors[0]))
	assert.Equal(t, 1, store.Len())
}

func TestInsertUnordered(t *testing.T) {
	store := newStore(t, `{"_id": "doc2"}`)

	docs := []string{`{"_id": "doc1"}`, `{"_id": "doc2"}`, `{"_id": {"a": 1}}`}
	for i := 3; i <= 10; i++ {
		docs = append(docs, fmt.Sprintf(`{"_id": "doc%d"}`, i))
	}
	op := insertOp(t, false, docs...)
	op.Pool = newPool(t, 4)
	result, err := op.Execute(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`"doc1"`, `"doc3"`, `"doc4"`, `"doc5"`, `"doc6"`, `"doc7"`, `"doc8"`, `"doc9"`, `"doc10"`,
	}, insertedIDs(result))
	require.Len(t, result.Errors, 2)
	assert.Equal(t, e.DocumentAlreadyExists, e.Code(result.Errors[0]))
	assert.Equal(t, e.ShredBadDocumentIDType, e.Code(result.Errors[1]))
	assert.Equal(t, 10, store.Len())
}
