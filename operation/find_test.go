package operation_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/datastax/cassandra-document-api/clause"
	"github.com/datastax/cassandra-document-api/db"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFindByField(t *testing.T) {
	store := newStore(t,
		`{"_id": "doc1", "username": "user1", "active": true}`,
		`{"_id": "doc2", "username": "user2", "active": true}`,
		`{"_id": "doc3", "username": "user3", "active": false}`)

	response, err := find(t, `{"username": "user1"}`).Execute(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, response.Docs, 1)
	assert.Equal(t, "doc1", response.Docs[0].ID.Value)
	assert.Equal(t, "user1", response.Docs[0].Body["username"])
	assert.False(t, response.MoreData)

	tests := []struct {
		filter   string
		expected []string
	}{
		{`{}`, []string{"doc1", "doc2", "doc3"}},
		{`{"active": true}`, []string{"doc1", "doc2"}},
		{`{"username": {"$ne": "user1"}}`, []string{"doc2", "doc3"}},
		{`{"$or": [{"username": "user1"}, {"active": false}]}`, []string{"doc1", "doc3"}},
		{`{"username": {"$in": ["user2", "user3"]}, "active": true}`, []string{"doc2"}},
		{`{"username": {"$nin": ["user2", "user3"]}}`, []string{"doc1"}},
		{`{"missing": {"$exists": false}}`, []string{"doc1", "doc2", "doc3"}},
		{`{"username": {"$in": []}}`, []string{}},
		{`{"$or": [{"username": {"$nin": []}}, {"active": false}]}`, []string{"doc1", "doc2", "doc3"}},
		{`{"$or": [{"username": {"$in": []}}]}`, []string{}},
		{`{"$or": [{"username": {"$in": []}}, {"active": false}]}`, []string{"doc3"}},
	}
	for _, tt := range tests {
		response, err := find(t, tt.filter).Execute(context.Background(), store)
		require.NoError(t, err, tt.filter)
		assert.Equal(t, tt.expected, ids(response.Docs), tt.filter)
	}
}

func TestFindRanges(t *testing.T) {
	store := newStore(t,
		`{"_id": "a", "age": 20, "joined": {"$date": 1000}}`,
		`{"_id": "b", "age": 30.5, "joined": {"$date": 2000}}`,
		`{"_id": "c", "age": 40, "joined": {"$date": 3000}}`,
		`{"_id": "d", "age": "unknown"}`)

	tests := []struct {
		filter   string
		expected []string
	}{
		{`{"age": {"$gt": 20}}`, []string{"b", "c"}},
		{`{"age": {"$gte": 20, "$lt": 40}}`, []string{"a", "b"}},
		{`{"age": 30.50}`, []string{"b"}},
		{`{"joined": {"$lte": {"$date": 2000}}}`, []string{"a", "b"}},
		{`{"joined": {"$date": 3000}}`, []string{"c"}},
	}
	for _, tt := range tests {
		response, err := find(t, tt.filter).Execute(context.Background(), store)
		require.NoError(t, err, tt.filter)
		assert.Equal(t, tt.expected, ids(response.Docs), tt.filter)
	}
}

func TestFindArrays(t *testing.T) {
	store := newStore(t,
		`{"_id": "a", "tags": ["x", "y"], "address": {"city": "Paris"}}`,
		`{"_id": "b", "tags": ["y"], "address": {"city": "Lyon", "zip": 69000}}`,
		`{"_id": "c", "tags": ["x", "y", "z"]}`)

	tests := []struct {
		filter   string
		expected []string
	}{
		{`{"tags": "x"}`, []string{"a", "c"}},
		{`{"tags": {"$all": ["x", "z"]}}`, []string{"c"}},
		{`{"tags": {"$size": 1}}`, []string{"b"}},
		{`{"tags": ["x", "y"]}`, []string{"a"}},
		{`{"address": {"city": "Paris"}}`, []string{"a"}},
		{`{"address.city": "Lyon"}`, []string{"b"}},
	}
	for _, tt := range tests {
		response, err := find(t, tt.filter).Execute(context.Background(), store)
		require.NoError(t, err, tt.filter)
		assert.Equal(t, tt.expected, ids(response.Docs), tt.filter)
	}
}

func TestFindPaging(t *testing.T) {
	docs := make([]string, 5)
	for i := range docs {
		docs[i] = fmt.Sprintf(`{"_id": "doc%d", "kind": "a"}`, i+1)
	}
	store := newStore(t, docs...)

	op := find(t, `{"kind": "a"}`)
	op.Limit = 2
	op.PageSize = 1

	var pages [][]string
	for {
		response, err := op.Execute(context.Background(), store)
		require.NoError(t, err)
		pages = append(pages, ids(response.Docs))
		if !response.MoreData {
			assert.Empty(t, response.PageState)
			break
		}
		require.NotEmpty(t, response.PageState)
		op.PageState = response.PageState
	}

	assert.Equal(t, [][]string{{"doc1", "doc2"}, {"doc3", "doc4"}, {"doc5"}}, pages)
	// Page size 1 with a limit of 2 reads two pages per request
	assert.Equal(t, int64(5), store.Reads.Load())
}

func TestFindExactLimitHasNoMoreData(t *testing.T) {
	store := newStore(t, `{"_id": "doc1"}`, `{"_id": "doc2"}`)

	op := find(t, `{}`)
	op.Limit = 2
	response, err := op.Execute(context.Background(), store)
	require.NoError(t, err)
	assert.Len(t, response.Docs, 2)
	assert.False(t, response.MoreData)
}

func TestFindInvalidPageState(t *testing.T) {
	op := find(t, `{}`)
	op.PageState = "not base64!"
	_, err := op.Execute(context.Background(), newStore(t))
	assert.Equal(t, e.InvalidRequest, e.Code(err))
}

func TestFindByIDs(t *testing.T) {
	store := newStore(t,
		`{"_id": "doc1", "kind": "a"}`,
		`{"_id": "doc2", "kind": "a"}`,
		`{"_id": "doc3", "kind": "b"}`,
		`{"_id": 5, "kind": "a"}`)

	tests := []struct {
		filter   string
		expected []string
	}{
		{`{"_id": "doc2"}`, []string{"doc2"}},
		{`{"_id": 5.0}`, []string{"5"}},
		{`{"_id": {"$in": ["doc3", "doc1", "missing"]}}`, []string{"doc3", "doc1"}},
		{`{"_id": {"$in": ["doc3", "doc1"]}, "kind": "a"}`, []string{"doc1"}},
		{`{"_id": {"$ne": "doc1"}, "kind": "a"}`, []string{"doc2", "5"}},
	}
	for _, tt := range tests {
		response, err := find(t, tt.filter).Execute(context.Background(), store)
		require.NoError(t, err, tt.filter)
		assert.Equal(t, tt.expected, ids(response.Docs), tt.filter)
	}

	op := find(t, `{"_id": {"$in": ["doc1", "doc2", "doc3"]}}`)
	op.Limit = 2
	op.MaxIDLookupWorkers = 2
	response, err := op.Execute(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1", "doc2"}, ids(response.Docs))
}

func TestFindNoMatchSkipsBackend(t *testing.T) {
	store := newStore(t, `{"_id": "doc1"}`)

	response, err := find(t, `{"_id": {"$in": []}}`).Execute(context.Background(), store)
	require.NoError(t, err)
	assert.Empty(t, response.Docs)
	assert.NotNil(t, response.Docs)
	assert.Equal(t, int64(0), store.Reads.Load())

	count, err := (&operation.CountOperation{Find: find(t, `{"_id": {"$in": []}}`)}).Execute(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, int64(0), store.Counts.Load())
}

func TestFindSorted(t *testing.T) {
	store := newStore(t,
		`{"_id": "a", "score": 10, "name": "zed"}`,
		`{"_id": "b", "score": 30, "name": "amy"}`,
		`{"_id": "c", "score": "n/a", "name": "bob"}`,
		`{"_id": "d", "name": "cat"}`,
		`{"_id": "e", "score": 30, "name": "bea"}`)

	sortBy := func(raw string) []operation.SortField {
		fields, err := clause.ParseSort(json.RawMessage(raw))
		require.NoError(t, err)
		return fields
	}

	tests := []struct {
		sort     string
		skip     int
		limit    int
		expected []string
	}{
		{`{"score": 1}`, 0, 0, []string{"d", "a", "b", "e", "c"}},
		{`{"score": -1}`, 0, 0, []string{"c", "b", "e", "a", "d"}},
		{`{"score": -1, "name": 1}`, 0, 0, []string{"c", "b", "e", "a", "d"}},
		{`{"score": -1, "name": -1}`, 0, 0, []string{"c", "e", "b", "a", "d"}},
		{`{"name": 1}`, 1, 2, []string{"e", "c"}},
		{`{"name": 1}`, 10, 0, []string{}},
	}
	for _, tt := range tests {
		op := find(t, `{}`)
		op.Sort = sortBy(tt.sort)
		op.Skip = tt.skip
		op.Limit = tt.limit
		response, err := op.Execute(context.Background(), store)
		require.NoError(t, err, tt.sort)
		assert.Equal(t, tt.expected, ids(response.Docs), tt.sort)
		assert.False(t, response.MoreData)
	}

	op := find(t, `{}`)
	op.Sort = sortBy(`{"name": 1}`)
	op.MaxSortReadLimit = 2
	response, err := op.Execute(context.Background(), store)
	require.NoError(t, err)
	// Only the first two documents read are candidates
	assert.Equal(t, []string{"b", "a"}, ids(response.Docs))
}

func TestFindRejectsOversizedPage(t *testing.T) {
	rows := make([]*db.Row, 3)
	for i := range rows {
		doc := shred(t, fmt.Sprintf(`{"_id": "doc%d"}`, i+1))
		rows[i] = &db.Row{ID: doc.ID, DocJSON: doc.DocJSON}
	}
	exec := &db.ExecutorMock{}
	exec.On("ExecuteRead", mock.Anything, mock.Anything, []byte(nil), 2).
		Return(&db.ResultPage{Rows: rows, PageState: []byte("next")}, nil)

	op := find(t, `{}`)
	op.Limit = 2
	_, err := op.Execute(context.Background(), exec)
	require.Error(t, err)
	assert.Equal(t, e.ServerError, e.Code(err))
	exec.AssertExpectations(t)
}

func TestFindReadError(t *testing.T) {
	store := newStore(t, `{"_id": "doc1"}`)
	store.ReadError = errors.New("unavailable")

	_, err := find(t, `{}`).Execute(context.Background(), store)
	assert.EqualError(t, err, "unavailable")

	_, err = find(t, `{"_id": {"$in": ["doc1", "doc2"]}}`).Execute(context.Background(), store)
	assert.EqualError(t, err, "unavailable")
}

func TestFindOneByID(t *testing.T) {
	store := newStore(t, `{"_id": "doc1", "kind": "a"}`, `{"_id": "doc2", "kind": "b"}`)
	op := find(t, `{"kind": "a"}`)

	doc, err := op.FindOneByID(context.Background(), store, stringID("doc1"))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "doc1", doc.ID.Value)

	doc, err = op.FindOneByID(context.Background(), store, stringID("doc2"))
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestCount(t *testing.T) {
	store := newStore(t,
		`{"_id": "doc1", "kind": "a"}`,
		`{"_id": "doc2", "kind": "a"}`,
		`{"_id": "doc3", "kind": "b"}`)

	tests := []struct {
		filter   string
		expected int64
	}{
		{`{}`, 3},
		{`{"kind": "a"}`, 2},
		{`{"_id": {"$in": ["doc1", "doc3", "doc4"]}}`, 2},
		{`{"kind": "c"}`, 0},
	}
	for _, tt := range tests {
		count, err := (&operation.CountOperation{Find: find(t, tt.filter)}).Execute(context.Background(), store)
		require.NoError(t, err, tt.filter)
		assert.Equal(t, tt.expected, count, tt.filter)
	}
}
