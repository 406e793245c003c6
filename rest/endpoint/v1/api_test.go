package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/datastax/cassandra-document-api/auth"
	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/document"
	"github.com/datastax/cassandra-document-api/internal/testutil"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type response struct {
	Data *struct {
		Docs          []map[string]interface{} `json:"docs"`
		NextPageState string                   `json:"nextPageState"`
	} `json:"data"`
	Status map[string]interface{} `json:"status"`
	Errors []struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	} `json:"errors"`
}

func newRouter(cfg config.Config, exec db.Executor) *httprouter.Router {
	router := httprouter.New()
	for _, route := range Routes("/api", cfg, exec, nil) {
		router.Handler(route.Method, route.Pattern, route.Handler)
	}
	return router
}

func post(t *testing.T, handler http.Handler, path string, body string, headers ...string) (int, response) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	assert.Equal(t, "application/json; charset=UTF-8", recorder.Header().Get("Content-Type"))
	var result response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result), recorder.Body.String())
	return recorder.Code, result
}

func docIDs(r response) []interface{} {
	ids := make([]interface{}, 0)
	if r.Data == nil {
		return ids
	}
	for _, doc := range r.Data.Docs {
		ids = append(ids, doc["_id"])
	}
	return ids
}

const usersPath = "/api/v1/ks1/users"

func seed(t *testing.T, router http.Handler) {
	code, result := post(t, router, usersPath, `{"insertMany": {"documents": [
		{"_id": "doc1", "username": "user1", "age": 31},
		{"_id": "doc2", "username": "user2", "age": 25},
		{"_id": "doc3", "username": "user3", "age": 40}
	]}}`)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, result.Errors)
	require.Equal(t, []interface{}{"doc1", "doc2", "doc3"}, result.Status["insertedIds"])
}

func TestFindCommands(t *testing.T) {
	router := newRouter(config.NewConfigMock().Default(), testutil.NewFakeExecutor())
	seed(t, router)

	tests := []struct {
		name     string
		body     string
		expected []interface{}
	}{
		{"by field", `{"find": {"filter": {"username": "user1"}}}`, []interface{}{"doc1"}},
		{"all", `{"find": {}}`, []interface{}{"doc1", "doc2", "doc3"}},
		{"range", `{"find": {"filter": {"age": {"$gte": 31}}}}`, []interface{}{"doc1", "doc3"}},
		{"ids", `{"find": {"filter": {"_id": {"$in": ["doc3", "doc2"]}}}}`, []interface{}{"doc3", "doc2"}},
		{"sorted", `{"find": {"sort": {"age": -1}, "options": {"skip": 1}}}`, []interface{}{"doc1", "doc2"}},
		{"one", `{"findOne": {"filter": {"age": {"$lt": 40}}}}`, []interface{}{"doc1"}},
		{"none", `{"findOne": {"filter": {"username": "nobody"}}}`, []interface{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, result := post(t, router, usersPath, tt.body)
			assert.Equal(t, http.StatusOK, code)
			assert.Empty(t, result.Errors)
			assert.Equal(t, tt.expected, docIDs(result))
		})
	}
}

func TestFindPageState(t *testing.T) {
	router := newRouter(config.NewConfigMock().Default(), testutil.NewFakeExecutor())
	seed(t, router)

	code, result := post(t, router, usersPath, `{"find": {"options": {"limit": 2}}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"doc1", "doc2"}, docIDs(result))
	require.NotEmpty(t, result.Data.NextPageState)

	code, result = post(t, router, usersPath,
		`{"find": {"options": {"limit": 2, "pageState": "`+result.Data.NextPageState+`"}}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"doc3"}, docIDs(result))
	assert.Empty(t, result.Data.NextPageState)
}

func TestCountDocuments(t *testing.T) {
	router := newRouter(config.NewConfigMock().Default(), testutil.NewFakeExecutor())
	seed(t, router)

	code, result := post(t, router, usersPath, `{"countDocuments": {"filter": {"age": {"$gt": 30}}}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), result.Status["count"])
}

func TestInsertErrors(t *testing.T) {
	router := newRouter(config.NewConfigMock().Default(), testutil.NewFakeExecutor())
	seed(t, router)

	code, result := post(t, router, usersPath, `{"insertOne": {"document": {"_id": "doc1"}}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, result.Status["insertedIds"])
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "DOCUMENT_ALREADY_EXISTS", result.Errors[0].ErrorCode)

	code, result = post(t, router, usersPath,
		`{"insertMany": {"documents": [{"_id": "doc2"}, {"_id": "doc4"}], "options": {"ordered": false}}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"doc4"}, result.Status["insertedIds"])
	require.Len(t, result.Errors, 1)

	code, result = post(t, router, usersPath, `{"insertOne": {}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_REQUEST", result.Errors[0].ErrorCode)
	assert.Equal(t, "Document is a required field", result.Errors[0].Message)
}

func TestInsertManyLimit(t *testing.T) {
	cfg := config.NewConfigMock()
	cfg.On("MaxInsertCount").Return(1)
	router := newRouter(cfg.Default(), testutil.NewFakeExecutor())

	code, result := post(t, router, usersPath, `{"insertMany": {"documents": [{"a": 1}, {"a": 2}]}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_REQUEST", result.Errors[0].ErrorCode)
}

func TestDeleteCommands(t *testing.T) {
	cfg := config.NewConfigMock()
	cfg.On("MaxDeleteCount").Return(1)
	router := newRouter(cfg.Default(), testutil.NewFakeExecutor())
	seed(t, router)

	code, result := post(t, router, usersPath, `{"deleteMany": {"filter": {"age": {"$gt": 30}}}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), result.Status["deletedCount"])
	assert.Equal(t, true, result.Status["moreData"])

	code, result = post(t, router, usersPath, `{"deleteOne": {"filter": {"_id": "doc2"}}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), result.Status["deletedCount"])
	assert.NotContains(t, result.Status, "moreData")

	_, result = post(t, router, usersPath, `{"countDocuments": {}}`)
	assert.Equal(t, float64(1), result.Status["count"])
}

func TestReplaceCommands(t *testing.T) {
	router := newRouter(config.NewConfigMock().Default(), testutil.NewFakeExecutor())
	seed(t, router)

	code, result := post(t, router, usersPath,
		`{"findOneAndReplace": {"filter": {"username": "user2"}, "replacement": {"username": "renamed"}}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, result.Errors)
	assert.Equal(t, float64(1), result.Status["matchedCount"])
	assert.Equal(t, float64(1), result.Status["modifiedCount"])
	require.Len(t, result.Data.Docs, 1)
	assert.Equal(t, "user2", result.Data.Docs[0]["username"])

	code, result = post(t, router, usersPath,
		`{"findOneAndReplace": {"filter": {"_id": "doc9"}, "replacement": {"username": "new"},
			"options": {"upsert": true, "returnDocument": "after"}}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "doc9", result.Status["upsertedId"])
	require.Len(t, result.Data.Docs, 1)
	assert.Equal(t, map[string]interface{}{"_id": "doc9", "username": "new"}, result.Data.Docs[0])

	code, result = post(t, router, usersPath,
		`{"replaceOne": {"filter": {"_id": "doc9"}, "replacement": {"username": "new"}}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), result.Status["matchedCount"])
	assert.Equal(t, float64(0), result.Status["modifiedCount"])
	assert.Nil(t, result.Data)

	code, result = post(t, router, usersPath,
		`{"replaceOne": {"filter": {}, "replacement": {"$set": {"a": 1}}}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "UNSUPPORTED_COMMAND", result.Errors[0].ErrorCode)
}

func TestRequestErrors(t *testing.T) {
	router := newRouter(config.NewConfigMock().Default(), testutil.NewFakeExecutor())

	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{`, "INVALID_REQUEST"},
		{"no command", `{}`, "INVALID_REQUEST"},
		{"two commands", `{"find": {}, "findOne": {}}`, "INVALID_REQUEST"},
		{"unknown command", `{"aggregate": {}}`, "UNSUPPORTED_COMMAND"},
		{"unknown field", `{"find": {"projection": {}}}`, "INVALID_REQUEST"},
		{"unknown option", `{"find": {"options": {"batch": 1}}}`, "INVALID_REQUEST"},
		{"negative limit", `{"find": {"options": {"limit": -1}}}`, "INVALID_REQUEST"},
		{"skip without sort", `{"find": {"options": {"skip": 1}}}`, "INVALID_REQUEST"},
		{"bad sort", `{"find": {"sort": {"age": 2}}}`, "INVALID_REQUEST"},
		{"bad operator", `{"find": {"filter": {"age": {"$regex": "a"}}}}`, "UNSUPPORTED_FILTER_OPERATION"},
		{"id under or", `{"find": {"filter": {"$or": [{"_id": "a"}, {"b": 1}]}}}`, "UNSUPPORTED_FILTER"},
		{"bad return document", `{"findOneAndReplace": {"replacement": {}, "options": {"returnDocument": "later"}}}`, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, result := post(t, router, usersPath, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.code, result.Errors[0].ErrorCode)
			assert.NotEmpty(t, result.Errors[0].Message)
		})
	}
}

func TestBackendError(t *testing.T) {
	store := testutil.NewFakeExecutor()
	store.ReadError = errors.New("no hosts available")
	router := newRouter(config.NewConfigMock().Default(), store)

	code, result := post(t, router, usersPath, `{"find": {}}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "SERVER_ERROR", result.Errors[0].ErrorCode)
	assert.Equal(t, "no hosts available", result.Errors[0].Message)
}

func TestCollectionCommands(t *testing.T) {
	exec := &db.ExecutorMock{}
	exec.On("ExecuteSchema", mock.Anything, mock.Anything).Return(nil)
	router := newRouter(config.NewConfigMock().Default(), exec)

	code, result := post(t, router, "/api/v1/ks1", `{"createCollection": {"name": "userProfiles"}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), result.Status["ok"])
	exec.AssertNumberOfCalls(t, "ExecuteSchema", 1+len(document.IndexedColumns))
	stmt := exec.Calls[0].Arguments.Get(1).(*db.Statement)
	assert.True(t, strings.HasPrefix(stmt.CQL, `CREATE TABLE IF NOT EXISTS "ks1"."user_profiles"`), stmt.CQL)

	code, _ = post(t, router, "/api/v1/ks1", `{"deleteCollection": {"name": "userProfiles"}}`)
	assert.Equal(t, http.StatusOK, code)
	exec.AssertNumberOfCalls(t, "ExecuteSchema", 2+len(document.IndexedColumns))

	code, result = post(t, router, "/api/v1/ks1", `{"createCollection": {}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_REQUEST", result.Errors[0].ErrorCode)
}

func TestCollectionCommandsDisabled(t *testing.T) {
	cfg := config.NewConfigMock()
	cfg.On("SupportedOperations").Return(config.CollectionCreate)
	exec := &db.ExecutorMock{}
	router := newRouter(cfg.Default(), exec)

	code, result := post(t, router, "/api/v1/ks1", `{"deleteCollection": {"name": "users"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "UNSUPPORTED_COMMAND", result.Errors[0].ErrorCode)
	exec.AssertNotCalled(t, "ExecuteSchema", mock.Anything, mock.Anything)
}

func TestUserOrRoleAuth(t *testing.T) {
	cfg := config.NewConfigMock()
	cfg.On("UseUserOrRoleAuth").Return(true)
	exec := &db.ExecutorMock{}
	exec.On("ExecuteCount", mock.MatchedBy(func(ctx context.Context) bool {
		return auth.ContextUserOrRole(ctx) == "alice"
	}), mock.Anything).Return(int64(7), nil)
	router := newRouter(cfg.Default(), exec)

	code, result := post(t, router, usersPath, `{"countDocuments": {}}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.Len(t, result.Errors, 1)

	code, result = post(t, router, usersPath, `{"countDocuments": {}}`, UserOrRoleHeader, "alice")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(7), result.Status["count"])
	exec.AssertExpectations(t)
}
