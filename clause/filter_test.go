package clause

import (
	"encoding/json"
	"testing"

	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/expression"
	"github.com/datastax/cassandra-document-api/filter"
	"github.com/datastax/cassandra-document-api/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]interface{} {
	doc, err := document.DecodeJSON([]byte(s))
	require.NoError(t, err)
	return doc
}

func kinds(c *expression.ComparisonExpression) []filter.Kind {
	result := make([]filter.Kind, len(c.Filters))
	for i, f := range c.Filters {
		result[i] = f.Kind()
	}
	return result
}

func TestParseFilterKinds(t *testing.T) {
	items := []struct {
		filter   string
		kinds    []filter.Kind
		operator filter.Operator
	}{
		{`{"username": "user1"}`, []filter.Kind{filter.KindText}, filter.EQ},
		{`{"active": {"$ne": true}}`, []filter.Kind{filter.KindBool}, filter.NE},
		{`{"age": {"$gte": 21}}`, []filter.Kind{filter.KindNumber}, filter.GTE},
		{`{"created": {"$lt": {"$date": 1672531200000}}}`, []filter.Kind{filter.KindDate}, filter.LT},
		{`{"created": {"$date": 1672531200000}}`, []filter.Kind{filter.KindDate}, filter.EQ},
		{`{"_id": "doc1"}`, []filter.Kind{filter.KindID}, filter.EQ},
		{`{"_id": {"$in": ["doc1", 2]}}`, []filter.Kind{filter.KindID}, filter.IN},
		{`{"color": {"$nin": ["red"]}}`, []filter.Kind{filter.KindIn}, filter.NIN},
		{`{"middle": null}`, []filter.Kind{filter.KindIsNull}, filter.EQ},
		{`{"email": {"$exists": false}}`, []filter.Kind{filter.KindExists}, filter.NE},
		{`{"tags": {"$all": ["a", "b"]}}`, []filter.Kind{filter.KindAll, filter.KindAll}, filter.EQ},
		{`{"tags": {"$size": 2}}`, []filter.Kind{filter.KindSize}, filter.EQ},
		{`{"tags": ["a", "b"]}`, []filter.Kind{filter.KindArrayEquals}, filter.EQ},
		{`{"address": {"city": "Paris"}}`, []filter.Kind{filter.KindSubDocEquals}, filter.EQ},
	}

	for _, item := range items {
		t.Run(item.filter, func(t *testing.T) {
			tree, err := ParseFilter(decode(t, item.filter))
			require.NoError(t, err)
			require.Len(t, tree.Comparisons, 1)
			assert.Equal(t, item.kinds, kinds(tree.Comparisons[0]))
			assert.Equal(t, item.operator, tree.Comparisons[0].Filters[0].Operator())
		})
	}
}

func TestParseFilterLogical(t *testing.T) {
	tree, err := ParseFilter(decode(t, `{
		"name": "a",
		"$or": [{"age": {"$gt": 10}}, {"city": "Paris", "zip": "75001"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, expression.OperatorAnd, tree.Operator)
	require.Len(t, tree.Children, 1)
	require.Len(t, tree.Comparisons, 1)
	assert.Equal(t, "name", tree.Comparisons[0].Path)

	or := tree.Children[0]
	assert.Equal(t, expression.OperatorOr, or.Operator)
	require.Len(t, or.Comparisons, 1)
	assert.Equal(t, "age", or.Comparisons[0].Path)
	require.Len(t, or.Children, 1)
	assert.Equal(t, expression.OperatorAnd, or.Children[0].Operator)
	assert.Len(t, or.Children[0].Comparisons, 2)
}

func TestParseFilterCompiles(t *testing.T) {
	tree, err := ParseFilter(decode(t, `{"username": "user1"}`))
	require.NoError(t, err)
	compiled, err := expression.NewCompiler().Compile(tree, nil)
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, "array_contains CONTAINS ?", compiled[0].String())

	tree, err = ParseFilter(nil)
	require.NoError(t, err)
	compiled, err = expression.NewCompiler().Compile(tree, nil)
	require.NoError(t, err)
	assert.True(t, expression.IsMatchAll(compiled))
}

func TestParseFilterErrors(t *testing.T) {
	items := []struct {
		filter string
		code   e.ErrorCode
	}{
		{`{"$or": [{"_id": "doc1"}, {"name": "a"}]}`, e.UnsupportedFilter},
		{`{"$or": [{"$and": [{"_id": "doc1"}, {"name": "a"}]}]}`, e.UnsupportedFilter},
		{`{"$or": []}`, e.UnsupportedFilter},
		{`{"$or": ["a"]}`, e.UnsupportedFilter},
		{`{"$nor": [{"name": "a"}]}`, e.UnsupportedFilterOperation},
		{`{"name": {"$regex": "a.*"}}`, e.UnsupportedFilterOperation},
		{`{"name": {"$gt": "a"}}`, e.UnsupportedFilterOperation},
		{`{"active": {"$lt": true}}`, e.UnsupportedFilterOperation},
		{`{"_id": {"$gt": 1}}`, e.UnsupportedFilterOperation},
		{`{"_id": {"$nin": [1]}}`, e.UnsupportedFilterOperation},
		{`{"_id": {"a": 1}}`, e.UnsupportedFilterDataType},
		{`{"color": {"$in": "red"}}`, e.UnsupportedFilterDataType},
		{`{"email": {"$exists": 1}}`, e.UnsupportedFilterDataType},
		{`{"tags": {"$size": 1.5}}`, e.UnsupportedFilterDataType},
		{`{"age": {"$gt": [1]}}`, e.UnsupportedFilterDataType},
	}

	for _, item := range items {
		t.Run(item.filter, func(t *testing.T) {
			_, err := ParseFilter(decode(t, item.filter))
			require.Error(t, err)
			assert.Equal(t, item.code, e.Code(err))
		})
	}
}

func TestParseSort(t *testing.T) {
	fields, err := ParseSort(json.RawMessage(`{"name": 1, "age": -1, "city": 1}`))
	require.NoError(t, err)
	assert.Equal(t, []operation.SortField{
		{Path: "name", Ascending: true},
		{Path: "age", Ascending: false},
		{Path: "city", Ascending: true},
	}, fields)

	fields, err = ParseSort(nil)
	assert.NoError(t, err)
	assert.Nil(t, fields)

	for _, invalid := range []string{`[1]`, `{"name": 2}`, `{"name": "asc"}`, `{"$name": 1}`, `{"a": 1, "a": -1}`} {
		_, err = ParseSort(json.RawMessage(invalid))
		assert.Equal(t, e.InvalidRequest, e.Code(err), invalid)
	}
}

func TestParseReplacement(t *testing.T) {
	updater, err := ParseReplacement(decode(t, `{"name": "b"}`))
	require.NoError(t, err)
	doc := decode(t, `{"_id": "doc1", "name": "a", "age": 3}`)
	require.NoError(t, updater.Update(doc))
	assert.Equal(t, map[string]interface{}{"_id": "doc1", "name": "b"}, doc)

	_, err = ParseReplacement(decode(t, `{"$set": {"name": "b"}}`))
	assert.Equal(t, e.UnsupportedCommand, e.Code(err))

	_, err = ParseReplacement(decode(t, `{"_id": {"a": 1}}`))
	assert.Equal(t, e.ShredBadDocumentIDType, e.Code(err))
}
