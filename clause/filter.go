// Package clause parses the JSON clauses of a command (filter, sort and replacement documents)
// into the typed values the operations work with.
//
// A filter such as {"age": {"$gt": 25}, "status": "active"} becomes a tree of
// expression.LogicalExpression nodes holding one ComparisonExpression per path.
package clause

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/expression"
	"github.com/datastax/cassandra-document-api/filter"
)

const (
	opAnd = "$and"
	opOr  = "$or"
)

var comparisonOperators = map[string]filter.Operator{
	"$eq":  filter.EQ,
	"$ne":  filter.NE,
	"$gt":  filter.GT,
	"$gte": filter.GTE,
	"$lt":  filter.LT,
	"$lte": filter.LTE,
	"$in":  filter.IN,
	"$nin": filter.NIN,
}

// ParseFilter parses a filter document. A nil or empty document yields an empty tree which
// matches every document.
func ParseFilter(doc map[string]interface{}) (*expression.LogicalExpression, error) {
	root := expression.NewAnd()
	if err := parseInto(root, doc, false); err != nil {
		return nil, err
	}
	return root, nil
}

func parseInto(node *expression.LogicalExpression, doc map[string]interface{}, underOr bool) error {
	for _, key := range sortedKeys(doc) {
		value := doc[key]
		switch {
		case key == opAnd || key == opOr:
			child, err := parseLogical(key, value, underOr || key == opOr)
			if err != nil {
				return err
			}
			node.AddChild(child)
		case strings.HasPrefix(key, "$"):
			return e.Errorf(e.UnsupportedFilterOperation, nil, "unsupported filter operator '%s'", key)
		default:
			if key == document.IDField && underOr {
				return e.Errorf(e.UnsupportedFilter, nil, "_id filter is not supported under $or")
			}
			comparison, err := parseComparison(key, value)
			if err != nil {
				return err
			}
			node.AddComparison(comparison)
		}
	}
	return nil
}

func parseLogical(key string, value interface{}, underOr bool) (*expression.LogicalExpression, error) {
	list, ok := value.([]interface{})
	if !ok || len(list) == 0 {
		return nil, e.Errorf(e.UnsupportedFilter, nil, "%s requires a non empty array of filter documents", key)
	}
	node := expression.NewAnd()
	if key == opOr {
		node = expression.NewOr()
	}
	for _, item := range list {
		sub, ok := item.(map[string]interface{})
		if !ok {
			return nil, e.Errorf(e.UnsupportedFilter, nil, "elements of %s must be filter documents", key)
		}
		// Each element is a document whose clauses are combined with AND.
		child := expression.NewAnd()
		if err := parseInto(child, sub, underOr); err != nil {
			return nil, err
		}
		if len(sub) == 1 {
			node.Children = append(node.Children, child.Children...)
			node.Comparisons = append(node.Comparisons, child.Comparisons...)
			continue
		}
		node.AddChild(child)
	}
	return node, nil
}

func parseComparison(path string, value interface{}) (*expression.ComparisonExpression, error) {
	operators, ok := operatorDocument(value)
	if !ok {
		f, err := equality(path, filter.EQ, value)
		if err != nil {
			return nil, err
		}
		return expression.NewComparison(path, f), nil
	}

	comparison := expression.NewComparison(path)
	for _, op := range sortedKeys(operators) {
		filters, err := parseOperator(path, op, operators[op])
		if err != nil {
			return nil, err
		}
		comparison.Filters = append(comparison.Filters, filters...)
	}
	return comparison, nil
}

// operatorDocument returns value as an operator document ({"$gt": 1, ...}). Dates and literal
// sub documents are values, not operator documents.
func operatorDocument(value interface{}) (map[string]interface{}, bool) {
	m, ok := value.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil, false
	}
	if _, isDate := document.AsDate(m); isDate {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func parseOperator(path string, op string, value interface{}) ([]filter.Filter, error) {
	switch op {
	case "$exists":
		exists, ok := value.(bool)
		if !ok {
			return nil, e.Errorf(e.UnsupportedFilterDataType, nil, "$exists requires a boolean value at '%s'", path)
		}
		return single(filter.Exists(path, exists), nil)
	case "$size":
		size, ok := document.ToDecimal(value)
		if !ok || size.Scale() > 0 || !size.UnscaledBig().IsInt64() {
			return nil, e.Errorf(e.UnsupportedFilterDataType, nil, "$size requires an integer value at '%s'", path)
		}
		n := size.UnscaledBig().Int64()
		for s := size.Scale(); s < 0; s++ {
			n *= 10
		}
		return single(filter.Size(path, int(n)))
	case "$all":
		list, ok := value.([]interface{})
		if !ok {
			return nil, e.Errorf(e.UnsupportedFilterDataType, nil, "$all requires an array value at '%s'", path)
		}
		filters := make([]filter.Filter, 0, len(list))
		for _, v := range list {
			f, err := filter.All(path, v)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
		return filters, nil
	}

	operator, ok := comparisonOperators[op]
	if !ok {
		return nil, e.Errorf(e.UnsupportedFilterOperation, nil, "unsupported filter operator '%s' at '%s'", op, path)
	}

	switch operator {
	case filter.IN, filter.NIN:
		list, ok := value.([]interface{})
		if !ok {
			return nil, e.Errorf(e.UnsupportedFilterDataType, nil, "%s requires an array value at '%s'", op, path)
		}
		if path == document.IDField {
			if operator == filter.NIN {
				return nil, e.Errorf(e.UnsupportedFilterOperation, nil, "$nin is not supported on _id")
			}
			ids, err := toIDs(list)
			if err != nil {
				return nil, err
			}
			return single(filter.ID(filter.IN, ids...))
		}
		return single(filter.In(path, operator, list))
	case filter.GT, filter.GTE, filter.LT, filter.LTE:
		return single(rangeFilter(path, operator, value))
	default:
		return single(equality(path, operator, value))
	}
}

func rangeFilter(path string, op filter.Operator, value interface{}) (filter.Filter, error) {
	if path == document.IDField {
		return filter.Filter{}, e.Errorf(e.UnsupportedFilterOperation, nil, "%s is not supported on _id", op)
	}
	if t, ok := document.AsDate(value); ok {
		return filter.Date(path, op, t)
	}
	switch v := value.(type) {
	case string:
		return filter.Text(path, op, v)
	case bool:
		return filter.Bool(path, op, v)
	}
	if _, ok := document.ToDecimal(value); ok {
		return filter.Number(path, op, value)
	}
	return filter.Filter{}, e.Errorf(e.UnsupportedFilterDataType, nil,
		"unsupported value for %s at '%s', must be a number or a date", op, path)
}

// equality builds an EQ or NE filter, the value type selects the filter kind
func equality(path string, op filter.Operator, value interface{}) (filter.Filter, error) {
	if path == document.IDField {
		id, err := document.NewID(value)
		if err != nil {
			return filter.Filter{}, err
		}
		return filter.ID(op, id)
	}

	switch v := value.(type) {
	case nil:
		return filter.IsNull(path, op)
	case string:
		return filter.Text(path, op, v)
	case bool:
		return filter.Bool(path, op, v)
	case []interface{}:
		return filter.ArrayEquals(path, op, v)
	case map[string]interface{}:
		if t, ok := document.AsDate(v); ok {
			return filter.Date(path, op, t)
		}
		return filter.SubDocEquals(path, op, v)
	case json.Number:
		return filter.Number(path, op, v)
	}
	if _, ok := document.ToDecimal(value); ok {
		return filter.Number(path, op, value)
	}
	return filter.Filter{}, e.Errorf(e.UnsupportedFilterDataType, nil, "unsupported filter value %v at '%s'", value, path)
}

func toIDs(values []interface{}) ([]document.ID, error) {
	ids := make([]document.ID, 0, len(values))
	for _, v := range values {
		id, err := document.NewID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func single(f filter.Filter, err error) ([]filter.Filter, error) {
	if err != nil {
		return nil, err
	}
	return []filter.Filter{f}, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
