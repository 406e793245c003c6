package filter

import (
	"time"

	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/types"
)

// Render returns the single predicate of the filter. ID and In filters may render to any number
// of predicates and only support RenderAll.
func (f Filter) Render() (types.ConditionItem, error) {
	switch f.kind {
	case KindText, KindBool, KindArrayEquals, KindSubDocEquals:
		return f.containsCondition(f.value)
	case KindNumber:
		if f.operator.IsRange() {
			return f.rangeCondition(document.ColumnQueryDblValues, f.value)
		}
		return f.containsCondition(f.value)
	case KindDate:
		if f.operator.IsRange() {
			return f.rangeCondition(document.ColumnQueryTimestampValues, f.value)
		}
		return f.containsCondition(document.DateValue(f.value.(time.Time)))
	case KindAll:
		return f.containsCondition(f.value)
	case KindIsNull:
		return f.pathCondition(document.ColumnQueryNullValues), nil
	case KindExists:
		return f.pathCondition(document.ColumnExistKeys), nil
	case KindSize:
		return types.ConditionItem{
			Column:   document.ColumnArraySize,
			Key:      f.path,
			Operator: types.OperatorEq,
			Value:    f.value,
		}, nil
	case KindID, KindIn:
		return types.ConditionItem{}, e.Errorf(e.UnsupportedFilterOperation, nil,
			"%s filter renders to multiple conditions", f.kind)
	}
	return types.ConditionItem{}, e.Errorf(e.UnsupportedFilter, nil, "unknown filter kind %d", f.kind)
}

// RenderAll returns the predicates of an ID or In filter. For ID EQ and IN there is one key
// predicate per id; for In there is one containment predicate per value. An empty result is
// possible and left to the caller to interpret.
func (f Filter) RenderAll() ([]types.ConditionItem, error) {
	switch f.kind {
	case KindID:
		if f.operator == NE {
			c, err := f.containsCondition(f.ids[0].JSON())
			if err != nil {
				return nil, err
			}
			return []types.ConditionItem{c}, nil
		}
		conditions := make([]types.ConditionItem, 0, len(f.ids))
		for _, id := range f.ids {
			conditions = append(conditions, types.ConditionItem{
				Column:   document.ColumnKey,
				Operator: types.OperatorEq,
				Value:    id.Key(),
			})
		}
		return conditions, nil
	case KindIn:
		conditions := make([]types.ConditionItem, 0, len(f.values))
		for _, v := range f.values {
			entry, err := document.HashEntry(hasher, f.path, v)
			if err != nil {
				return nil, err
			}
			operator := types.OperatorContains
			if f.operator == NIN {
				operator = types.OperatorNotContains
			}
			conditions = append(conditions, types.ConditionItem{
				Column:   document.ColumnArrayContains,
				Operator: operator,
				Value:    entry,
			})
		}
		return conditions, nil
	}
	return nil, e.Errorf(e.UnsupportedFilterOperation, nil, "%s filter renders to a single condition", f.kind)
}

func (f Filter) containsCondition(value interface{}) (types.ConditionItem, error) {
	entry, err := document.HashEntry(hasher, f.path, value)
	if err != nil {
		return types.ConditionItem{}, err
	}
	return types.ConditionItem{
		Column:   document.ColumnArrayContains,
		Operator: containsOperator(f.operator),
		Value:    entry,
	}, nil
}

func (f Filter) pathCondition(column string) types.ConditionItem {
	return types.ConditionItem{
		Column:   column,
		Operator: containsOperator(f.operator),
		Value:    f.path,
	}
}

func (f Filter) rangeCondition(column string, value interface{}) (types.ConditionItem, error) {
	operator, ok := rangeOperators[f.operator]
	if !ok {
		return types.ConditionItem{}, e.Errorf(e.UnsupportedFilterOperation, nil,
			"unsupported operation %s for %s filter", f.operator, f.kind)
	}
	return types.ConditionItem{
		Column:   column,
		Key:      f.path,
		Operator: operator,
		Value:    value,
	}, nil
}

func containsOperator(op Operator) string {
	if op == NE || op == NIN {
		return types.OperatorNotContains
	}
	return types.OperatorContains
}
