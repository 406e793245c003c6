// Package filter contains the typed comparison filters a query is made of and their rendering into
// backend predicates against the shredded document columns.
package filter

import (
	"encoding/json"
	"time"

	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/types"
	"gopkg.in/inf.v0"
)

type Kind int

const (
	KindText Kind = iota + 1
	KindBool
	KindNumber
	KindDate
	KindID
	KindIn
	KindIsNull
	KindExists
	KindAll
	KindSize
	KindArrayEquals
	KindSubDocEquals
)

var kindNames = map[Kind]string{
	KindText:         "text",
	KindBool:         "bool",
	KindNumber:       "number",
	KindDate:         "date",
	KindID:           "id",
	KindIn:           "in",
	KindIsNull:       "isNull",
	KindExists:       "exists",
	KindAll:          "all",
	KindSize:         "size",
	KindArrayEquals:  "arrayEquals",
	KindSubDocEquals: "subDocEquals",
}

func (k Kind) String() string {
	return kindNames[k]
}

type Operator int

const (
	EQ Operator = iota + 1
	NE
	GT
	GTE
	LT
	LTE
	IN
	NIN
)

var operatorNames = map[Operator]string{
	EQ:  "$eq",
	NE:  "$ne",
	GT:  "$gt",
	GTE: "$gte",
	LT:  "$lt",
	LTE: "$lte",
	IN:  "$in",
	NIN: "$nin",
}

func (o Operator) String() string {
	return operatorNames[o]
}

// IsRange reports whether the operator compares by order rather than equality
func (o Operator) IsRange() bool {
	switch o {
	case GT, GTE, LT, LTE:
		return true
	}
	return false
}

var rangeOperators = map[Operator]string{
	GT:  types.OperatorGt,
	GTE: types.OperatorGte,
	LT:  types.OperatorLt,
	LTE: types.OperatorLte,
}

var hasher = document.NewHasher()

// Filter is an immutable comparison against a single document path. The kind decides which value
// is held and how the filter renders.
type Filter struct {
	kind     Kind
	path     string
	operator Operator
	value    interface{}
	values   []interface{}
	ids      []document.ID
}

func (f Filter) Kind() Kind {
	return f.kind
}

func (f Filter) Path() string {
	return f.path
}

func (f Filter) Operator() Operator {
	return f.operator
}

// Value is the comparison value: string, bool, *inf.Dec, time.Time, int, []interface{} or
// map[string]interface{} depending on the kind.
func (f Filter) Value() interface{} {
	return f.value
}

// Values holds the candidate values of an In filter
func (f Filter) Values() []interface{} {
	return f.values
}

// IDs holds the ids compared by an ID filter
func (f Filter) IDs() []document.ID {
	return f.ids
}

func (f Filter) String() string {
	return f.kind.String() + "(" + f.path + " " + f.operator.String() + ")"
}

func checkOperator(kind Kind, op Operator, allowed ...Operator) error {
	for _, a := range allowed {
		if op == a {
			return nil
		}
	}
	return e.Errorf(e.UnsupportedFilterOperation, nil, "unsupported operation %s for %s filter", op, kind)
}

func Text(path string, op Operator, value string) (Filter, error) {
	if err := checkOperator(KindText, op, EQ, NE); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindText, path: path, operator: op, value: value}, nil
}

func Bool(path string, op Operator, value bool) (Filter, error) {
	if err := checkOperator(KindBool, op, EQ, NE); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindBool, path: path, operator: op, value: value}, nil
}

// Number accepts any JSON number representation, it is held as a normalised *inf.Dec
func Number(path string, op Operator, value interface{}) (Filter, error) {
	if err := checkOperator(KindNumber, op, EQ, NE, GT, GTE, LT, LTE); err != nil {
		return Filter{}, err
	}
	d, ok := document.ToDecimal(value)
	if !ok {
		return Filter{}, e.Errorf(e.UnsupportedFilterDataType, nil, "unsupported number value %v at '%s'", value, path)
	}
	return Filter{kind: KindNumber, path: path, operator: op, value: d}, nil
}

func Date(path string, op Operator, value time.Time) (Filter, error) {
	if err := checkOperator(KindDate, op, EQ, NE, GT, GTE, LT, LTE); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindDate, path: path, operator: op, value: value.UTC()}, nil
}

// ID filters the primary key, EQ and NE take exactly one id
func ID(op Operator, ids ...document.ID) (Filter, error) {
	if err := checkOperator(KindID, op, EQ, NE, IN); err != nil {
		return Filter{}, err
	}
	if op != IN && len(ids) != 1 {
		return Filter{}, e.Errorf(e.UnsupportedFilter, nil, "%s id filter requires exactly one id", op)
	}
	return Filter{kind: KindID, path: document.IDField, operator: op, ids: ids}, nil
}

// In matches documents where path holds (IN) or does not hold (NIN) any of the values
func In(path string, op Operator, values []interface{}) (Filter, error) {
	if err := checkOperator(KindIn, op, IN, NIN); err != nil {
		return Filter{}, err
	}
	for _, v := range values {
		if _, err := hasher.Hash(v); err != nil {
			return Filter{}, err
		}
	}
	return Filter{kind: KindIn, path: path, operator: op, values: values}, nil
}

// IsNull with EQ matches an explicit null value, NE matches anything else
func IsNull(path string, op Operator) (Filter, error) {
	if err := checkOperator(KindIsNull, op, EQ, NE); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindIsNull, path: path, operator: op}, nil
}

func Exists(path string, exists bool) Filter {
	op := EQ
	if !exists {
		op = NE
	}
	return Filter{kind: KindExists, path: path, operator: op, value: exists}
}

// All matches arrays at path containing value, a $all clause becomes one filter per element
func All(path string, value interface{}) (Filter, error) {
	if _, err := hasher.Hash(value); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindAll, path: path, operator: EQ, value: value}, nil
}

func Size(path string, size int) (Filter, error) {
	if size < 0 {
		return Filter{}, e.Errorf(e.UnsupportedFilterDataType, nil, "$size must not be negative at '%s'", path)
	}
	return Filter{kind: KindSize, path: path, operator: EQ, value: size}, nil
}

func ArrayEquals(path string, op Operator, value []interface{}) (Filter, error) {
	if err := checkOperator(KindArrayEquals, op, EQ, NE); err != nil {
		return Filter{}, err
	}
	if _, err := hasher.Hash(value); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindArrayEquals, path: path, operator: op, value: value}, nil
}

func SubDocEquals(path string, op Operator, value map[string]interface{}) (Filter, error) {
	if err := checkOperator(KindSubDocEquals, op, EQ, NE); err != nil {
		return Filter{}, err
	}
	if _, err := hasher.Hash(value); err != nil {
		return Filter{}, err
	}
	return Filter{kind: KindSubDocEquals, path: path, operator: op, value: value}, nil
}

// CanAddToUpsert reports whether the filter pins a single value that an upserted document must hold
func (f Filter) CanAddToUpsert() bool {
	if f.operator != EQ {
		return false
	}
	switch f.kind {
	case KindText, KindBool, KindNumber, KindDate, KindID, KindIsNull, KindArrayEquals, KindSubDocEquals:
		return true
	}
	return false
}

// UpsertValue returns the JSON value the filter pins at its path, see CanAddToUpsert
func (f Filter) UpsertValue() (interface{}, error) {
	if !f.CanAddToUpsert() {
		return nil, e.Errorf(e.UnsupportedFilterOperation, nil, "%s can not be used to build an upsert document", f)
	}
	switch f.kind {
	case KindNumber:
		return json.Number(document.DecimalString(f.value.(*inf.Dec))), nil
	case KindDate:
		return document.DateValue(f.value.(time.Time)), nil
	case KindID:
		return f.ids[0].JSON(), nil
	case KindIsNull:
		return nil, nil
	case KindArrayEquals, KindSubDocEquals:
		return document.DeepCopy(map[string]interface{}{"v": f.value})["v"], nil
	default:
		return f.value, nil
	}
}
