// types package contains the public API types
// that are shared between the operations, the query builder and the REST API
package types

import "net/http"

// ConditionItem is a single rendered backend predicate. When Key is set the predicate applies to a
// map entry: "column[key] operator value".
type ConditionItem struct {
	Column   string      `json:"column"`
	Key      string      `json:"key,omitempty"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// CQL predicate operators
const (
	OperatorEq          = "="
	OperatorNotEq       = "!="
	OperatorGt          = ">"
	OperatorGte         = ">="
	OperatorLt          = "<"
	OperatorLte         = "<="
	OperatorContains    = "CONTAINS"
	OperatorNotContains = "NOT CONTAINS"
)

// HasKey reports whether the condition targets a map entry
func (c ConditionItem) HasKey() bool {
	return c.Key != ""
}

// Route represents a request route to be served
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler
}
