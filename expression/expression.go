package expression

import (
	"strings"

	"github.com/datastax/cassandra-document-api/filter"
	"github.com/datastax/cassandra-document-api/types"
)

type LogicalOperator int

const (
	OperatorAnd LogicalOperator = iota
	OperatorOr
)

func (o LogicalOperator) String() string {
	if o == OperatorOr {
		return "OR"
	}
	return "AND"
}

// ComparisonExpression holds the filters of one path, they are implicitly combined with AND
type ComparisonExpression struct {
	Path    string
	Filters []filter.Filter
}

func NewComparison(path string, filters ...filter.Filter) *ComparisonExpression {
	return &ComparisonExpression{Path: path, Filters: filters}
}

// LogicalExpression is a node of the filter tree as described by the client
type LogicalExpression struct {
	Operator    LogicalOperator
	Children    []*LogicalExpression
	Comparisons []*ComparisonExpression
}

func NewAnd() *LogicalExpression {
	return &LogicalExpression{Operator: OperatorAnd}
}

func NewOr() *LogicalExpression {
	return &LogicalExpression{Operator: OperatorOr}
}

func (l *LogicalExpression) AddChild(child *LogicalExpression) *LogicalExpression {
	l.Children = append(l.Children, child)
	return l
}

func (l *LogicalExpression) AddComparison(comparison *ComparisonExpression) *LogicalExpression {
	l.Comparisons = append(l.Comparisons, comparison)
	return l
}

func (l *LogicalExpression) IsEmpty() bool {
	return l == nil || (len(l.Children) == 0 && len(l.Comparisons) == 0)
}

// Filters returns all the filters in the tree, depth first
func (l *LogicalExpression) Filters() []filter.Filter {
	if l == nil {
		return nil
	}
	var filters []filter.Filter
	for _, c := range l.Comparisons {
		filters = append(filters, c.Filters...)
	}
	for _, child := range l.Children {
		filters = append(filters, child.Filters()...)
	}
	return filters
}

// Expression is a compiled boolean expression over backend predicates: *And, *Or or *Variable
type Expression interface {
	String() string
	isExpression()
}

type And struct {
	Children []Expression
}

type Or struct {
	Children []Expression
}

type Variable struct {
	Condition types.ConditionItem
}

func (*And) isExpression()      {}
func (*Or) isExpression()       {}
func (*Variable) isExpression() {}

func (a *And) String() string {
	return join(a.Children, " AND ")
}

func (o *Or) String() string {
	return join(o.Children, " OR ")
}

func (v *Variable) String() string {
	c := v.Condition
	column := c.Column
	if c.HasKey() {
		column += "[" + c.Key + "]"
	}
	return column + " " + c.Operator + " ?"
}

func join(children []Expression, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// IsNoMatch reports whether a compiled result can not match any document
func IsNoMatch(expressions []Expression) bool {
	return expressions != nil && len(expressions) == 0
}

// IsMatchAll reports whether a compiled result matches every document
func IsMatchAll(expressions []Expression) bool {
	return len(expressions) == 1 && expressions[0] == nil
}
