// Package expression holds the client filter tree and compiles it into boolean expressions over
// backend predicates.
package expression

import (
	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/filter"
	"github.com/datastax/cassandra-document-api/types"
)

var (
	alwaysTrue = &Variable{Condition: types.ConditionItem{
		Column:   document.ColumnQueryNullValues,
		Operator: types.OperatorNotContains,
		Value:    document.NeverWrittenPath,
	}}
	alwaysFalse = &Variable{Condition: types.ConditionItem{
		Column:   document.ColumnQueryNullValues,
		Operator: types.OperatorContains,
		Value:    document.NeverWrittenPath,
	}}
)

// AlwaysTrue returns a predicate matched by every document
func AlwaysTrue() Expression {
	v := *alwaysTrue
	return &v
}

// AlwaysFalse returns a predicate matched by no document
func AlwaysFalse() Expression {
	v := *alwaysFalse
	return &v
}

type Compiler struct{}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile turns the tree into the expressions to run. The result is []Expression{nil} when
// everything matches, an empty slice when nothing can match (see IsNoMatch), and one expression
// per id when the documents are addressed by primary key. When idFilter is set it is used as the
// primary key filter and any _id filter in the tree is ignored.
func (c *Compiler) Compile(tree *LogicalExpression, idFilter *filter.Filter) ([]Expression, error) {
	if tree.IsEmpty() && idFilter == nil {
		return []Expression{nil}, nil
	}

	var (
		root Expression
		ids  []filter.Filter
		err  error
	)
	if !tree.IsEmpty() {
		root, ids, err = c.compileNode(tree, idFilter == nil)
		if err != nil {
			return nil, err
		}
	}

	if idFilter == nil {
		if len(ids) > 1 {
			return nil, e.Errorf(e.UnsupportedFilter, nil, "multiple id filters")
		}
		if len(ids) == 0 {
			return []Expression{root}, nil
		}
		idFilter = &ids[0]
	}

	conditions, err := idFilter.RenderAll()
	if err != nil {
		return nil, err
	}

	result := make([]Expression, 0, len(conditions))
	for _, condition := range conditions {
		variable := &Variable{Condition: condition}
		if root == nil {
			result = append(result, variable)
		} else {
			result = append(result, &And{Children: []Expression{variable, root}})
		}
	}
	return result, nil
}

func (c *Compiler) compileNode(node *LogicalExpression, collectIDs bool) (Expression, []filter.Filter, error) {
	var (
		children []Expression
		ids      []filter.Filter
		// unconstrained is set when a child or an id filter placed no condition on the node
		unconstrained bool
	)

	for _, child := range node.Children {
		expr, childIDs, err := c.compileNode(child, collectIDs)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, childIDs...)
		if expr != nil {
			children = append(children, expr)
		} else {
			unconstrained = true
		}
	}

	// A $in with no values matches nothing and a $nin with no values matches everything. Such a
	// filter only decides the node when no other filter of the same operator at this level has values.
	hasIn, allInEmpty, anyInEmpty := false, true, false
	hasNin, allNinEmpty := false, true

	for _, comparison := range node.Comparisons {
		for _, f := range comparison.Filters {
			switch f.Kind() {
			case filter.KindID:
				unconstrained = true
				if collectIDs {
					ids = append(ids, f)
				}
			case filter.KindIn:
				conditions, err := f.RenderAll()
				if err != nil {
					return nil, nil, err
				}
				if f.Operator() == filter.IN {
					hasIn = true
					allInEmpty = allInEmpty && len(conditions) == 0
					anyInEmpty = anyInEmpty || len(conditions) == 0
				} else {
					hasNin = true
					allNinEmpty = allNinEmpty && len(conditions) == 0
				}
				if len(conditions) == 0 {
					continue
				}
				variables := make([]Expression, len(conditions))
				for i, condition := range conditions {
					variables[i] = &Variable{Condition: condition}
				}
				if f.Operator() == filter.IN {
					children = append(children, collapse(&Or{Children: variables}))
				} else {
					children = append(children, collapse(&And{Children: variables}))
				}
			default:
				condition, err := f.Render()
				if err != nil {
					return nil, nil, err
				}
				children = append(children, &Variable{Condition: condition})
			}
		}
	}

	if node.Operator == OperatorAnd && hasIn && allInEmpty {
		return AlwaysFalse(), ids, nil
	}
	if node.Operator == OperatorOr && hasNin && allNinEmpty {
		return AlwaysTrue(), ids, nil
	}

	if len(children) == 0 {
		// Every disjunct was an empty $in
		if node.Operator == OperatorOr && anyInEmpty && !unconstrained {
			return AlwaysFalse(), ids, nil
		}
		return nil, ids, nil
	}
	if node.Operator == OperatorOr {
		return collapse(&Or{Children: children}), ids, nil
	}
	return collapse(&And{Children: children}), ids, nil
}

func collapse(expr Expression) Expression {
	switch expr := expr.(type) {
	case *And:
		if len(expr.Children) == 1 {
			return expr.Children[0]
		}
	case *Or:
		if len(expr.Children) == 1 {
			return expr.Children[0]
		}
	}
	return expr
}
