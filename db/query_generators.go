package db

import (
	"fmt"
	"strings"

	"github.com/datastax/cassandra-document-api/document"
	"github.com/datastax/cassandra-document-api/expression"
	"github.com/datastax/cassandra-document-api/types"
	"github.com/gocql/gocql"
)

// Statement is a CQL statement with its bind values
type Statement struct {
	CQL    string
	Values []interface{}
	// Info is the description the statement was generated from: *SelectInfo, *CountInfo,
	// *InsertInfo, *UpdateInfo or *DeleteInfo
	Info interface{}
}

type SelectInfo struct {
	Keyspace string
	Table    string
	Where    expression.Expression
	// SortColumns selects the typed value columns needed to order documents client side
	SortColumns bool
	Limit       int
}

type CountInfo struct {
	Keyspace string
	Table    string
	Where    expression.Expression
}

type InsertInfo struct {
	Keyspace string
	Table    string
	Document *document.WritableDocument
}

type UpdateInfo struct {
	Keyspace string
	Table    string
	Document *document.WritableDocument
	TxID     gocql.UUID
}

type DeleteInfo struct {
	Keyspace string
	Table    string
	ID       document.ID
	TxID     gocql.UUID
}

var documentColumns = []string{
	document.ColumnExistKeys,
	document.ColumnArraySize,
	document.ColumnArrayContains,
	document.ColumnQueryBoolValues,
	document.ColumnQueryDblValues,
	document.ColumnQueryTextValues,
	document.ColumnQueryTimestampValues,
	document.ColumnQueryNullValues,
}

func tableName(keyspace string, table string) string {
	return fmt.Sprintf(`"%s"."%s"`, keyspace, table)
}

func SelectStatement(info *SelectInfo) *Statement {
	columns := []string{document.ColumnKey, document.ColumnTxID, document.ColumnDocJSON}
	if info.SortColumns {
		columns = append(columns, document.SortColumns...)
	}

	values := make([]interface{}, 0)
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), tableName(info.Keyspace, info.Table))
	if info.Where != nil {
		query += " WHERE " + renderWhere(info.Where, &values)
	}
	if info.Limit > 0 {
		query += " LIMIT ?"
		values = append(values, info.Limit)
	}
	return &Statement{CQL: query, Values: values, Info: info}
}

func CountStatement(info *CountInfo) *Statement {
	values := make([]interface{}, 0)
	query := fmt.Sprintf("SELECT COUNT(1) FROM %s", tableName(info.Keyspace, info.Table))
	if info.Where != nil {
		query += " WHERE " + renderWhere(info.Where, &values)
	}
	return &Statement{CQL: query, Values: values, Info: info}
}

func InsertStatement(info *InsertInfo) *Statement {
	placeholders := "?, now(), ?"
	for range documentColumns {
		placeholders += ", ?"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s) VALUES (%s) IF NOT EXISTS",
		tableName(info.Keyspace, info.Table), document.ColumnKey, document.ColumnTxID, document.ColumnDocJSON,
		strings.Join(documentColumns, ", "), placeholders)

	values := []interface{}{info.Document.ID.Key(), info.Document.DocJSON}
	values = append(values, documentValues(info.Document)...)
	return &Statement{CQL: query, Values: values, Info: info}
}

func UpdateStatement(info *UpdateInfo) *Statement {
	setClause := fmt.Sprintf("%s = now(), %s = ?", document.ColumnTxID, document.ColumnDocJSON)
	for _, column := range documentColumns {
		setClause += fmt.Sprintf(", %s = ?", column)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ? IF %s = ?",
		tableName(info.Keyspace, info.Table), setClause, document.ColumnKey, document.ColumnTxID)

	values := []interface{}{info.Document.DocJSON}
	values = append(values, documentValues(info.Document)...)
	values = append(values, info.Document.ID.Key(), info.TxID)
	return &Statement{CQL: query, Values: values, Info: info}
}

func DeleteStatement(info *DeleteInfo) *Statement {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ? IF %s = ?",
		tableName(info.Keyspace, info.Table), document.ColumnKey, document.ColumnTxID)
	return &Statement{CQL: query, Values: []interface{}{info.ID.Key(), info.TxID}, Info: info}
}

// documentValues returns the bind values of documentColumns, in order
func documentValues(doc *document.WritableDocument) []interface{} {
	return []interface{}{
		doc.ExistKeys,
		doc.ArraySize,
		doc.ArrayContains,
		doc.QueryBoolValues,
		doc.QueryDblValues,
		doc.QueryTextValues,
		doc.QueryTimestampValues,
		doc.QueryNullValues,
	}
}

// renderWhere renders the top level without enclosing parentheses
func renderWhere(expr expression.Expression, values *[]interface{}) string {
	switch expr := expr.(type) {
	case *expression.And:
		return renderChildren(expr.Children, " AND ", values)
	case *expression.Or:
		return renderChildren(expr.Children, " OR ", values)
	}
	return renderExpression(expr, values)
}

func renderExpression(expr expression.Expression, values *[]interface{}) string {
	switch expr := expr.(type) {
	case *expression.And:
		return "(" + renderChildren(expr.Children, " AND ", values) + ")"
	case *expression.Or:
		return "(" + renderChildren(expr.Children, " OR ", values) + ")"
	case *expression.Variable:
		return buildCondition(expr.Condition, values)
	}
	panic(fmt.Sprintf("unexpected expression type %T", expr))
}

func renderChildren(children []expression.Expression, sep string, values *[]interface{}) string {
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = renderExpression(child, values)
	}
	return strings.Join(parts, sep)
}

func buildCondition(item types.ConditionItem, queryParameters *[]interface{}) string {
	if item.HasKey() {
		*queryParameters = append(*queryParameters, item.Key, item.Value)
		return fmt.Sprintf("%s[?] %s ?", item.Column, item.Operator)
	}
	*queryParameters = append(*queryParameters, item.Value)
	return fmt.Sprintf("%s %s ?", item.Column, item.Operator)
}
