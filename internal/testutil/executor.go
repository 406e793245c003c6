package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/document"
	"github.com/datastax/cassandra-document-api/expression"
	"github.com/datastax/cassandra-document-api/types"
	"github.com/gocql/gocql"
	"go.uber.org/atomic"
	"gopkg.in/inf.v0"
)

type storedRow struct {
	doc  *document.WritableDocument
	txID gocql.UUID
}

// FakeExecutor is an in memory db.Executor evaluating the compiled expressions carried by the
// statements against shredded documents. It honours conditional writes so version conflicts can
// be reproduced with the BeforeWrite hook.
type FakeExecutor struct {
	mu   sync.Mutex
	rows map[string]*storedRow

	Reads  atomic.Int64
	Writes atomic.Int64
	Counts atomic.Int64

	// BeforeWrite is called before a write is evaluated, outside of the executor lock
	BeforeWrite func(stmt *db.Statement)
	// ReadError, when set, fails every read
	ReadError error
}

var _ db.Executor = (*FakeExecutor)(nil)

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{rows: map[string]*storedRow{}}
}

func rowKey(id document.ID) string {
	return fmt.Sprintf("%d:%s", id.Type, id.Value)
}

// Insert stores documents directly, bypassing conditional writes
func (f *FakeExecutor) Insert(docs ...*document.WritableDocument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range docs {
		f.rows[rowKey(doc.ID)] = &storedRow{doc: doc, txID: gocql.TimeUUID()}
	}
}

// Touch gives a document a new version token, as a concurrent writer would
func (f *FakeExecutor) Touch(id document.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[rowKey(id)]; ok {
		row.txID = gocql.TimeUUID()
	}
}

// Remove deletes a document, as a concurrent writer would
func (f *FakeExecutor) Remove(id document.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, rowKey(id))
}

// Get returns the stored document body
func (f *FakeExecutor) Get(id document.ID) (map[string]interface{}, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[rowKey(id)]
	if !ok {
		return nil, false
	}
	return document.DeepCopy(row.doc.Doc), true
}

func (f *FakeExecutor) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *FakeExecutor) matching(where expression.Expression) []*storedRow {
	keys := make([]string, 0, len(f.rows))
	for k := range f.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]*storedRow, 0)
	for _, k := range keys {
		row := f.rows[k]
		if where == nil || evaluate(where, row.doc) {
			result = append(result, row)
		}
	}
	return result
}

func (f *FakeExecutor) ExecuteRead(ctx context.Context, stmt *db.Statement, pageState []byte, pageSize int) (*db.ResultPage, error) {
	f.Reads.Inc()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ReadError != nil {
		return nil, f.ReadError
	}
	info, ok := stmt.Info.(*db.SelectInfo)
	if !ok {
		return nil, fmt.Errorf("unexpected read statement %s", stmt.CQL)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	matching := f.matching(info.Where)
	offset := 0
	if len(pageState) > 0 {
		var err error
		if offset, err = strconv.Atoi(string(pageState)); err != nil {
			return nil, err
		}
	}
	end := len(matching)
	if pageSize > 0 && offset+pageSize < end {
		end = offset + pageSize
	}

	page := &db.ResultPage{Rows: make([]*db.Row, 0)}
	for i := offset; i < end; i++ {
		page.Rows = append(page.Rows, toRow(matching[i], info.SortColumns))
	}
	if end < len(matching) {
		page.PageState = []byte(strconv.Itoa(end))
	}
	return page, nil
}

func toRow(stored *storedRow, sortColumns bool) *db.Row {
	row := &db.Row{ID: stored.doc.ID, TxID: stored.txID, DocJSON: stored.doc.DocJSON}
	if sortColumns {
		row.BoolValues = stored.doc.QueryBoolValues
		row.DblValues = stored.doc.QueryDblValues
		row.TextValues = stored.doc.QueryTextValues
		row.TimestampValues = stored.doc.QueryTimestampValues
		row.NullValues = stored.doc.QueryNullValues
	}
	return row
}

func (f *FakeExecutor) ExecuteWrite(ctx context.Context, stmt *db.Statement) (bool, error) {
	f.Writes.Inc()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if f.BeforeWrite != nil {
		f.BeforeWrite(stmt)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch info := stmt.Info.(type) {
	case *db.InsertInfo:
		key := rowKey(info.Document.ID)
		if _, exists := f.rows[key]; exists {
			return false, nil
		}
		f.rows[key] = &storedRow{doc: info.Document, txID: gocql.TimeUUID()}
		return true, nil
	case *db.UpdateInfo:
		row, exists := f.rows[rowKey(info.Document.ID)]
		if !exists || row.txID != info.TxID {
			return false, nil
		}
		row.doc = info.Document
		row.txID = gocql.TimeUUID()
		return true, nil
	case *db.DeleteInfo:
		key := rowKey(info.ID)
		row, exists := f.rows[key]
		if !exists || row.txID != info.TxID {
			return false, nil
		}
		delete(f.rows, key)
		return true, nil
	}
	return false, fmt.Errorf("unexpected write statement %s", stmt.CQL)
}

func (f *FakeExecutor) ExecuteCount(ctx context.Context, stmt *db.Statement) (int64, error) {
	f.Counts.Inc()
	info, ok := stmt.Info.(*db.CountInfo)
	if !ok {
		return 0, fmt.Errorf("unexpected count statement %s", stmt.CQL)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(info.Where))), nil
}

func (f *FakeExecutor) ExecuteSchema(ctx context.Context, stmt *db.Statement) error {
	return nil
}

func evaluate(expr expression.Expression, doc *document.WritableDocument) bool {
	switch expr := expr.(type) {
	case *expression.And:
		for _, child := range expr.Children {
			if !evaluate(child, doc) {
				return false
			}
		}
		return true
	case *expression.Or:
		for _, child := range expr.Children {
			if evaluate(child, doc) {
				return true
			}
		}
		return false
	case *expression.Variable:
		return evaluateCondition(expr.Condition, doc)
	}
	panic(fmt.Sprintf("unexpected expression %T", expr))
}

func evaluateCondition(c types.ConditionItem, doc *document.WritableDocument) bool {
	switch c.Column {
	case document.ColumnKey:
		key := c.Value.([]interface{})
		return int8(doc.ID.Type) == key[0].(int8) && doc.ID.Value == key[1].(string)
	case document.ColumnArrayContains:
		return containsCondition(c, doc.ArrayContains)
	case document.ColumnExistKeys:
		return containsCondition(c, doc.ExistKeys)
	case document.ColumnQueryNullValues:
		return containsCondition(c, doc.QueryNullValues)
	case document.ColumnArraySize:
		size, ok := doc.ArraySize[c.Key]
		return ok && compare(c.Operator, size-c.Value.(int))
	case document.ColumnQueryDblValues:
		d, ok := doc.QueryDblValues[c.Key]
		return ok && compare(c.Operator, d.Cmp(c.Value.(*inf.Dec)))
	case document.ColumnQueryTimestampValues:
		t, ok := doc.QueryTimestampValues[c.Key]
		return ok && compare(c.Operator, t.Compare(c.Value.(time.Time)))
	}
	panic(fmt.Sprintf("unexpected condition column %s", c.Column))
}

func containsCondition(c types.ConditionItem, values []string) bool {
	found := false
	for _, v := range values {
		if v == c.Value.(string) {
			found = true
			break
		}
	}
	if c.Operator == types.OperatorNotContains {
		return !found
	}
	return found
}

func compare(operator string, c int) bool {
	switch operator {
	case types.OperatorEq:
		return c == 0
	case types.OperatorNotEq:
		return c != 0
	case types.OperatorGt:
		return c > 0
	case types.OperatorGte:
		return c >= 0
	case types.OperatorLt:
		return c < 0
	case types.OperatorLte:
		return c <= 0
	}
	panic("unexpected operator " + operator)
}
