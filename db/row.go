package db

import (
	"fmt"
	"time"

	"github.com/datastax/cassandra-document-api/document"
	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"
)

// Row is a document read from the table. The typed value columns are only populated when the
// statement selected them (see SelectInfo.SortColumns).
type Row struct {
	ID              document.ID
	TxID            gocql.UUID
	DocJSON         string
	BoolValues      map[string]int8
	DblValues       map[string]*inf.Dec
	TextValues      map[string]string
	TimestampValues map[string]time.Time
	NullValues      []string
}

type ResultPage struct {
	Rows []*Row
	// PageState is empty when there are no more pages
	PageState []byte
}

// Tuple columns are scanned as one value per element
var (
	keyTypeColumn  = gocql.TupleColumnName(document.ColumnKey, 0)
	keyValueColumn = gocql.TupleColumnName(document.ColumnKey, 1)
)

func rowFromMap(values map[string]interface{}) (*Row, error) {
	keyType, ok := values[keyTypeColumn].(int8)
	if !ok {
		return nil, fmt.Errorf("unexpected key type %T", values[keyTypeColumn])
	}
	keyValue, _ := values[keyValueColumn].(string)
	id, err := document.IDFromKey(keyType, keyValue)
	if err != nil {
		return nil, err
	}

	row := &Row{ID: id}
	if row.TxID, ok = values[document.ColumnTxID].(gocql.UUID); !ok {
		return nil, fmt.Errorf("unexpected %s value for %s", document.ColumnTxID, id)
	}
	if row.DocJSON, ok = values[document.ColumnDocJSON].(string); !ok {
		return nil, fmt.Errorf("unexpected %s value for %s", document.ColumnDocJSON, id)
	}

	row.BoolValues, _ = values[document.ColumnQueryBoolValues].(map[string]int8)
	row.DblValues, _ = values[document.ColumnQueryDblValues].(map[string]*inf.Dec)
	row.TextValues, _ = values[document.ColumnQueryTextValues].(map[string]string)
	row.TimestampValues, _ = values[document.ColumnQueryTimestampValues].(map[string]time.Time)
	row.NullValues, _ = values[document.ColumnQueryNullValues].([]string)
	return row, nil
}
