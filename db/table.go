package db

import (
	"fmt"

	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/document"
)

type CreateCollectionInfo struct {
	Keyspace   string
	Collection string
	Naming     config.NamingConvention
}

type DropCollectionInfo struct {
	Keyspace   string
	Collection string
	Naming     config.NamingConvention
}

const collectionColumns = `key tuple<tinyint, text>, ` +
	`tx_id timeuuid, ` +
	`doc_json text, ` +
	`exist_keys set<text>, ` +
	`array_size map<text, int>, ` +
	`array_contains set<text>, ` +
	`query_bool_values map<text, tinyint>, ` +
	`query_dbl_values map<text, decimal>, ` +
	`query_text_values map<text, text>, ` +
	`query_timestamp_values map<text, timestamp>, ` +
	`query_null_values set<text>, ` +
	`PRIMARY KEY (key)`

// CreateCollectionStatements returns the table creation followed by one storage attached index
// per indexed column. All statements are idempotent.
func CreateCollectionStatements(info *CreateCollectionInfo) []*Statement {
	table := info.Naming.ToCQLTable(info.Collection)
	statements := []*Statement{{
		CQL: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName(info.Keyspace, table), collectionColumns),
	}}

	for _, column := range document.IndexedColumns {
		target := column
		if document.IsMapColumn(column) {
			target = fmt.Sprintf("entries(%s)", column)
		}
		statements = append(statements, &Statement{
			CQL: fmt.Sprintf(`CREATE CUSTOM INDEX IF NOT EXISTS "%s" ON %s (%s) USING 'StorageAttachedIndex'`,
				info.Naming.ToCQLIndex(info.Collection, column), tableName(info.Keyspace, table), target),
		})
	}
	return statements
}

func DropCollectionStatement(info *DropCollectionInfo) *Statement {
	table := info.Naming.ToCQLTable(info.Collection)
	return &Statement{CQL: fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName(info.Keyspace, table))}
}
