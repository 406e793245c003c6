package document

// Columns of the row-per-document table
const (
	ColumnKey                  = "key"
	ColumnTxID                 = "tx_id"
	ColumnDocJSON              = "doc_json"
	ColumnExistKeys            = "exist_keys"
	ColumnArraySize            = "array_size"
	ColumnArrayContains        = "array_contains"
	ColumnQueryBoolValues      = "query_bool_values"
	ColumnQueryDblValues       = "query_dbl_values"
	ColumnQueryTextValues      = "query_text_values"
	ColumnQueryTimestampValues = "query_timestamp_values"
	ColumnQueryNullValues      = "query_null_values"
)

// IDField is the document field holding the primary key
const IDField = "_id"

// NeverWrittenPath is a field path the shredder never writes (field names can not start with
// '$'), used to build predicates that are always true or always false.
const NeverWrittenPath = "$never"

// IndexedColumns lists the columns that carry a secondary index
var IndexedColumns = []string{
	ColumnExistKeys,
	ColumnArraySize,
	ColumnArrayContains,
	ColumnQueryBoolValues,
	ColumnQueryDblValues,
	ColumnQueryTextValues,
	ColumnQueryTimestampValues,
	ColumnQueryNullValues,
}

// SortColumns are read along with the document when sorting happens client side
var SortColumns = []string{
	ColumnQueryBoolValues,
	ColumnQueryDblValues,
	ColumnQueryTextValues,
	ColumnQueryTimestampValues,
	ColumnQueryNullValues,
}

// IsMapColumn reports whether column is a CQL map (indexed on its entries)
func IsMapColumn(column string) bool {
	switch column {
	case ColumnArraySize, ColumnQueryBoolValues, ColumnQueryDblValues,
		ColumnQueryTextValues, ColumnQueryTimestampValues:
		return true
	}
	return false
}
