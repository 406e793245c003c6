package operation

import (
	"sort"
	"strings"
	"time"

	"github.com/datastax/cassandra-document-api/db"
	"gopkg.in/inf.v0"
)

// Values of different types order by type first
const (
	rankNull = iota
	rankNumber
	rankText
	rankBool
	rankTimestamp
)

type sortValue struct {
	rank      int
	number    *inf.Dec
	text      string
	boolean   int8
	timestamp time.Time
}

func valueAt(row *db.Row, path string) sortValue {
	if row == nil {
		return sortValue{rank: rankNull}
	}
	if d, ok := row.DblValues[path]; ok {
		return sortValue{rank: rankNumber, number: d}
	}
	if s, ok := row.TextValues[path]; ok {
		return sortValue{rank: rankText, text: s}
	}
	if b, ok := row.BoolValues[path]; ok {
		return sortValue{rank: rankBool, boolean: b}
	}
	if t, ok := row.TimestampValues[path]; ok {
		return sortValue{rank: rankTimestamp, timestamp: t}
	}
	// Missing, null, arrays and sub documents
	return sortValue{rank: rankNull}
}

func compareValues(a, b sortValue) int {
	if a.rank != b.rank {
		return a.rank - b.rank
	}
	switch a.rank {
	case rankNumber:
		return a.number.Cmp(b.number)
	case rankText:
		return strings.Compare(a.text, b.text)
	case rankBool:
		return int(a.boolean) - int(b.boolean)
	case rankTimestamp:
		return a.timestamp.Compare(b.timestamp)
	}
	return 0
}

// sortDocuments orders docs in place by the sort fields, documents equal on every field keep
// their read order
func sortDocuments(docs []*ReadDocument, fields []SortField) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, field := range fields {
			c := compareValues(valueAt(docs[i].row, field.Path), valueAt(docs[j].row, field.Path))
			if c == 0 {
				continue
			}
			if field.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}
