package config

import (
	"github.com/datastax/cassandra-document-api/log"
	"github.com/gocql/gocql"
)

const (
	DefaultPageSize         = 20
	DefaultMaxSortReadLimit = 10000
	DefaultMaxInsertCount   = 20
	DefaultMaxDeleteCount   = 20
	DefaultLWTRetries       = 3
	DefaultWritePoolSize    = 64
)

type Config interface {
	// PageSize is the backend page size used when reading documents
	PageSize() int
	// MaxSortReadLimit bounds the candidate window read for client side sorting
	MaxSortReadLimit() int
	MaxInsertCount() int
	MaxDeleteCount() int
	// LWTRetries is the number of times a conditional write is retried after a version conflict
	LWTRetries() int
	Consistency() gocql.Consistency
	Naming() NamingConvention
	SupportedOperations() SchemaOperations
	UseUserOrRoleAuth() bool
	Logger() log.Logger
}
