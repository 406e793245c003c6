package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/datastax/cassandra-document-api/auth"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/gocql/gocql"
)

// Executor runs the statements built by this package. It is the only way operations reach the
// backend.
type Executor interface {
	// ExecuteRead reads a single page of rows starting at pageState (nil for the first page)
	ExecuteRead(ctx context.Context, stmt *Statement, pageState []byte, pageSize int) (*ResultPage, error)

	// ExecuteWrite runs a conditional write and reports whether its condition was met
	ExecuteWrite(ctx context.Context, stmt *Statement) (bool, error)

	// ExecuteCount runs a COUNT statement
	ExecuteCount(ctx context.Context, stmt *Statement) (int64, error)

	// ExecuteSchema runs a schema change statement
	ExecuteSchema(ctx context.Context, stmt *Statement) error
}

// Db represents a connection to a db
type Db struct {
	session           Session
	consistency       gocql.Consistency
	serialConsistency gocql.SerialConsistency
}

// ClusterOptions holds the settings used to connect to the cluster
type ClusterOptions struct {
	Hosts    []string
	Username string
	Password string
	// LocalDC restricts queries to a data center, when empty the data center of the first
	// contacted host is used
	LocalDC string
	Timeout time.Duration
}

// NewDb Gets a pointer to a db
func NewDb(username string, password string, hosts ...string) (*Db, error) {
	return NewDbWithOptions(&ClusterOptions{Hosts: hosts, Username: username, Password: password})
}

func NewDbWithOptions(options *ClusterOptions) (*Db, error) {
	cluster := gocql.NewCluster(options.Hosts...)
	cluster.PoolConfig.HostSelectionPolicy = NewHostSelectionPolicy(options.LocalDC)
	cluster.Timeout = 10 * time.Second
	if options.Timeout > 0 {
		cluster.Timeout = options.Timeout
	}

	if options.Username != "" && options.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: options.Username,
			Password: options.Password,
		}
	}

	var (
		session *gocql.Session
		err     error
	)

	session, err = cluster.CreateSession()
	if err != nil {
		return nil, err
	}

	if session == nil {
		return nil, errors.New("failed to create session")
	}

	return NewDbWithSession(NewGoCqlSession(session)), nil
}

// NewDbWithSession creates a db over an existing session, the session is owned by the db afterwards
func NewDbWithSession(session Session) *Db {
	return &Db{
		session:           session,
		consistency:       gocql.LocalQuorum,
		serialConsistency: gocql.LocalSerial,
	}
}

func (db *Db) WithConsistency(consistency gocql.Consistency) *Db {
	db.consistency = consistency
	return db
}

func (db *Db) WithSerialConsistency(serialConsistency gocql.SerialConsistency) *Db {
	db.serialConsistency = serialConsistency
	return db
}

func (db *Db) Close() {
	db.session.Close()
}

func (db *Db) options(ctx context.Context) *QueryOptions {
	return NewQueryOptions().
		WithUserOrRole(auth.ContextUserOrRole(ctx)).
		WithConsistency(db.consistency).
		WithSerialConsistency(db.serialConsistency)
}

func (db *Db) ExecuteRead(ctx context.Context, stmt *Statement, pageState []byte, pageSize int) (*ResultPage, error) {
	options := db.options(ctx).WithPageState(pageState).WithPageSize(pageSize)
	rs, err := db.session.ExecuteIter(ctx, stmt.CQL, options, stmt.Values...)
	if err != nil {
		return nil, translateError(err)
	}

	values := rs.Values()
	page := &ResultPage{Rows: make([]*Row, 0, len(values)), PageState: rs.PageState()}
	for _, value := range values {
		row, err := rowFromMap(value)
		if err != nil {
			return nil, err
		}
		page.Rows = append(page.Rows, row)
	}
	return page, nil
}

func (db *Db) ExecuteWrite(ctx context.Context, stmt *Statement) (bool, error) {
	applied, err := db.session.ExecuteCAS(ctx, stmt.CQL, db.options(ctx), stmt.Values...)
	return applied, translateError(err)
}

func (db *Db) ExecuteCount(ctx context.Context, stmt *Statement) (int64, error) {
	rs, err := db.session.ExecuteIter(ctx, stmt.CQL, db.options(ctx), stmt.Values...)
	if err != nil {
		return 0, translateError(err)
	}
	values := rs.Values()
	if len(values) != 1 {
		return 0, fmt.Errorf("count returned %d rows", len(values))
	}
	switch count := values[0]["count"].(type) {
	case int64:
		return count, nil
	case int:
		return int64(count), nil
	}
	return 0, fmt.Errorf("unexpected count value %v", values[0]["count"])
}

func (db *Db) ExecuteSchema(ctx context.Context, stmt *Statement) error {
	return db.session.Execute(ctx, stmt.CQL, NewQueryOptions().WithUserOrRole(auth.ContextUserOrRole(ctx)), stmt.Values...)
}

// translateError reports statements on a missing table as a request error
func translateError(err error) error {
	var reqErr gocql.RequestError
	if errors.As(err, &reqErr) && reqErr.Code() == gocql.ErrCodeInvalid &&
		strings.HasPrefix(reqErr.Message(), "unconfigured table") {
		return e.Errorf(e.CollectionNotExist, err, "collection does not exist")
	}
	return err
}
