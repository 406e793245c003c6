package db

import (
	"context"
	"errors"

	"github.com/gocql/gocql"
)

type QueryOptions struct {
	UserOrRole        string
	Consistency       gocql.Consistency
	SerialConsistency gocql.SerialConsistency
	PageSize          int
	PageState         []byte
}

func NewQueryOptions() *QueryOptions {
	return &QueryOptions{
		// Set defaults for queries that are not affected by consistency
		// But still need the parameters, i.e, DDL queries.
		Consistency:       gocql.LocalOne,
		SerialConsistency: gocql.LocalSerial,
	}
}

func (q *QueryOptions) WithUserOrRole(userOrRole string) *QueryOptions {
	q.UserOrRole = userOrRole
	return q
}

func (q *QueryOptions) WithConsistency(consistency gocql.Consistency) *QueryOptions {
	q.Consistency = consistency
	return q
}

func (q *QueryOptions) WithSerialConsistency(serialConsistency gocql.SerialConsistency) *QueryOptions {
	q.SerialConsistency = serialConsistency
	return q
}

func (q *QueryOptions) WithPageSize(pageSize int) *QueryOptions {
	q.PageSize = pageSize
	return q
}

func (q *QueryOptions) WithPageState(pageState []byte) *QueryOptions {
	q.PageState = pageState
	return q
}

type Session interface {
	// Execute executes a statement without returning row results
	Execute(ctx context.Context, query string, options *QueryOptions, values ...interface{}) error

	// ExecuteIter executes a statement and returns a single page of the result set
	ExecuteIter(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (ResultSet, error)

	// ExecuteCAS executes a conditional statement and reports whether it was applied
	ExecuteCAS(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (bool, error)

	Close()
}

type ResultSet interface {
	PageState() []byte
	Values() []map[string]interface{}
}

type goCqlResultIterator struct {
	pageState []byte
	values    []map[string]interface{}
}

func (r *goCqlResultIterator) PageState() []byte {
	return r.pageState
}

func (r *goCqlResultIterator) Values() []map[string]interface{} {
	return r.values
}

func newResultIterator(iter *gocql.Iter) (*goCqlResultIterator, error) {
	// Read before iterating, it describes the page following the one being read
	pageState := iter.PageState()
	items := make([]map[string]interface{}, 0, iter.NumRows())

	for {
		row := make(map[string]interface{}, len(iter.Columns()))
		if !iter.MapScan(row) {
			break
		}
		items = append(items, row)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return &goCqlResultIterator{
		pageState: pageState,
		values:    items,
	}, nil
}

type GoCqlSession struct {
	ref *gocql.Session
}

func NewGoCqlSession(ref *gocql.Session) *GoCqlSession {
	return &GoCqlSession{ref: ref}
}

func (session *GoCqlSession) query(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (*gocql.Query, error) {
	q := session.ref.Query(query, values...).WithContext(ctx)

	// Avoid reusing metadata from the prepared statement
	// Otherwise, we will not get the [applied] column (https://github.com/gocql/gocql/issues/612)
	q.NoSkipMetadata()

	if options != nil {
		q.Consistency(options.Consistency)

		if options.SerialConsistency != gocql.Serial && options.SerialConsistency != gocql.LocalSerial {
			return nil, errors.New("Invalid serial consistency")
		}

		q.SerialConsistency(options.SerialConsistency)

		if options.UserOrRole != "" {
			q.CustomPayload(map[string][]byte{
				"ProxyExecute": []byte(options.UserOrRole),
			})
		}

		if options.PageSize > 0 {
			q.PageSize(options.PageSize)
		}
		// Setting the page state, even when empty, disables automatic paging so a single page is read
		q.PageState(options.PageState)
	}
	return q, nil
}

func (session *GoCqlSession) Execute(ctx context.Context, query string, options *QueryOptions, values ...interface{}) error {
	q, err := session.query(ctx, query, options, values...)
	if err != nil {
		return err
	}
	return q.Exec()
}

func (session *GoCqlSession) ExecuteIter(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (ResultSet, error) {
	q, err := session.query(ctx, query, options, values...)
	if err != nil {
		return nil, err
	}
	return newResultIterator(q.Iter())
}

func (session *GoCqlSession) ExecuteCAS(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (bool, error) {
	q, err := session.query(ctx, query, options, values...)
	if err != nil {
		return false, err
	}
	// The previous row is returned when the condition fails, it is not needed
	return q.MapScanCAS(map[string]interface{}{})
}

func (session *GoCqlSession) Close() {
	session.ref.Close()
}
