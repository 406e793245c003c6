package operation

import (
	"context"
	"encoding/base64"
	"math"

	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/expression"
	"github.com/datastax/cassandra-document-api/filter"
	"golang.org/x/sync/errgroup"
)

// FindOperation reads the documents of a collection matching a filter tree
type FindOperation struct {
	Collection Collection
	Tree       *expression.LogicalExpression
	Sort       []SortField
	// Limit is the maximum number of documents returned, zero means no limit
	Limit int
	// Skip only applies to sorted reads
	Skip      int
	PageSize  int
	PageState string
	// MaxSortReadLimit bounds the candidates read when sorting client side
	MaxSortReadLimit int
	// MaxIDLookupWorkers bounds the concurrent reads of an id expanded query
	MaxIDLookupWorkers int
}

func (op *FindOperation) compile(idFilter *filter.Filter) ([]expression.Expression, error) {
	return expression.NewCompiler().Compile(op.Tree, idFilter)
}

func (op *FindOperation) Execute(ctx context.Context, exec db.Executor) (*ReadResponse, error) {
	expressions, err := op.compile(nil)
	if err != nil {
		return nil, err
	}
	return op.execute(ctx, exec, expressions)
}

// FindOneByID reads the document with the given id if it still matches the filter tree. A nil
// document is returned when it does not.
func (op *FindOperation) FindOneByID(ctx context.Context, exec db.Executor, id document.ID) (*ReadDocument, error) {
	idFilter, err := filter.ID(filter.EQ, id)
	if err != nil {
		return nil, err
	}
	expressions, err := op.compile(&idFilter)
	if err != nil {
		return nil, err
	}

	byID := &FindOperation{
		Collection:         op.Collection,
		Tree:               op.Tree,
		Limit:              1,
		PageSize:           1,
		MaxIDLookupWorkers: op.MaxIDLookupWorkers,
	}
	response, err := byID.execute(ctx, exec, expressions)
	if err != nil {
		return nil, err
	}
	if len(response.Docs) == 0 {
		return nil, nil
	}
	return response.Docs[0], nil
}

func (op *FindOperation) limit() int {
	if op.Limit <= 0 {
		return math.MaxInt
	}
	return op.Limit
}

func (op *FindOperation) execute(ctx context.Context, exec db.Executor, expressions []expression.Expression) (*ReadResponse, error) {
	if expression.IsNoMatch(expressions) {
		return &ReadResponse{Docs: []*ReadDocument{}}, nil
	}

	if len(op.Sort) > 0 {
		return op.executeSorted(ctx, exec, expressions)
	}

	if len(expressions) > 1 {
		docs, err := op.readAll(ctx, exec, expressions, op.limit(), false)
		if err != nil {
			return nil, err
		}
		if len(docs) > op.limit() {
			docs = docs[:op.limit()]
		}
		return &ReadResponse{Docs: docs}, nil
	}

	pageState, err := decodePageState(op.PageState)
	if err != nil {
		return nil, err
	}
	docs, nextState, err := op.readPages(ctx, exec, expressions[0], op.limit(), pageState, false)
	if err != nil {
		return nil, err
	}

	response := &ReadResponse{Docs: docs}
	if len(docs) >= op.limit() && len(nextState) > 0 {
		response.MoreData = true
		response.PageState = base64.StdEncoding.EncodeToString(nextState)
	}
	return response, nil
}

func (op *FindOperation) executeSorted(ctx context.Context, exec db.Executor, expressions []expression.Expression) (*ReadResponse, error) {
	maxRead := op.MaxSortReadLimit
	if maxRead <= 0 {
		maxRead = math.MaxInt
	}
	docs, err := op.readAll(ctx, exec, expressions, maxRead, true)
	if err != nil {
		return nil, err
	}

	sortDocuments(docs, op.Sort)

	if op.Skip >= len(docs) {
		docs = docs[:0]
	} else if op.Skip > 0 {
		docs = docs[op.Skip:]
	}
	if len(docs) > op.limit() {
		docs = docs[:op.limit()]
	}
	return &ReadResponse{Docs: docs}, nil
}

// readAll reads every expression up to limit documents each. The results keep the order of the
// expressions, which for id expanded queries is the order of the ids.
func (op *FindOperation) readAll(
	ctx context.Context,
	exec db.Executor,
	expressions []expression.Expression,
	limit int,
	sortColumns bool,
) ([]*ReadDocument, error) {
	if len(expressions) == 1 {
		docs, _, err := op.readPages(ctx, exec, expressions[0], limit, nil, sortColumns)
		return docs, err
	}

	workers := op.MaxIDLookupWorkers
	if workers <= 0 {
		workers = DefaultMaxIDLookupWorkers
	}

	results := make([][]*ReadDocument, len(expressions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, expr := range expressions {
		i, expr := i, expr
		g.Go(func() error {
			docs, _, err := op.readPages(gctx, exec, expr, limit, nil, sortColumns)
			results[i] = docs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]*ReadDocument, 0, len(expressions))
	for _, docs := range results {
		merged = append(merged, docs...)
	}
	return merged, nil
}

// readPages reads pages of min(page size, remaining) rows until limit documents were read or
// there are no more pages. The page state following the last page read is returned.
func (op *FindOperation) readPages(
	ctx context.Context,
	exec db.Executor,
	expr expression.Expression,
	limit int,
	pageState []byte,
	sortColumns bool,
) ([]*ReadDocument, []byte, error) {
	stmt := db.SelectStatement(&db.SelectInfo{
		Keyspace:    op.Collection.Keyspace,
		Table:       op.Collection.Table,
		Where:       expr,
		SortColumns: sortColumns,
	})

	pageSize := op.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}

	docs := make([]*ReadDocument, 0)
	for {
		requested := minInt(pageSize, limit-len(docs))
		page, err := exec.ExecuteRead(ctx, stmt, pageState, requested)
		if err != nil {
			return nil, nil, err
		}
		// The page state resumes after the last row of the page, rows beyond the requested size
		// could never be read again
		if len(page.Rows) > requested {
			return nil, nil, e.Errorf(e.ServerError, nil,
				"backend returned %d rows for a page of %d", len(page.Rows), requested)
		}
		for _, row := range page.Rows {
			doc, err := newReadDocument(row)
			if err != nil {
				return nil, nil, e.Errorf(e.ServerError, err, "unable to decode document %s", row.ID)
			}
			docs = append(docs, doc)
		}
		pageState = page.PageState
		if len(pageState) == 0 || len(docs) >= limit {
			return docs, pageState, nil
		}
	}
}

func decodePageState(pageState string) ([]byte, error) {
	if pageState == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(pageState)
	if err != nil {
		return nil, e.Errorf(e.InvalidRequest, err, "invalid page state")
	}
	return decoded, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
