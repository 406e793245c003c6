package db

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type SessionMock struct {
	mock.Mock
}

func NewSessionMock() *SessionMock {
	return &SessionMock{}
}

func (o *SessionMock) Execute(ctx context.Context, query string, options *QueryOptions, values ...interface{}) error {
	args := o.Called(query, options, values)
	return args.Error(0)
}

func (o *SessionMock) ExecuteIter(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (ResultSet, error) {
	args := o.Called(query, options, values)
	rs, _ := args.Get(0).(ResultSet)
	return rs, args.Error(1)
}

func (o *SessionMock) ExecuteCAS(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (bool, error) {
	args := o.Called(query, options, values)
	return args.Bool(0), args.Error(1)
}

func (o *SessionMock) Close() {
	o.Called()
}

type ResultMock struct {
	mock.Mock
}

func (o *ResultMock) PageState() []byte {
	args := o.Called()
	state, _ := args.Get(0).([]byte)
	return state
}

func (o *ResultMock) Values() []map[string]interface{} {
	args := o.Called()
	return args.Get(0).([]map[string]interface{})
}

// NewResultMock returns a result set holding a single page
func NewResultMock(values []map[string]interface{}, pageState []byte) *ResultMock {
	result := &ResultMock{}
	result.On("Values").Return(values)
	result.On("PageState").Return(pageState)
	return result
}

type ExecutorMock struct {
	mock.Mock
}

func (o *ExecutorMock) ExecuteRead(ctx context.Context, stmt *Statement, pageState []byte, pageSize int) (*ResultPage, error) {
	args := o.Called(ctx, stmt, pageState, pageSize)
	page, _ := args.Get(0).(*ResultPage)
	return page, args.Error(1)
}

func (o *ExecutorMock) ExecuteWrite(ctx context.Context, stmt *Statement) (bool, error) {
	args := o.Called(ctx, stmt)
	return args.Bool(0), args.Error(1)
}

func (o *ExecutorMock) ExecuteCount(ctx context.Context, stmt *Statement) (int64, error) {
	args := o.Called(ctx, stmt)
	return args.Get(0).(int64), args.Error(1)
}

func (o *ExecutorMock) ExecuteSchema(ctx context.Context, stmt *Statement) error {
	args := o.Called(ctx, stmt)
	return args.Error(0)
}
