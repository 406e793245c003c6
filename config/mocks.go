package config

import (
	"github.com/datastax/cassandra-document-api/log"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type ConfigMock struct {
	mock.Mock
}

func NewConfigMock() *ConfigMock {
	return &ConfigMock{}
}

func (o *ConfigMock) Default() *ConfigMock {
	o.On("PageSize").Return(DefaultPageSize)
	o.On("MaxSortReadLimit").Return(DefaultMaxSortReadLimit)
	o.On("MaxInsertCount").Return(DefaultMaxInsertCount)
	o.On("MaxDeleteCount").Return(DefaultMaxDeleteCount)
	o.On("LWTRetries").Return(DefaultLWTRetries)
	o.On("Consistency").Return(gocql.LocalQuorum)
	o.On("Naming").Return(NewDefaultNaming())
	o.On("SupportedOperations").Return(CollectionCreate | CollectionDelete)
	o.On("UseUserOrRoleAuth").Return(false)
	o.On("Logger").Return(log.NewZapLogger(zap.NewExample()))
	return o
}

func (o *ConfigMock) PageSize() int {
	return o.Called().Int(0)
}

func (o *ConfigMock) MaxSortReadLimit() int {
	return o.Called().Int(0)
}

func (o *ConfigMock) MaxInsertCount() int {
	return o.Called().Int(0)
}

func (o *ConfigMock) MaxDeleteCount() int {
	return o.Called().Int(0)
}

func (o *ConfigMock) LWTRetries() int {
	return o.Called().Int(0)
}

func (o *ConfigMock) Consistency() gocql.Consistency {
	args := o.Called()
	return args.Get(0).(gocql.Consistency)
}

func (o *ConfigMock) Naming() NamingConvention {
	args := o.Called()
	return args.Get(0).(NamingConvention)
}

func (o *ConfigMock) SupportedOperations() SchemaOperations {
	args := o.Called()
	return args.Get(0).(SchemaOperations)
}

func (o *ConfigMock) UseUserOrRoleAuth() bool {
	return o.Called().Bool(0)
}

func (o *ConfigMock) Logger() log.Logger {
	args := o.Called()
	return args.Get(0).(log.Logger)
}
