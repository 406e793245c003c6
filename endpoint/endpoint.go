package endpoint

import (
	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/log"
	"github.com/datastax/cassandra-document-api/rest"
	"github.com/datastax/cassandra-document-api/types"
	"github.com/gocql/gocql"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

type DataEndpointConfig struct {
	dbHosts           []string
	dbUsername        string
	dbPassword        string
	localDC           string
	pageSize          int
	maxSortReadLimit  int
	maxInsertCount    int
	maxDeleteCount    int
	lwtRetries        int
	writePoolSize     int
	consistency       gocql.Consistency
	naming            config.NamingConvention
	supportedOps      config.SchemaOperations
	useUserOrRoleAuth bool
	logger            log.Logger
}

func (cfg DataEndpointConfig) PageSize() int {
	return cfg.pageSize
}

func (cfg DataEndpointConfig) MaxSortReadLimit() int {
	return cfg.maxSortReadLimit
}

func (cfg DataEndpointConfig) MaxInsertCount() int {
	return cfg.maxInsertCount
}

func (cfg DataEndpointConfig) MaxDeleteCount() int {
	return cfg.maxDeleteCount
}

func (cfg DataEndpointConfig) LWTRetries() int {
	return cfg.lwtRetries
}

func (cfg DataEndpointConfig) Consistency() gocql.Consistency {
	return cfg.consistency
}

func (cfg DataEndpointConfig) Naming() config.NamingConvention {
	return cfg.naming
}

func (cfg DataEndpointConfig) SupportedOperations() config.SchemaOperations {
	return cfg.supportedOps
}

func (cfg DataEndpointConfig) UseUserOrRoleAuth() bool {
	return cfg.useUserOrRoleAuth
}

func (cfg DataEndpointConfig) Logger() log.Logger {
	return cfg.logger
}

func (cfg *DataEndpointConfig) WithDbUsername(dbUsername string) *DataEndpointConfig {
	cfg.dbUsername = dbUsername
	return cfg
}

func (cfg *DataEndpointConfig) WithDbPassword(dbPassword string) *DataEndpointConfig {
	cfg.dbPassword = dbPassword
	return cfg
}

func (cfg *DataEndpointConfig) WithLocalDC(localDC string) *DataEndpointConfig {
	cfg.localDC = localDC
	return cfg
}

// Non positive values keep the defaults for the setters below

func (cfg *DataEndpointConfig) WithPageSize(pageSize int) *DataEndpointConfig {
	cfg.pageSize = orDefault(pageSize, cfg.pageSize)
	return cfg
}

func (cfg *DataEndpointConfig) WithMaxSortReadLimit(limit int) *DataEndpointConfig {
	cfg.maxSortReadLimit = orDefault(limit, cfg.maxSortReadLimit)
	return cfg
}

func (cfg *DataEndpointConfig) WithMaxInsertCount(count int) *DataEndpointConfig {
	cfg.maxInsertCount = orDefault(count, cfg.maxInsertCount)
	return cfg
}

func (cfg *DataEndpointConfig) WithMaxDeleteCount(count int) *DataEndpointConfig {
	cfg.maxDeleteCount = orDefault(count, cfg.maxDeleteCount)
	return cfg
}

// WithLWTRetries sets the retries of a conditional write, zero disables retrying
func (cfg *DataEndpointConfig) WithLWTRetries(retries int) *DataEndpointConfig {
	if retries >= 0 {
		cfg.lwtRetries = retries
	}
	return cfg
}

func (cfg *DataEndpointConfig) WithWritePoolSize(size int) *DataEndpointConfig {
	cfg.writePoolSize = orDefault(size, cfg.writePoolSize)
	return cfg
}

func (cfg *DataEndpointConfig) WithConsistency(consistency gocql.Consistency) *DataEndpointConfig {
	cfg.consistency = consistency
	return cfg
}

func (cfg *DataEndpointConfig) WithNaming(naming config.NamingConvention) *DataEndpointConfig {
	cfg.naming = naming
	return cfg
}

func (cfg *DataEndpointConfig) WithSupportedOperations(supportedOps config.SchemaOperations) *DataEndpointConfig {
	cfg.supportedOps = supportedOps
	return cfg
}

func (cfg *DataEndpointConfig) WithUseUserOrRoleAuth(useUserOrRowAuth bool) *DataEndpointConfig {
	cfg.useUserOrRoleAuth = useUserOrRowAuth
	return cfg
}

func (cfg DataEndpointConfig) NewEndpoint() (*DataEndpoint, error) {
	dbClient, err := db.NewDbWithOptions(&db.ClusterOptions{
		Hosts:    cfg.dbHosts,
		Username: cfg.dbUsername,
		Password: cfg.dbPassword,
		LocalDC:  cfg.localDC,
	})
	if err != nil {
		return nil, err
	}
	endpoint, err := cfg.newEndpointWithExecutor(dbClient.WithConsistency(cfg.consistency))
	if err != nil {
		dbClient.Close()
		return nil, err
	}
	endpoint.closeDb = dbClient.Close
	return endpoint, nil
}

func (cfg DataEndpointConfig) newEndpointWithExecutor(exec db.Executor) (*DataEndpoint, error) {
	pool, err := ants.NewPool(cfg.writePoolSize, ants.WithPanicHandler(func(p interface{}) {
		cfg.logger.Error("document write panicked", "panic", p)
	}))
	if err != nil {
		return nil, err
	}
	return &DataEndpoint{
		restRouteGen: rest.NewRouteGenerator(exec, cfg, pool),
		pool:         pool,
	}, nil
}

// DataEndpoint serves the document command API. Document writes of every request share a
// bounded worker pool.
type DataEndpoint struct {
	restRouteGen *rest.RouteGenerator
	pool         *ants.Pool
	closeDb      func()
}

func NewEndpointConfig(hosts ...string) (*DataEndpointConfig, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewEndpointConfigWithLogger(log.NewZapLogger(logger), hosts...), nil
}

func NewEndpointConfigWithLogger(logger log.Logger, hosts ...string) *DataEndpointConfig {
	return &DataEndpointConfig{
		dbHosts:          hosts,
		pageSize:         config.DefaultPageSize,
		maxSortReadLimit: config.DefaultMaxSortReadLimit,
		maxInsertCount:   config.DefaultMaxInsertCount,
		maxDeleteCount:   config.DefaultMaxDeleteCount,
		lwtRetries:       config.DefaultLWTRetries,
		writePoolSize:    config.DefaultWritePoolSize,
		consistency:      gocql.LocalQuorum,
		naming:           config.NewDefaultNaming(),
		supportedOps:     config.CollectionCreate,
		logger:           logger,
	}
}

// RoutesCommand returns the document and collection command routes served under prefix
func (e *DataEndpoint) RoutesCommand(prefix string) []types.Route {
	return e.restRouteGen.Routes(prefix)
}

// Close releases the worker pool and the database session
func (e *DataEndpoint) Close() {
	e.pool.Release()
	if e.closeDb != nil {
		e.closeDb()
	}
}

func orDefault(value int, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	}
	return value
}
