package rest

import (
	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/operation"
	restEndpointV1 "github.com/datastax/cassandra-document-api/rest/endpoint/v1"
	"github.com/datastax/cassandra-document-api/types"
)

type RouteGenerator struct {
	exec   db.Executor
	config config.Config
	pool   operation.Pool
}

// NewRouteGenerator creates the command routes generator. Document writes run on pool, a nil
// pool runs them sequentially.
func NewRouteGenerator(
	exec db.Executor,
	cfg config.Config,
	pool operation.Pool,
) *RouteGenerator {
	return &RouteGenerator{
		exec:   exec,
		config: cfg,
		pool:   pool,
	}
}

func (g *RouteGenerator) Routes(prefix string) []types.Route {
	return restEndpointV1.Routes(prefix, g.config, g.exec, g.pool)
}
