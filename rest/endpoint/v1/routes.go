package endpoint

import (
	"net/http"
	"path"

	"github.com/datastax/cassandra-document-api/auth"
	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/db"
	"github.com/datastax/cassandra-document-api/document"
	e "github.com/datastax/cassandra-document-api/errors"
	"github.com/datastax/cassandra-document-api/log"
	"github.com/datastax/cassandra-document-api/operation"
	m "github.com/datastax/cassandra-document-api/rest/models"
	"github.com/datastax/cassandra-document-api/types"
	"github.com/julienschmidt/httprouter"
)

const (
	keyspaceParam   = "keyspace"
	collectionParam = "collection"
)

// UserOrRoleHeader carries the user or role commands are executed as, when enabled
const UserOrRoleHeader = "X-Cassandra-User-Or-Role"

// Route describes how to route an endpoint
type routeList struct {
	exec     db.Executor
	cfg      config.Config
	pool     operation.Pool
	shredder *document.Shredder
	logger   log.Logger
	params   func(*http.Request, string) string
}

// Routes returns the command routes served under prefix. Document commands are posted to
// <prefix>/v1/:keyspace/:collection and collection commands to <prefix>/v1/:keyspace.
func Routes(prefix string, cfg config.Config, exec db.Executor, pool operation.Pool) []types.Route {
	rl := routeList{
		exec:     exec,
		cfg:      cfg,
		pool:     pool,
		shredder: document.NewShredder(document.NewHasher()),
		logger:   cfg.Logger(),
		params: func(r *http.Request, name string) string {
			return httprouter.ParamsFromContext(r.Context()).ByName(name)
		},
	}

	return []types.Route{
		{
			Method:  http.MethodPost,
			Pattern: path.Join(prefix, "/v1/:"+keyspaceParam),
			Handler: rl.withUserOrRole(http.HandlerFunc(rl.KeyspaceCommand)),
		},
		{
			Method:  http.MethodPost,
			Pattern: path.Join(prefix, "/v1/:"+keyspaceParam+"/:"+collectionParam),
			Handler: rl.withUserOrRole(http.HandlerFunc(rl.CollectionCommand)),
		},
	}
}

// withUserOrRole propagates the user or role header through the request context. Requests
// without it are rejected when user or role authorization is enabled.
func (s *routeList) withUserOrRole(handler http.Handler) http.Handler {
	if !s.cfg.UseUserOrRoleAuth() {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userOrRole := r.Header.Get(UserOrRoleHeader)
		if userOrRole == "" {
			RespondJSONObjectWithCode(w, http.StatusUnauthorized, m.CommandResponse{
				Errors: toModelErrors(e.Errorf(e.InvalidRequest, nil, "missing %s header", UserOrRoleHeader)),
			})
			return
		}
		handler.ServeHTTP(w, r.WithContext(auth.WithContextUserOrRole(r.Context(), userOrRole)))
	})
}
