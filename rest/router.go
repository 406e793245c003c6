package rest

import (
	"net/http"

	e "github.com/datastax/cassandra-document-api/errors"
	restEndpointV1 "github.com/datastax/cassandra-document-api/rest/endpoint/v1"
	m "github.com/datastax/cassandra-document-api/rest/models"
	"github.com/datastax/cassandra-document-api/types"
	"github.com/julienschmidt/httprouter"
)

// ApiRouter gets the router for the command API
func ApiRouter(routes []types.Route) *httprouter.Router {
	router := httprouter.New()
	for _, route := range routes {
		router.Handler(route.Method, route.Pattern, route.Handler)
	}
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		restEndpointV1.RespondJSONObjectWithCode(w, http.StatusNotFound, m.CommandResponse{
			Errors: []m.ModelError{{
				Message:   "no command route for " + r.URL.Path,
				ErrorCode: e.InvalidRequest.String(),
			}},
		})
	})
	return router
}
