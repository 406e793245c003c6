package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"

	"github.com/datastax/cassandra-document-api/rest/models"
	"github.com/datastax/cassandra-document-api/types"
	"github.com/julienschmidt/httprouter"
	. "github.com/onsi/gomega"
)

const Prefix = "/docs"

// ExecuteCommand posts a command to the collection route and decodes the response
func ExecuteCommand(routes []types.Route, keyspace, collection, command string) (int, models.CommandResponse) {
	return execute(routes, path.Join(Prefix, "v1", keyspace, collection), command)
}

// ExecuteKeyspaceCommand posts a command to the keyspace route and decodes the response
func ExecuteKeyspaceCommand(routes []types.Route, keyspace, command string) (int, models.CommandResponse) {
	return execute(routes, path.Join(Prefix, "v1", keyspace), command)
}

func execute(routes []types.Route, targetPath string, command string) (int, models.CommandResponse) {
	r, _ := http.NewRequest(http.MethodPost, targetPath, bytes.NewBufferString(command))
	r.Header.Set("Content-Type", "application/json")

	// Use a router for params to be populated
	router := httprouter.New()
	for _, route := range routes {
		router.Handler(route.Method, route.Pattern, route.Handler)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	var response models.CommandResponse
	bodyString := w.Body.String()
	err := json.NewDecoder(bytes.NewBufferString(bodyString)).Decode(&response)
	Expect(err).ToNot(HaveOccurred(),
		fmt.Sprintf("Error decoding response with code %d and body: %s", w.Code, bodyString))
	return w.Code, response
}
