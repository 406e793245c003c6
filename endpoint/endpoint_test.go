package endpoint

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/internal/testutil"
	"github.com/gocql/gocql"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointConfigDefaults(t *testing.T) {
	cfg := NewEndpointConfigWithLogger(testutil.TestLogger(), "127.0.0.1")

	assert.Equal(t, config.DefaultPageSize, cfg.PageSize())
	assert.Equal(t, config.DefaultMaxSortReadLimit, cfg.MaxSortReadLimit())
	assert.Equal(t, config.DefaultMaxInsertCount, cfg.MaxInsertCount())
	assert.Equal(t, config.DefaultMaxDeleteCount, cfg.MaxDeleteCount())
	assert.Equal(t, config.DefaultLWTRetries, cfg.LWTRetries())
	assert.Equal(t, gocql.LocalQuorum, cfg.Consistency())
	assert.True(t, cfg.SupportedOperations().IsSupported(config.CollectionCreate))
	assert.False(t, cfg.SupportedOperations().IsSupported(config.CollectionDelete))
	assert.False(t, cfg.UseUserOrRoleAuth())
	assert.Equal(t, "user_profiles", cfg.Naming().ToCQLTable("userProfiles"))
}

func TestEndpointConfigSetters(t *testing.T) {
	cfg := NewEndpointConfigWithLogger(testutil.TestLogger(), "127.0.0.1").
		WithPageSize(50).
		WithMaxSortReadLimit(0).
		WithMaxInsertCount(-1).
		WithMaxDeleteCount(5).
		WithLWTRetries(0).
		WithWritePoolSize(8).
		WithConsistency(gocql.One).
		WithSupportedOperations(config.CollectionCreate | config.CollectionDelete).
		WithUseUserOrRoleAuth(true)

	assert.Equal(t, 50, cfg.PageSize())
	assert.Equal(t, config.DefaultMaxSortReadLimit, cfg.MaxSortReadLimit())
	assert.Equal(t, config.DefaultMaxInsertCount, cfg.MaxInsertCount())
	assert.Equal(t, 5, cfg.MaxDeleteCount())
	assert.Equal(t, 0, cfg.LWTRetries())
	assert.Equal(t, 8, cfg.writePoolSize)
	assert.Equal(t, gocql.One, cfg.Consistency())
	assert.True(t, cfg.SupportedOperations().IsSupported(config.CollectionDelete))
	assert.True(t, cfg.UseUserOrRoleAuth())
}

func TestDataEndpoint_RoutesCommand(t *testing.T) {
	cfg := NewEndpointConfigWithLogger(testutil.TestLogger(), "127.0.0.1").WithWritePoolSize(2)
	store := testutil.NewFakeExecutor()
	endpoint, err := cfg.newEndpointWithExecutor(store)
	require.NoError(t, err)
	defer endpoint.Close()

	routes := endpoint.RoutesCommand("/docs")
	require.Len(t, routes, 2)

	router := httprouter.New()
	for _, route := range routes {
		router.Handler(route.Method, route.Pattern, route.Handler)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/docs/v1/ks1/users",
		strings.NewReader(`{"insertMany": {"documents": [{"_id": 1}, {"_id": 2}, {"_id": 3}], "options": {"ordered": false}}}`)))
	assert.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, 3, store.Len())

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/docs/v1/ks1",
		strings.NewReader(`{"deleteCollection": {"name": "users"}}`)))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "UNSUPPORTED_COMMAND")
}
