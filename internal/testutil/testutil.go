package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/datastax/cassandra-document-api/log"
	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

var started = false
var session *gocql.Session

// IntegrationTestsEnabled reports whether a ccm managed cluster can be used by the tests
func IntegrationTestsEnabled() bool {
	return strings.ToUpper(os.Getenv("INTEGRATION_TESTS")) == "ON"
}

func startCassandra() {
	if started {
		return
	}
	started = true
	version := cassandraVersion()
	fmt.Printf("Starting Cassandra %s\n", version)
	executeCcm(fmt.Sprintf("create test -v %s -n 1 -s -b", version))
}

func shutdownCassandra() {
	fmt.Println("Shutting down cassandra")
	executeCcm("remove")
}

func executeCcm(command string) {
	ccmCommand := fmt.Sprintf("ccm %s", command)
	cmd := exec.Command("bash", "-c", ccmCommand)
	output, err := cmd.CombinedOutput()
	outputStr := string(output)
	if outputStr != "" {
		fmt.Println("Output", outputStr)
	}
	if err != nil {
		fmt.Println("Error", err)
		panic(err)
	}
}

// Storage attached indexes need Cassandra 5
func cassandraVersion() string {
	version := os.Getenv("CCM_VERSION")
	if version == "" {
		version = "5.0.2"
	}
	return version
}

// SetupIntegrationTestFixture starts a single node cluster and runs queries on it
func SetupIntegrationTestFixture(queries ...string) *gocql.Session {
	startCassandra()

	cluster := gocql.NewCluster("127.0.0.1")
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = cluster.Timeout

	var err error

	if session, err = cluster.CreateSession(); err != nil {
		panic(err)
	}

	for _, query := range queries {
		PanicIfError(session.Query(query).Exec())
	}

	return session
}

func TearDownIntegrationTestFixture() {
	if session != nil {
		session.Close()
	}
	shutdownCassandra()
}

// CreateKeyspaceQuery returns the statement creating a single replica keyspace
func CreateKeyspaceQuery(name string) string {
	return fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS "%s" WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`,
		name)
}

func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

func TestLogger() log.Logger {
	if strings.ToUpper(os.Getenv("TEST_TRACE")) == "ON" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log.NewZapLogger(logger)
	}

	return log.NewZapLogger(zap.NewNop())
}
