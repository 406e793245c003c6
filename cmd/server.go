package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	log2 "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/datastax/cassandra-document-api/config"
	"github.com/datastax/cassandra-document-api/endpoint"
	"github.com/datastax/cassandra-document-api/log"
	"github.com/datastax/cassandra-document-api/rest"
	"github.com/datastax/cassandra-document-api/types"
	"github.com/gocql/gocql"
	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultCommandPath = "/docs"

// Environment variables prefixed with "DOC_API_" can override settings e.g. "DOC_API_HOSTS"
const envVarPrefix = "doc_api"

var cfgFile string
var logger log.Logger

var serverCmd = &cobra.Command{
	Use:   os.Args[0] + " --hosts [HOSTS] [OPTIONS]",
	Short: "JSON document API for Apache Cassandra",
	Args: func(cmd *cobra.Command, args []string) error {
		hosts := getStringSlice("hosts")
		if len(hosts) == 0 {
			return errors.New("hosts are required")
		}
		if _, err := parseConsistency(viper.GetString("consistency")); err != nil {
			return err
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		endpoint := createEndpoint()
		defer endpoint.Close()

		router := createRouter(endpoint.RoutesCommand(viper.GetString("path")))

		go listenAndServe(router, viper.GetInt("port"))

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		<-signals
		logger.Info("shutting down")
	},
}

// Execute starts the document API endpoint
func Execute() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log2.Fatalf("unable to initialize logger: %v", err)
	}

	logger = log.NewZapLogger(zapLogger)

	flags := serverCmd.PersistentFlags()

	// Connection flags
	flags.StringVarP(&cfgFile, "config", "c", "", "config file")
	flags.StringSliceP("hosts", "t", nil, "hosts for connecting to the database")
	flags.StringP("username", "u", "", "connect with database username")
	flags.StringP("password", "p", "", "database user's password")
	flags.String("local-dc", "", "data center queries are routed to, inferred from the hosts when empty")
	flags.String("consistency", "LOCAL_QUORUM", "consistency level of reads and writes")

	// Endpoint flags
	flags.Int("port", 8080, "document API port")
	flags.String("path", defaultCommandPath, "document API path")
	flags.Bool("request-logging", false, "enable request logging")
	flags.String("access-control-allow-origin", "", "Access-Control-Allow-Origin header value")
	flags.StringSlice("operations", []string{
		"CollectionCreate",
	}, "list of supported collection management operations. options: CollectionCreate,CollectionDelete")
	flags.Bool("user-or-role-auth", false, "execute commands as the user or role of the X-Cassandra-User-Or-Role header")

	// Command limits
	flags.Int("page-size", config.DefaultPageSize, "page size of backend reads")
	flags.Int("max-sort-read-limit", config.DefaultMaxSortReadLimit, "maximum number of documents read to sort a find")
	flags.Int("max-insert-count", config.DefaultMaxInsertCount, "maximum number of documents of an insertMany")
	flags.Int("max-delete-count", config.DefaultMaxDeleteCount, "maximum number of documents removed by a deleteMany")
	flags.Int("lwt-retries", config.DefaultLWTRetries, "retries of a document write after a concurrent change")
	flags.Int("write-pool-size", config.DefaultWritePoolSize, "maximum number of concurrent document writes")

	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name != "config" {
			_ = viper.BindPFlag(flag.Name, flags.Lookup(flag.Name))
		}
	})

	cobra.OnInitialize(initialize)

	viper.SetEnvPrefix(envVarPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := serverCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createEndpoint() *endpoint.DataEndpoint {
	cfg := endpoint.NewEndpointConfigWithLogger(logger, getStringSlice("hosts")...)

	supportedOps := getStringSlice("operations")
	ops, err := config.Ops(supportedOps...)
	if err != nil {
		logger.Fatal("invalid supported operation", "operations", supportedOps, "error", err)
	}

	consistency, _ := parseConsistency(viper.GetString("consistency"))

	cfg.
		WithDbUsername(viper.GetString("username")).
		WithDbPassword(viper.GetString("password")).
		WithLocalDC(viper.GetString("local-dc")).
		WithConsistency(consistency).
		WithSupportedOperations(ops).
		WithUseUserOrRoleAuth(viper.GetBool("user-or-role-auth")).
		WithPageSize(viper.GetInt("page-size")).
		WithMaxSortReadLimit(viper.GetInt("max-sort-read-limit")).
		WithMaxInsertCount(viper.GetInt("max-insert-count")).
		WithMaxDeleteCount(viper.GetInt("max-delete-count")).
		WithLWTRetries(viper.GetInt("lwt-retries")).
		WithWritePoolSize(viper.GetInt("write-pool-size"))

	endpoint, err := cfg.NewEndpoint()
	if err != nil {
		logger.Fatal("unable create new endpoint",
			"error", err)
	}

	return endpoint
}

func parseConsistency(value string) (gocql.Consistency, error) {
	consistency, err := gocql.ParseConsistencyWrapper(strings.ToUpper(value))
	if err != nil {
		return 0, fmt.Errorf("invalid consistency '%s': %w", value, err)
	}
	return consistency, nil
}

func maybeAddRequestLogging(handler http.Handler) http.Handler {
	if viper.GetBool("request-logging") {
		handler = log.NewLoggingHandler(handler, logger)
	}
	return handler
}

func maybeAddCORS(handler http.Handler) http.Handler {
	if value := viper.GetString("access-control-allow-origin"); value != "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", value)
			handler.ServeHTTP(w, r)
		})
	}
	return handler
}

func initialize() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err == nil {
			logger.Info("using config file",
				"file", viper.ConfigFileUsed())
		}
	}
}

func createRouter(routes []types.Route) *httprouter.Router {
	router := rest.ApiRouter(routes)
	if value := viper.GetString("access-control-allow-origin"); value != "" {
		router.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Access-Control-Request-Method") != "" {
				header := w.Header()
				header.Set("Access-Control-Allow-Method", r.Header.Get("Access-Control-Request-Method"))
				header.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				header.Set("Access-Control-Allow-Origin", value)
			}

			w.WriteHeader(http.StatusNoContent)
		})
	}
	return router
}

func listenAndServe(handler http.Handler, port int) {
	logger.Info("server listening",
		"port", port,
		"path", viper.GetString("path"))
	handler = maybeAddCORS(maybeAddRequestLogging(handler))
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), handler)
	if err != nil {
		logger.Fatal("unable to start server",
			"port", port,
			"error", err)
	}
}

func getStringSlice(key string) []string {
	value := viper.GetStringSlice(key)
	slice, err := toStringSlice(value)
	if err != nil {
		logger.Fatal("invalid string slice value for setting",
			"error", err,
			"key", key,
			"value", value)
	}
	return slice
}

func toStringSlice(slice []string) ([]string, error) {
	result := make([]string, 0)
	for _, entry := range slice {
		stringReader := strings.NewReader(entry)
		csvReader := csv.NewReader(stringReader)
		split, err := csvReader.Read()
		if err != nil {
			return nil, err
		}
		for _, part := range split {
			if part != "" { // Don't add empty values
				result = append(result, part)
			}
		}
	}
	return result, nil
}
