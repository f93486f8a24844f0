package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	dupservice "github.com/wso2/record-deduplication-service/internal/duplicates/service"
	recordstore "github.com/wso2/record-deduplication-service/internal/records/store"
	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/constants"
	"github.com/wso2/record-deduplication-service/internal/system/database/lock"
	"github.com/wso2/record-deduplication-service/internal/system/database/migrations"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/events"
	"github.com/wso2/record-deduplication-service/internal/system/log"
	"github.com/wso2/record-deduplication-service/internal/system/managers"
	"github.com/wso2/record-deduplication-service/internal/system/metrics"
	"github.com/wso2/record-deduplication-service/internal/system/schedulers"
	"github.com/wso2/record-deduplication-service/internal/system/workers"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ddsHome := getDDSHome()

	envFiles, err := config.LoadEnvFiles(ddsHome)
	if err != nil {
		fatal("Failed to load .env files", err)
	}

	// Load the configuration file
	ddsConfig, err := config.LoadConfig(ddsHome, config.DefaultConfigFile)
	if err != nil {
		fatal("Failed to load deployment configuration", err)
	}

	// Initialize runtime configurations.
	if err := config.InitializeDDSRuntime(ddsHome, ddsConfig); err != nil {
		fatal("Failed to initialize the runtime configuration", err)
	}

	// Initialize logger
	if err := log.InitWithFormat(ddsConfig.Log.LogLevel, ddsConfig.Log.Format); err != nil {
		fatal("Failed to initialize the logger", err)
	}
	logger := log.GetLogger()
	if len(envFiles) > 0 {
		logger.Debug("Loaded environment files", log.Any("files", envFiles))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	dbProvider := provider.NewDBProvider()
	dbClient, err := dbProvider.GetDBClient()
	if err != nil {
		fatal("Failed to connect to the database", err)
	}
	if ddsConfig.DataSource.MigrateOnStart {
		_, err := migrations.Run(ctx, dbClient.DB(), migrations.Options{
			MigrationsTable: ddsConfig.DataSource.MigrationsTable,
		})
		if err != nil {
			fatal("Failed to migrate the database", err)
		}
	}

	publisher := events.NewPublisher(ddsConfig.Kafka)
	events.SetPublisher(publisher)

	// Initialize scan workers and the periodic scan
	scanPool := workers.StartScanWorkers(ctx, dupservice.GetDuplicateService(), lock.NewPostgresLock(dbProvider),
		ddsConfig.Dedupe.ScanQueueSize, ddsConfig.Dedupe.ScanJobs)
	go schedulers.StartScanScheduler(ctx, ddsConfig.Dedupe.ScanInterval, recordstore.NewRecordStore(dbProvider),
		workers.EnqueueScan, ddsConfig.Dedupe.ScanLimit)

	serverAddr := fmt.Sprintf("%s:%d", ddsConfig.Addr.Host, ddsConfig.Addr.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           enableCORS(initMultiplexer(ddsConfig), ddsConfig.Auth.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the record deduplication service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down the HTTP server", log.Error(err))
		}
	}()

	logger.Info("Record deduplication service started", log.String("address", serverAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to serve requests", log.Error(err))
	}

	scanPool.Stop()
	if err := publisher.Close(); err != nil {
		logger.Warn("Failed to close the event publisher", log.Error(err))
	}
	if err := provider.ClosePool(); err != nil {
		logger.Warn("Failed to close the database pool", log.Error(err))
	}
	logger.Info("Record deduplication service stopped")
}

// initMultiplexer initializes the HTTP multiplexer and registers the services.
func initMultiplexer(ddsConfig *config.Config) *http.ServeMux {

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux)

	// Register the services.
	if err := serviceManager.RegisterServices(constants.ApiBasePath); err != nil {
		log.GetLogger().Error("Failed to register the services", log.Error(err))
	}
	if ddsConfig.Metrics.Enabled {
		mux.Handle("GET "+ddsConfig.Metrics.Path, metrics.Handler())
	}

	return mux
}

// enableCORS answers preflight requests and echoes allowed origins. A "*" entry allows any
// origin.
func enableCORS(next http.Handler, allowedOrigins []string) http.Handler {

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+constants.TraceIDHeader)
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, "+constants.TraceIDHeader)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getDDSHome() string {

	// Parse project directory from command line arguments.
	projectHomeFlag := flag.String("ddsHome", "", "Path to record deduplication service home directory")
	flag.Parse()

	if *projectHomeFlag != "" {
		return *projectHomeFlag
	}
	// If no command line argument is provided, use the current working directory.
	dir, err := os.Getwd()
	if err != nil {
		fatal("Failed to get current working directory", err)
	}
	return dir
}

// fatal reports a startup failure. The logger may not be initialized yet.
func fatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
