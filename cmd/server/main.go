// Command server runs the project cost estimation API server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/deliverymetrics/projcost/internal/server"
	"github.com/deliverymetrics/projcost/pkg/advanced"
	"github.com/deliverymetrics/projcost/pkg/history"
)

const (
	defaultPort       = "8080"
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
	maxHeaderBytes    = 1 << 20 // 1MB
)

// Build variables - set by ldflags.
var (
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.InfoContext(ctx, "starting server",
		"commit", GitCommit,
		"branch", GitBranch,
		"built", BuildTime,
		"go", runtime.Version(),
		"pid", os.Getpid())

	var (
		port        = flag.String("port", "", "Port to run the server on")
		version     = flag.Bool("version", false, "Print version and exit")
		corsOrigins = flag.String("cors-origins", "",
			"Comma-separated list of allowed CORS origins")
		allowAllCors = flag.Bool("allow-all-cors", false, "Allow all CORS origins (use only for development)")
		rateLimit    = flag.Int("rate-limit", server.DefaultRateLimit, "Requests per second rate limit")
		rateBurst    = flag.Int("rate-burst", server.DefaultRateBurst, "Rate limit burst size")
		dbPath       = flag.String("db", "", "Path to the historical project SQLite database (empty = built-in seed catalog)")
		configPath   = flag.String("config", "", "Path to the cost model YAML config file")
	)
	flag.Parse()

	if *version {
		logger.InfoContext(ctx, "projcost-server version",
			"commit", GitCommit,
			"branch", GitBranch,
			"built", BuildTime,
			"go", runtime.Version())
		os.Exit(0)
	}

	serverPort := *port
	if serverPort == "" {
		serverPort = os.Getenv("PORT")
	}
	if serverPort == "" {
		serverPort = defaultPort
	}

	// Historical catalog: SQLite when configured, otherwise the built-in
	// seed projects.
	var store history.Store
	var sqlStore *history.SQLiteStore
	if *dbPath != "" {
		var err error
		sqlStore, err = history.OpenSQLite(*dbPath)
		if err != nil {
			logger.ErrorContext(ctx, "could not open historical database", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()

		// Seed an empty database so the matcher has cases to work with.
		if n, err := sqlStore.Count(); err == nil && n == 0 {
			for _, p := range history.SeedProjects() {
				if err := sqlStore.Append(p); err != nil {
					logger.WarnContext(ctx, "seeding failed", "project", p.Name, "error", err)
				}
			}
		}
		store = sqlStore
		logger.InfoContext(ctx, "historical catalog opened", "path", *dbPath)
	} else {
		store = history.NewMemoryStore(history.SeedProjects()...)
		logger.InfoContext(ctx, "using built-in historical catalog")
	}

	estimator := advanced.NewEstimator(advanced.DefaultConfig())
	if *configPath != "" {
		estimator.LoadConfigFile(*configPath)
	}
	estimator.LoadHistory(store)

	apiServer := server.New(store, estimator)
	apiServer.SetCommit(GitCommit)
	apiServer.SetCORSConfig(*corsOrigins, *allowAllCors)
	apiServer.SetRateLimit(*rateLimit, *rateBurst)

	srv := &http.Server{
		Addr:              ":" + serverPort,
		Handler:           apiServer.Handler(),
		ReadTimeout:       readHeaderTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "server listening", "port", serverPort)
		serverErrors <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "server error", "error", err)
			os.Exit(1)
		}
	case sig := <-sigChan:
		logger.InfoContext(ctx, "received signal", "signal", sig)
		logger.InfoContext(ctx, "starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			cancel()
			logger.WarnContext(ctx, "graceful shutdown failed", "error", err)
			if err := srv.Close(); err != nil {
				logger.ErrorContext(ctx, "server close error", "error", err)
				os.Exit(1)
			}
		} else {
			cancel()
		}
	}

	logger.InfoContext(ctx, "server stopped")
}
