// Command ludoserver runs the ludo REST API server.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/yourusername/ludoengine/internal/config"
	"github.com/yourusername/ludoengine/pkg/api"
	"github.com/yourusername/ludoengine/pkg/session"
	"github.com/yourusername/ludoengine/pkg/store"
)

const version = "0.1.0"

func main() {
	env, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags default to the LUDO_* environment and override it.
	host := flag.String("host", env.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", env.Port, "Port to listen on")
	dbPath := flag.String("db", env.DatabasePath, "SQLite snapshot database (empty disables persistence)")
	players := flag.Int("players", env.DefaultPlayers, "Players for games created without a count")
	readTimeout := flag.Duration("read-timeout", env.ReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", env.WriteTimeout, "HTTP write timeout")
	logLevel := flag.String("log-level", env.LogLevel, "Log level (debug, info, warn, error)")
	dev := flag.Bool("dev", env.DevLogging, "Human readable development logging")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Ludo API Server v%s\n", version)
		os.Exit(0)
	}

	env.Host, env.Port, env.DatabasePath = *host, *port, *dbPath
	env.DefaultPlayers, env.ReadTimeout, env.WriteTimeout = *players, *readTimeout, *writeTimeout
	env.LogLevel, env.DevLogging = *logLevel, *dev
	if err := env.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := env.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(env, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	managerCfg := session.Config{Logger: logger}

	// Only a configured store is handed to the API; a nil *store.Store
	// must not become a non-nil interface.
	var snapshots api.SnapshotLister
	if cfg.DatabasePath != "" {
		st, err := store.Open(cfg.DatabasePath, logger)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer st.Close()
		managerCfg.Store = st
		snapshots = st
	}

	games := session.NewManager(managerCfg)
	server := api.NewServer(games, snapshots, api.ServerConfig{
		Host:           cfg.Host,
		Port:           cfg.Port,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxFastWorkers: cfg.MaxFastWorkers,
		MaxSlowWorkers: cfg.MaxSlowWorkers,
		DefaultPlayers: cfg.DefaultPlayers,
	}, version, logger)

	return server.ListenAndServeWithGracefulShutdown()
}
