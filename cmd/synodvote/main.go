package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/caarlos0/env/v11"

	"synodvote/internal/app"
	"synodvote/internal/logger"
)

var version = "dev"

// Config holds server configuration, loaded from environment variables and
// overridable by flags.
type Config struct {
	Port     int    `env:"SYNODVOTE_PORT" envDefault:"8081"`
	DBPath   string `env:"SYNODVOTE_DB" envDefault:"synodvote.db"`
	LogLevel string `env:"SYNODVOTE_LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment: %v", err)
	}

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	logLevel := flag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `SynodVote - Church Election Voting Service

Usage:
  synodvote [options]

Options:
  -port int      HTTP server port (default 8081)
  -db string     SQLite database path (default "synodvote.db")
  -loglevel str  Log level: debug, info, warn, error (default "info")
  -version       Show version and exit
  -help          Show this help message

Environment:
  SYNODVOTE_PORT, SYNODVOTE_DB, SYNODVOTE_LOG_LEVEL

Examples:
  synodvote                          # Run on port 8081 with synodvote.db
  synodvote -port 8080               # Run on port 8080
  synodvote -db /data/elections.db   # Use custom database path
`)
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("synodvote %s\n", version)
		return
	}

	appLogger := logger.NewWithLevel(logger.ParseLevel(*logLevel))

	application, err := app.New(appLogger, *dbPath)
	if err != nil {
		appLogger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	addr := fmt.Sprintf(":%d", *port)
	if err := application.Run(addr); err != nil {
		appLogger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
