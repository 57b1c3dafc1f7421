package simulate

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/okian/tally/pkg/logger"
)

// SetupLogging sends simulator output to stdout and, when logFile is set,
// to that file as well.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithOutput(out), logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Tally Game Simulator
====================

Plays a scripted counting game against a running service through
POST /messages and checks every answer, every participant's rank and the
leaderboard against a local replay of the same game.

Nobody else should be counting in the channel while it runs.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -channel int
        Counting channel configured on the service (required)
  -participants int
        Number of simulated users (default 5)
  -messages int
        Number of messages to post (default 500)
  -mistakes float
        Share of messages that break the count (default 0.05)
  -duplicates float
        Share of messages delivered twice (default 0.02)
  -baseline int
        Reset baseline configured on the service (default 0)
  -top int
        Number of leaderboard rows to fetch (default 50)
  -workers int
        Concurrent rank lookups (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the generated script to this JSON file
  -log string
        Also write output to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/simulate -channel 42
  go run ./cmd/simulate -channel 42 -participants 20 -messages 5000 -mistakes 0.1
`)
}
