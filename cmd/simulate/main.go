package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/tally/internal/simulate"
)

// Default configuration constants.
const (
	defaultParticipants  = 5
	defaultMessages      = 500
	defaultMistakeRate   = 0.05
	defaultDuplicateRate = 0.02
	defaultTopN          = 50
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		channelID    = flag.Int64("channel", 0, "Counting channel configured on the service")
		participants = flag.Int("participants", defaultParticipants, "Number of simulated users")
		messages     = flag.Int("messages", defaultMessages, "Number of messages to post")
		mistakes     = flag.Float64("mistakes", defaultMistakeRate, "Share of messages that break the count")
		duplicates   = flag.Float64("duplicates", defaultDuplicateRate, "Share of messages delivered twice")
		baseline     = flag.Int64("baseline", 0, "Reset baseline configured on the service")
		topN         = flag.Int("top", defaultTopN, "Number of leaderboard rows to fetch")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent rank lookups")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile   = flag.String("output", "", "Write the generated script to this JSON file")
		logFile      = flag.String("log", "", "Also write output to this file")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:       *baseURL,
		ChannelID:     *channelID,
		Participants:  *participants,
		Messages:      *messages,
		MistakeRate:   *mistakes,
		DuplicateRate: *duplicates,
		Baseline:      *baseline,
		TopN:          *topN,
		Workers:       *workers,
		Timeout:       *timeout,
		OutputFile:    *outputFile,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
