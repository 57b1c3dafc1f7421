package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/pkg/logger"
)

const (
	healthAttempts = 10
	healthDelay    = 500 * time.Millisecond
)

// Run executes a complete simulated game.
func Run(ctx context.Context, config *Config) error {
	if err := config.validate(); err != nil {
		return err
	}
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting tally game simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int64("channel", config.ChannelID),
		logger.Int("participants", config.Participants),
		logger.Int("messages", config.Messages),
		logger.Float64("mistakeRate", config.MistakeRate),
		logger.Float64("duplicateRate", config.DuplicateRate),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Wait for the service
	if err := waitHealthy(ctx, client, healthAttempts, healthDelay); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Pick up the game where it stands
	replay, err := newReplay(ctx, config, client)
	if err != nil {
		return fmt.Errorf("read count: %w", err)
	}

	// Step 3: Script the game
	participants := newParticipants(config.Participants)
	steps, err := generateScript(ctx, config, replay, participants, stats)
	if err != nil {
		return fmt.Errorf("script generation failed: %w", err)
	}
	if config.OutputFile != "" {
		if err := saveScript(ctx, config.OutputFile, steps); err != nil {
			logger.Get().Warn(ctx, "failed to save script", logger.Error(err))
		}
	}

	// Step 4: Play it
	if err := submitScript(ctx, config, client, steps, stats); err != nil {
		return fmt.Errorf("message submission failed: %w", err)
	}

	// Step 5: Read back ranks and the leaderboard
	rankings, err := retrieveRankings(ctx, config, client, participants, stats)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}
	board, err := getLeaderboard(ctx, config, client, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 6: Compare with the replay
	verifyErr := verifyResults(ctx, config, replay, rankings, board, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if verifyErr != nil {
		return fmt.Errorf("result verification failed: %w", verifyErr)
	}
	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ChannelID <= 0 {
		errs = append(errs, errors.New("channel must be set"))
	}
	if c.Participants < 1 {
		errs = append(errs, errors.New("participants must be positive"))
	}
	if c.Messages < 1 {
		errs = append(errs, errors.New("messages must be positive"))
	}
	if c.MistakeRate < 0 || c.MistakeRate > 1 {
		errs = append(errs, errors.New("mistakes must be between 0 and 1"))
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		errs = append(errs, errors.New("duplicates must be between 0 and 1"))
	}
	if c.Baseline < 0 {
		errs = append(errs, errors.New("baseline must not be negative"))
	}
	if c.TopN < 1 || c.Workers < 1 {
		errs = append(errs, errors.New("top and workers must be positive"))
	}
	return errors.Join(errs...)
}

// newReplay seeds the local game from GET /count with an empty leaderboard;
// only the fresh participants are compared later.
func newReplay(ctx context.Context, config *Config, client *HTTPClient) (*count.State, error) {
	st, err := getStatus(ctx, client)
	if err != nil {
		return nil, err
	}
	if !st.IgnoreRepeatedUsers && config.Participants < 2 {
		return nil, errors.New("at least two participants are needed when users must take turns")
	}
	return count.FromSnapshot(count.Snapshot{
		Count:               st.Count,
		LastUserID:          st.LastUserID,
		IgnoreRepeatedUsers: st.IgnoreRepeatedUsers,
	}, count.WithBaseline(config.Baseline))
}

// saveScript writes the generated steps to a JSON file.
func saveScript(ctx context.Context, filename string, steps []Step) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	raw, err := json.MarshalIndent(steps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal script: %w", err)
	}
	if err := os.WriteFile(filename, raw, logFilePermission); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}

	logger.Get().Info(ctx, "script saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var accuracy, messagesPerSecond float64

	if stats.MessagesSubmitted > 0 {
		accuracy = float64(stats.MessagesSubmitted-stats.Mismatches-stats.Failed) / float64(stats.MessagesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		messagesPerSecond = float64(stats.MessagesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("stepsGenerated", stats.StepsGenerated),
		logger.Int("messagesSubmitted", stats.MessagesSubmitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("personalBests", stats.PersonalBests),
		logger.Int("mistakes", stats.Mistakes),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("failed", stats.Failed),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("accuracy", accuracy),
		logger.Float64("messagesPerSecond", messagesPerSecond))
}
