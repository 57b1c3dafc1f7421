package simulate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/okian/tally/internal/domain/model"
)

// ranking is what GET /rank answered for one participant. Ranked is false
// when the service does not know the user.
type ranking struct {
	UserID model.UserID
	Entry  Entry
	Ranked bool
	Err    error
}

// retrieveRankings looks up every participant concurrently.
func retrieveRankings(ctx context.Context, config *Config, client *HTTPClient, participants []model.UserID, stats *Stats) ([]ranking, error) {
	log.Printf("🏆 Retrieving rankings for %d participants with %d workers...", len(participants), config.Workers)

	results := make([]ranking, len(participants))
	var (
		retrieved int64
		failed    int64
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indexChan {
				if ctx.Err() != nil {
					return
				}
				r := retrieveSingleRanking(ctx, client, participants[index])
				results[index] = r
				if r.Err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("⚠️  Failed to get rank for %s: %v", r.UserID, r.Err)
					}
					continue
				}
				atomic.AddInt64(&retrieved, 1)
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range participants {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled during rank retrieval: %w", err)
	}

	stats.RankingsRetrieved = int(atomic.LoadInt64(&retrieved))
	log.Printf(`✅ Ranking retrieval completed:
   Retrieved: %d
   Ranked: %d
   Failed: %d
`, stats.RankingsRetrieved, lo.CountBy(results, func(r ranking) bool { return r.Ranked }), int(atomic.LoadInt64(&failed)))

	if f := atomic.LoadInt64(&failed); f > 0 {
		return results, fmt.Errorf("%d rank lookups failed", f)
	}
	return results, nil
}

// retrieveSingleRanking fetches one participant's entry; 404 means unranked.
func retrieveSingleRanking(ctx context.Context, client *HTTPClient, userID model.UserID) ranking {
	r := ranking{UserID: userID}
	status, err := client.getJSON(ctx, "/rank/"+userID.String(), &r.Entry)
	switch {
	case err == nil:
		r.Ranked = true
	case status == http.StatusNotFound && errors.Is(err, ErrUnexpectedStatus):
	default:
		r.Err = err
	}
	return r
}

// getLeaderboard retrieves the top N leaderboard entries.
func getLeaderboard(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) ([]Entry, error) {
	log.Printf("🥇 Getting top %d leaderboard entries...", config.TopN)

	var board LeaderboardResponse
	if _, err := client.getJSON(ctx, fmt.Sprintf("/leaderboard?limit=%d", config.TopN), &board); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	stats.LeaderboardEntries = len(board.Entries)
	log.Printf("✅ Retrieved %d leaderboard entries", len(board.Entries))
	return board.Entries, nil
}

// getStatus retrieves the running count.
func getStatus(ctx context.Context, client *HTTPClient) (Status, error) {
	var st Status
	if _, err := client.getJSON(ctx, "/count", &st); err != nil {
		return st, fmt.Errorf("request failed: %w", err)
	}
	return st, nil
}

// waitHealthy polls /healthz until it answers 200 or attempts run out.
func waitHealthy(ctx context.Context, client *HTTPClient, attempts int, delay time.Duration) error {
	var last error
	for i := 0; i < attempts; i++ {
		resp, err := client.Get(ctx, "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		last = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%w: %v", ErrUnhealthy, last)
}
