package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON fetches path and decodes a 200 response into v. The status code
// is returned so callers can treat 404 as an answer.
func (c *HTTPClient) getJSON(ctx context.Context, path string, v any) (int, error) {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("%w: GET %s: %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

// postMessage posts one message and decodes the game's answer.
func (c *HTTPClient) postMessage(ctx context.Context, msg Message) (MessageResult, error) {
	var res MessageResult
	resp, err := c.Post(ctx, "/messages", msg)
	if err != nil {
		return res, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return res, fmt.Errorf("%w: POST /messages: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("decode /messages: %w", err)
	}
	return res, nil
}

// submitScript posts the script one message at a time; the game is
// order-sensitive, so there is no worker pool here. Every answer is checked
// against the replay.
func submitScript(ctx context.Context, config *Config, client *HTTPClient, steps []Step, stats *Stats) error {
	log.Printf("📤 Submitting %d messages...", len(steps))

	var lastReport time.Time
	for i := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled during submission: %w", err)
		}
		step := steps[i]

		res, err := client.postMessage(ctx, step.Message)
		stats.MessagesSubmitted++
		if err != nil {
			stats.Failed++
			// A lost message desynchronises everything after it.
			return fmt.Errorf("message %d: %w", i, err)
		}
		checkResult(ctx, config, i, step, res, stats)

		if step.Redeliver {
			dup, err := client.postMessage(ctx, step.Message)
			stats.MessagesSubmitted++
			switch {
			case err != nil:
				stats.Failed++
			case dup.Duplicate:
				stats.Duplicates++
			default:
				stats.Mismatches++
				logger.Get().Warn(ctx, "redelivered message was applied twice", logger.String("messageID", step.Message.MessageID))
			}
		}

		if time.Since(lastReport) >= progressInterval {
			lastReport = time.Now()
			if config.Verbose {
				log.Printf("📊 Progress: %d/%d (accepted: %d, mistakes: %d, mismatches: %d)",
					i+1, len(steps), stats.Accepted+stats.PersonalBests, stats.Mistakes, stats.Mismatches)
			}
		}
	}

	log.Printf(`✅ Submission completed:
   Accepted: %d
   Personal bests: %d
   Mistakes: %d
   Duplicates: %d
   Mismatches: %d
`, stats.Accepted, stats.PersonalBests, stats.Mistakes, stats.Duplicates, stats.Mismatches)
	return nil
}

func checkResult(ctx context.Context, config *Config, i int, step Step, res MessageResult, stats *Stats) {
	if res.Duplicate || res.Ignored != "" || res.Outcome != step.ExpectedName || res.NextExpected != step.NextExpected {
		stats.Mismatches++
		logger.Get().Warn(ctx, "unexpected answer",
			logger.Int("step", i),
			logger.String("content", step.Message.Content),
			logger.String("expected", step.ExpectedName),
			logger.String("outcome", res.Outcome),
			logger.String("ignored", res.Ignored),
			logger.Int64("expectedNext", step.NextExpected),
			logger.Int64("next", res.NextExpected))
		return
	}
	switch res.Outcome {
	case count.OutcomeAccepted.String():
		stats.Accepted++
	case count.OutcomePersonalBest.String():
		stats.PersonalBests++
	default:
		stats.Mistakes++
	}
	if config.Verbose {
		log.Printf("   %s -> %s %v", step.Message.Content, res.Outcome, res.Reactions)
	}
}
