// Package service owns the running game. It serializes every submission
// through one critical section that validates, mutates and persists, and
// feeds asynchronously delivered messages through a queue and worker pool.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/okian/tally/internal/adapters/mq/queue"
	"github.com/okian/tally/internal/adapters/mq/worker"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/domain/count"
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/types"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

const (
	defaultWorkerCount   = 1
	defaultQueueSize     = 10_000
	defaultDedupeSize    = 50_000
	defaultRetryInterval = 5 * time.Second
)

// Service is the single owner of the game state.
type Service struct {
	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	// mu guards everything below it. Writers hold it across
	// validate, mutate and save.
	mu       sync.RWMutex
	state    *count.State
	dirty    bool
	started  bool
	stopping bool
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	store   repository.Store
	deduper dedupe.Deduper

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	baseline       int64
	ignoreOverride *bool
	retryInterval  time.Duration

	stopCh    chan struct{}
	flusherWG sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service backed by store. Nothing is loaded until Start.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		workerCount:   defaultWorkerCount,
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start loads the stored game, or creates and saves a fresh one, then starts
// the workers that feed queued messages to h and the retry flusher.
// A stored document that cannot be trusted is returned as an error wrapping
// repository.ErrMalformed and nothing is started.
func (s *Service) Start(ctx context.Context, h worker.Handler) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}

	state, loaded, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = state
	// Rewrite the document straight away so a migrated or freshly created
	// game is on disk before the first submission.
	if err := s.persistLocked(ctx); err != nil && !loaded {
		s.mu.Unlock()
		return fmt.Errorf("bootstrap document: %w", err)
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, h, worker.WithPoolLogger(s.logger))
	s.stopCh = make(chan struct{})
	s.started = true
	s.observeLocked()
	s.mu.Unlock()

	// Only Stop ends the workers; a cancelled caller context must not drop
	// messages that were already acknowledged.
	s.pool.Start(context.WithoutCancel(ctx))
	s.flusherWG.Add(1)
	go s.flushLoop(s.stopCh)

	if loaded {
		s.logger.Info(ctx, "loaded count",
			logger.Int64("count", state.DisplayCount()),
			logger.Int64("next", state.NextExpected()),
			logger.Int("participants", state.Leaderboard().Len()),
		)
	} else {
		s.logger.Info(ctx, "no stored count found, created a new one")
	}
	s.logger.Info(ctx, "counting service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// load restores the game from the store. loaded is false when nothing was
// stored yet.
func (s *Service) load(ctx context.Context) (state *count.State, loaded bool, err error) {
	opts := []count.Option{count.WithBaseline(s.baseline)}
	if s.ignoreOverride != nil {
		opts = append(opts, count.WithIgnoreRepeatedUsers(*s.ignoreOverride))
	}

	doc, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return count.New(opts...), false, nil
	case err != nil:
		return nil, false, fmt.Errorf("load document: %w", err)
	}

	state, err = count.FromSnapshot(doc.Snapshot, opts...)
	if err != nil {
		return nil, false, fmt.Errorf("restore game: %w: %v", repository.ErrMalformed, err)
	}
	return state, true, nil
}

// Stop drains queued messages, stops the flusher and saves the game one last
// time.
func (s *Service) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	started, pool := s.started, s.pool
	if started {
		s.stopping = true
	}
	s.mu.Unlock()
	if !started {
		return nil
	}

	s.logger.Info(ctx, "stopping counting service...")

	var errs []error
	// Workers still call Submit while draining, so the lock is not held here.
	if err := pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	close(s.stopCh)
	s.flusherWG.Wait()

	s.mu.Lock()
	if err := s.persistLocked(ctx); err != nil {
		errs = append(errs, err)
	}
	s.started = false
	s.stopping = false
	s.mu.Unlock()

	s.logger.Info(ctx, "counting service stopped")
	return errors.Join(errs...)
}

// Flush saves the game if an earlier save failed.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || !s.dirty {
		return nil
	}
	return s.persistLocked(ctx)
}

func (s *Service) flushLoop(stop <-chan struct{}) {
	defer s.flusherWG.Done()

	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx := context.Background()
			if err := s.Flush(ctx); err != nil {
				s.logger.Warn(ctx, "retrying save failed", logger.Error(err))
			}
		}
	}
}

// persistLocked saves the current game. A failure marks the service dirty
// for the flusher; the in-memory state is kept either way.
func (s *Service) persistLocked(ctx context.Context) error {
	doc := repository.NewDocument(s.state.Snapshot())

	// A caller that goes away mid-request must not abort the write.
	if err := s.store.Save(context.WithoutCancel(ctx), doc); err != nil {
		s.dirty = true
		metrics.RecordPersistSave("error")
		metrics.UpdatePersistDirty(true)
		s.logger.Error(ctx, "failed to save count", logger.Error(err), logger.Int64("count", doc.Count))
		return fmt.Errorf("persist: %w", err)
	}
	s.dirty = false
	metrics.RecordPersistSave("ok")
	metrics.UpdatePersistDirty(false)
	return nil
}

func (s *Service) observeLocked() {
	metrics.UpdateCurrentCount(s.state.Count())
	metrics.UpdateParticipants(s.state.Leaderboard().Len())
}

// Submit applies one submission and persists the result. The returned error
// is ErrNotStarted only; a failed save is logged and retried later, the
// outcome stands.
func (s *Service) Submit(ctx context.Context, userID model.UserID, value int64) (count.Outcome, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return count.Outcome{}, ErrNotStarted
	}

	out := s.state.Submit(userID, value)
	_ = s.persistLocked(ctx)
	s.observeLocked()

	metrics.RecordSubmission(out.Kind.String())
	metrics.RecordSubmissionLatency(float64(time.Since(start).Milliseconds()))

	switch out.Kind {
	case count.OutcomeRepeatedUser, count.OutcomeWrongNumber:
		metrics.RecordReset(out.Kind.String())
		s.logger.Info(ctx, "count ruined",
			logger.Stringer("user", userID),
			logger.Int64("value", value),
			logger.Int64("count", out.DisplayCount),
			logger.Int64("next", out.NextExpected),
			logger.Stringer("reason", out.Kind),
		)
	case count.OutcomePersonalBest:
		metrics.RecordPersonalBest()
		s.logger.Info(ctx, "personal best",
			logger.Stringer("user", userID),
			logger.Int64("best", out.NewBest),
			logger.Int64("previous", out.PreviousBest),
		)
		if out.RankImproved {
			metrics.RecordRankImprovement()
			s.logger.Info(ctx, "rank improved",
				logger.Stringer("user", userID),
				logger.Int("rank", out.NewRank),
				logger.Int("previous", out.PreviousRank),
			)
		}
	default:
		s.logger.Debug(ctx, "count incremented",
			logger.Stringer("user", userID),
			logger.Int64("count", value),
			logger.Int64("next", out.NextExpected),
		)
	}
	return out, nil
}

// Reset sets the count to n and forgets the last user. The leaderboard is
// kept.
func (s *Service) Reset(ctx context.Context, n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}

	s.state.Reset(n)
	_ = s.persistLocked(ctx)
	s.observeLocked()
	metrics.RecordReset("admin")
	s.logger.Info(ctx, "count reset", logger.Int64("count", n))
	return nil
}

// RemoveEntry deletes a participant from the leaderboard.
func (s *Service) RemoveEntry(ctx context.Context, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}

	if !s.state.Leaderboard().RemoveEntry(userID) {
		return fmt.Errorf("%w: %s", ErrNotRanked, userID)
	}
	_ = s.persistLocked(ctx)
	s.observeLocked()
	s.logger.Info(ctx, "leaderboard entry removed", logger.Stringer("user", userID))
	return nil
}

// TopN returns the n best participants.
func (s *Service) TopN(_ context.Context, n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return lo.Map(s.state.Leaderboard().TopEntries(n), toEntry), nil
}

// Entry returns one participant's standing.
func (s *Service) Entry(_ context.Context, userID model.UserID) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Entry{}, ErrNotStarted
	}

	e, ok := s.state.Leaderboard().Entry(userID)
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s", ErrNotRanked, userID)
	}
	return toEntry(e, 0), nil
}

// Status describes the running count. It returns ErrStopping once Stop has
// begun, so health checks fail while the queue drains.
func (s *Service) Status(_ context.Context) (types.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Status{}, ErrNotStarted
	}
	if s.stopping {
		return types.Status{}, ErrStopping
	}

	st := types.Status{
		Count:               s.state.Count(),
		DisplayCount:        s.state.DisplayCount(),
		NextExpected:        s.state.NextExpected(),
		IgnoreRepeatedUsers: s.state.IgnoreRepeatedUsers(),
		Participants:        s.state.Leaderboard().Len(),
	}
	if id, ok := s.state.LastUserID(); ok {
		st.LastUserID = &id
	}
	return st, nil
}

func toEntry(e leaderboard.Entry, _ int) types.Entry {
	return types.Entry{
		Rank:             e.Rank,
		LastRank:         e.LastRank,
		UserID:           e.UserID,
		HighestCount:     e.HighestCount,
		LastHighestCount: e.LastHighestCount,
		TimesCounted:     e.TimesCounted,
		MistakesMade:     e.MistakesMade,
	}
}

// SeenAndRecord atomically checks if a message id was seen and records it
// if not. Returns true if the message was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordMessageDuplicate()
	}
	return seen
}

// Unrecord forgets a message id so a redelivery is processed.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue queues a message for the workers. It returns ErrDuplicate for a
// message id seen before, and wraps queue.ErrFull or queue.ErrStopped when
// the message could not be queued.
func (s *Service) Enqueue(ctx context.Context, msg model.Message) error { //nolint:gocritic // hugeParam
	s.mu.RLock()
	started, stopping, q := s.started, s.stopping, s.queue
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	if stopping {
		return ErrStopping
	}

	if s.SeenAndRecord(ctx, msg.MessageID) {
		s.logger.Debug(ctx, "duplicate message, skipping", logger.String("messageID", msg.MessageID))
		return fmt.Errorf("%w: %s", ErrDuplicate, msg.MessageID)
	}

	if err := q.Enqueue(ctx, msg); err != nil {
		s.Unrecord(ctx, msg.MessageID)
		s.logger.Warn(ctx, "failed to enqueue message",
			logger.String("messageID", msg.MessageID),
			logger.Error(err),
		)
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"stopping":      s.stopping,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"dedupeEntries": s.deduper.Size(),
		"dirty":         s.dirty,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["count"] = s.state.Count()
		stats["participants"] = s.state.Leaderboard().Len()
	}
	return stats
}
