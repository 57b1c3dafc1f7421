package service

import (
	"time"

	"github.com/okian/tally/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines draining the queue.
// More than one worker gives up delivery-order processing.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting messages.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many message ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBaseline sets the value the count returns to after a mistake.
func WithBaseline(baseline int64) Option {
	return func(s *Service) {
		if baseline >= 0 {
			s.baseline = baseline
		}
	}
}

// WithIgnoreRepeatedUsers overrides the persisted turn-order flag.
func WithIgnoreRepeatedUsers(ignore bool) Option {
	return func(s *Service) {
		s.ignoreOverride = &ignore
	}
}

// WithPersistRetryInterval sets how often a failed save is retried.
func WithPersistRetryInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryInterval = d
		}
	}
}

// HandlerOption applies a configuration option to the Handler.
type HandlerOption func(*Handler)

// WithBotUserID sets the service's own chat identity; its messages are
// ignored.
func WithBotUserID(id int64) HandlerOption {
	return func(h *Handler) {
		h.botUserID = id
	}
}

// WithHandlerLogger sets a custom logger for the handler.
func WithHandlerLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}
