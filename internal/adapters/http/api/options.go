package api

type options struct {
	adminToken      string
	leaderboardSize int
	maxLimit        int
}

// Option configures the Server.
type Option func(*options)

// WithAdminToken requires X-Admin-Token on administrative routes. An empty
// token leaves them open.
func WithAdminToken(token string) Option {
	return func(o *options) {
		o.adminToken = token
	}
}

// WithLeaderboardSize sets how many entries /leaderboard returns without
// an explicit limit.
func WithLeaderboardSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.leaderboardSize = n
		}
	}
}

// WithMaxLimit caps the limit a client may request.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}
