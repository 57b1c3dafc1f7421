package simulate

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	progressInterval     = time.Second
	directoryPermission  = 0o750
	logFilePermission    = 0o600
)

// Snowflake range for simulated users; well clear of real platform ids.
const (
	participantIDBase  = 900_000_000_000_000_000
	participantIDRange = 1_000_000_000_000
)
