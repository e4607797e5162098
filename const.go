package failover

import "time"

const (
	// Backoff for the bounded-retry policy: a linear ramp of
	// retryDelayStep * (attempt - 1), capped at maxRetryDelay. The ramp is
	// deliberately not exponential; a cluster failover window is typically
	// tens of seconds and retries should be spread across it rather than
	// bunched at the start or pushed past its end.
	retryDelayStep = 1500 * time.Millisecond
	maxRetryDelay  = 10 * time.Second
)

const defaultPort = "3306"

const (
	reset  = "\033[0m"
	green  = "\033[32m"
	yellow = "\033[33m"
)
