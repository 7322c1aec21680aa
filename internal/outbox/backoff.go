package outbox

import "time"

// backoffCapMinutes bounds retry spacing at 24 hours.
const backoffCapMinutes = 1440

// Backoff returns the delay before the next delivery attempt after the given
// number of failed attempts: min(2^(attempts-1), 1440) minutes. The sequence
// runs 1m, 2m, 4m, ... and saturates at one day. Attempts below 1 yield zero
// so a fresh event is immediately eligible.
func Backoff(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	shift := attempts - 1
	// 2^11 minutes already exceeds the cap.
	if shift >= 11 {
		return backoffCapMinutes * time.Minute
	}
	minutes := 1 << shift
	if minutes > backoffCapMinutes {
		minutes = backoffCapMinutes
	}
	return time.Duration(minutes) * time.Minute
}
