package runtime

import (
	"fmt"
	"math"
	"time"

	"github.com/statelyhq/stately/pkg/domain"
)

// matchRetry consults a state's ordered Retry list for err. The first
// entry that matches the error and still has attempts left wins: its
// per-entry counter on the execution is incremented and the backoff delay
// for this attempt is returned. Entries are keyed on the execution's
// attempt map as "<state>#retry-<index>".
func matchRetry(retries []domain.RetryDef, exec *domain.Execution, stateName string, err error) (time.Duration, bool) {
	for i, entry := range retries {
		if !matchesAny(entry.ErrorEquals, err) {
			continue
		}
		key := fmt.Sprintf("%s#retry-%d", stateName, i)
		if exec.Attempts[key] >= entry.MaxAttempts {
			continue
		}
		exec.Attempts[key]++
		return backoffDelay(entry, exec.Attempts[key]), true
	}
	return 0, false
}

// matchCatch returns the first Catch entry matching err.
func matchCatch(catches []domain.CatchDef, err error) (*domain.CatchDef, bool) {
	for i := range catches {
		if matchesAny(catches[i].ErrorEquals, err) {
			return &catches[i], true
		}
	}
	return nil, false
}

func matchesAny(names []string, err error) bool {
	for _, name := range names {
		if domain.MatchesError(name, err) {
			return true
		}
	}
	return false
}

// backoffDelay computes the sleep before retry attempt n (1-indexed):
// min(IntervalSeconds × BackoffRate^(n−1), MaxDelaySeconds).
func backoffDelay(entry domain.RetryDef, attempt int) time.Duration {
	delay := float64(entry.IntervalSeconds) * math.Pow(entry.BackoffRate, float64(attempt-1))
	if limit := float64(entry.MaxDelaySeconds); delay > limit {
		delay = limit
	}
	return time.Duration(delay * float64(time.Second))
}
