package invoker

import (
	"math/rand/v2"
	"time"
)

// emptyQueueBackoff returns a jittered delay in [800ms, 1200ms): the pause
// a Worker takes after finding no claimable task before polling again.
// Unlike the teacher's exponential BackoffConfig, there is no attempt count
// or growth here: a task whose handler fails goes straight to
// task.StatusFailed rather than being rescheduled, so there is no
// per-attempt retry delay to compute.
func emptyQueueBackoff() time.Duration {
	return 800*time.Millisecond + time.Duration(rand.IntN(400))*time.Millisecond
}
