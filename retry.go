package nodeflow

import "time"

// RetryBuilder assembles the RetryPolicy a node applies to its Exec step.
// Pass the result of Policy to WithRetry:
//
//	n := NewNode(WithRetry(Retry(5).WithConstantBackoff(time.Second).Policy()))
type RetryBuilder struct {
	policy RetryPolicy
}

// Retry starts a policy that calls Exec at most attempts times, the first
// call included, before ExecFallback runs. Anything below 1 means a single
// call.
func Retry(attempts int) RetryBuilder {
	if attempts <= 0 {
		attempts = 1
	}
	return RetryBuilder{policy: RetryPolicy{MaxRetries: attempts}}
}

// WithExponentialBackoff waits initial after the first failed Exec and
// multiplies the wait by multiplier after each further failure. A
// multiplier <= 0 becomes 2. max bounds the wait; max <= 0 leaves it
// unbounded.
//
//	Retry(4).WithExponentialBackoff(100*time.Millisecond, 2, time.Second)
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) RetryBuilder {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	p := r.policy
	p.Wait, p.Multiplier, p.MaxWait = initial, multiplier, max
	return RetryBuilder{policy: p}
}

// WithConstantBackoff waits delay after every failed Exec.
func (r RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	p := r.policy
	p.Wait, p.Multiplier, p.MaxWait = delay, 1.0, 0
	return RetryBuilder{policy: p}
}

// Immediate calls Exec again right after a failure.
func (r RetryBuilder) Immediate() RetryBuilder {
	p := r.policy
	p.Wait, p.Multiplier, p.MaxWait = 0, 0, 0
	return RetryBuilder{policy: p}
}

func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}
