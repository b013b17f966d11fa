package flowkit

import "time"

// RetryBuilder assembles the RetryPolicy an HTTP flow store applies to calls
// failing with ErrNetwork. A debounced save retries inside its one in-flight
// write; the graph store never queues a second write behind it.
type RetryBuilder RetryPolicy

// Retry starts a policy allowing attempts calls in total. Values below one
// mean a single call.
func Retry(attempts int) RetryBuilder {
	return RetryBuilder{MaxAttempts: max(attempts, 1)}
}

// WithExponentialBackoff waits initial before the first retry and multiplies
// the wait by factor for each later one, capped at limit when limit is
// positive. A non-positive factor selects 2.
//
//	Retry(4).WithExponentialBackoff(100*time.Millisecond, 2, 300*time.Millisecond)
//
// waits 100ms, 200ms and then 300ms.
func (b RetryBuilder) WithExponentialBackoff(initial time.Duration, factor float64, limit time.Duration) RetryBuilder {
	if factor <= 0 {
		factor = 2
	}
	b.InitialBackoff, b.BackoffMultiplier, b.MaxBackoff = initial, factor, limit
	return b
}

// WithConstantBackoff waits delay before every retry.
func (b RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	b.InitialBackoff, b.BackoffMultiplier, b.MaxBackoff = delay, 1, 0
	return b
}

// Immediate retries without waiting.
func (b RetryBuilder) Immediate() RetryBuilder {
	b.InitialBackoff, b.BackoffMultiplier, b.MaxBackoff = 0, 0, 0
	return b
}

// Schedule lists the wait before each retry, one entry per retry.
func (b RetryBuilder) Schedule() []time.Duration {
	p := b.Policy()
	waits := make([]time.Duration, 0, p.Attempts()-1)
	for retry := 1; retry < p.Attempts(); retry++ {
		waits = append(waits, p.Delay(retry))
	}
	return waits
}

// Policy returns the value to set as HTTPOptions.Retry.
func (b RetryBuilder) Policy() RetryPolicy {
	return RetryPolicy(b)
}
