package api

import (
	"math"
	"time"
)

// Action selects the outgoing edge a flow follows after a node finishes.
type Action string

const (
	// ActionNone is returned by a post step that expresses no preference.
	// Flows look it up as ActionDefault.
	ActionNone Action = ""

	// ActionDefault is the label used for plain Next edges.
	ActionDefault Action = "default"
)

// Key returns the successor key the action maps to.
func (a Action) Key() Action {
	if a == ActionNone {
		return ActionDefault
	}
	return a
}

// Params holds per-run configuration delivered to a node.
type Params map[string]any

// Clone returns a shallow copy of p. A nil Params clones to an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a new Params holding p overridden by over.
// Neither input is modified.
func (p Params) Merge(over Params) Params {
	out := make(Params, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// String returns the value under key if it is a string.
func (p Params) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// RetryPolicy controls how a node's exec step is retried when it fails.
// MaxRetries counts every attempt, including the first:
//
//	MaxRetries = 1 => exec runs once, no retries
//	MaxRetries = 3 => initial call + up to 2 retries
//
// Wait is the delay applied after a failed attempt that will be retried.
// When Multiplier > 1 the delay grows after each failure, capped by MaxWait
// if MaxWait > 0.
type RetryPolicy struct {
	MaxRetries int
	Wait       time.Duration
	Multiplier float64
	MaxWait    time.Duration
}

// Attempts returns the number of exec attempts, never less than one.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 1 {
		return 1
	}
	return p.MaxRetries
}

// Delay returns the backoff applied after the given failed attempt (1-based).
func (p RetryPolicy) Delay(failed int) time.Duration {
	d := p.Wait
	if d <= 0 {
		return 0
	}
	if p.Multiplier > 1 {
		for i := 1; i < failed; i++ {
			next := float64(d) * p.Multiplier
			if next >= math.MaxInt64 {
				if p.MaxWait > 0 {
					return p.MaxWait
				}
				return time.Duration(math.MaxInt64)
			}
			d = time.Duration(next)
			if p.MaxWait > 0 && d >= p.MaxWait {
				return p.MaxWait
			}
		}
	}
	if p.MaxWait > 0 && d > p.MaxWait {
		d = p.MaxWait
	}
	return d
}

// RunInfo identifies one top-level flow invocation. Nested flows and every
// branch of a parallel batch share the RunInfo of the outermost run.
type RunInfo struct {
	ID        string
	Root      string
	StartedAt time.Time
}
