// Package retry provides bounded delay calculation for connection retry
// loops.
package retry

import (
	"fmt"
	"time"
)

// Policy is a stateless exponential delay calculator without jitter.
type Policy struct {
	Initial time.Duration // Delay after the first failed attempt. Must be >0.
	Max     time.Duration // Upper bound on the delay. Must be >= Initial.
	Growth  float64       // Multiplier per attempt. Must be >= 1.0.
}

// New checks the parameters and returns a new policy if they're correct,
// otherwise returns an error.
func New(initial, max time.Duration, growth float64) (Policy, error) {
	if initial <= 0 {
		return Policy{}, fmt.Errorf("initial(%d) must be >0", initial)
	}
	if initial > max {
		return Policy{}, fmt.Errorf("initial(%s) > max(%s)", initial, max)
	}
	if growth < 1.0 {
		return Policy{}, fmt.Errorf("growth(%g) must be >=1.0", growth)
	}
	return Policy{Initial: initial, Max: max, Growth: growth}, nil
}

// Delay returns the delay before attempt. The first attempt (0) has no
// delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := float64(p.Initial)
	for i := 1; i < attempt; i++ {
		d *= p.Growth
		if d >= float64(p.Max) {
			return p.Max
		}
	}
	return min(time.Duration(d), p.Max)
}
