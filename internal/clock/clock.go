package clock

import "time"

// Clock provides current time abstraction for deterministic tests.
// Params: none.
// Returns: current wall-clock time.
type Clock interface {
	Now() time.Time
}

// RealClock reads current UTC time from system clock.
// Params: none.
// Returns: current UTC timestamp.
type RealClock struct{}

// Now returns current UTC time.
// Params: none.
// Returns: current UTC timestamp.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Func adapts a plain function into a Clock for tests.
// Params: time source function.
// Returns: Clock delegating to the function.
type Func func() time.Time

// Now returns wrapped function result.
// Params: none.
// Returns: timestamp from wrapped function.
func (f Func) Now() time.Time {
	return f()
}
