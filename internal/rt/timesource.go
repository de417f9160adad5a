package rt

import "time"

// TimeSource supplies monotonic elapsed time with microsecond-or-better
// resolution. The scheduler only requires forward progress; how the next
// cycle is paced (timer interrupt, sleep, busy loop) is the caller's
// choice.
type TimeSource interface {
	Now() time.Duration
}

// Monotonic measures elapsed time from its creation using the wall
// clock's monotonic reading.
type Monotonic struct {
	epoch time.Time
}

// NewMonotonic returns a TimeSource anchored at the current instant.
func NewMonotonic() *Monotonic {
	return &Monotonic{epoch: time.Now()}
}

// Now returns the elapsed time since the source was created.
func (m *Monotonic) Now() time.Duration {
	return time.Since(m.epoch)
}

// Virtual advances a fixed step per reading, decoupling the loop from
// the wall clock. A runtime driven by a Virtual source executes cycles
// as fast as the host allows while diagram time progresses uniformly,
// which is how batch replays and deterministic tests run.
type Virtual struct {
	step time.Duration
	now  time.Duration
}

// NewVirtual returns a TimeSource that gains step per reading.
func NewVirtual(step time.Duration) *Virtual {
	return &Virtual{step: step}
}

// Now returns virtual elapsed time, advancing it by one step.
func (v *Virtual) Now() time.Duration {
	v.now += v.step
	return v.now
}
