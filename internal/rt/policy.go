package rt

import "fmt"

// CatchUpPolicy decides what happens when more than one clock due instant
// falls inside a single scheduler cycle, which means the loop ran slower
// than the clock's period.
type CatchUpPolicy int

const (
	// CatchUpSkip ticks once covering the whole missed span (dt = n*T)
	// and jumps the counter to the latest due instant. A late loop gets
	// the freshest state without a burst of replayed transitions.
	CatchUpSkip CatchUpPolicy = iota
	// CatchUpReplay ticks once per missed period (dt = T each), so
	// difference equations see every step they would have on schedule.
	CatchUpReplay
)

func (p CatchUpPolicy) String() string {
	switch p {
	case CatchUpSkip:
		return "skip"
	case CatchUpReplay:
		return "replay"
	}
	return fmt.Sprintf("catchup(%d)", int(p))
}

// ParseCatchUp converts a configuration string to a policy.
func ParseCatchUp(s string) (CatchUpPolicy, error) {
	switch s {
	case "skip":
		return CatchUpSkip, nil
	case "replay":
		return CatchUpReplay, nil
	}
	return CatchUpSkip, fmt.Errorf("invalid catch-up policy %q: must be 'skip' or 'replay'", s)
}
