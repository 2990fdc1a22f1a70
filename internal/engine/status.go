package engine

import "fmt"

// Status is the lifecycle state of a startup agent. Failed and
// ExitedSuccess are terminal: once reached, the agent is frozen and takes
// no further part in any tick.
type Status uint8

const (
	// StatusActive is the normal operating state.
	StatusActive Status = iota

	// StatusFundedThisMonth marks an agent that closed a funding round in
	// the current month. It resets to StatusActive at the next month start.
	StatusFundedThisMonth

	// StatusExitedSuccess is the terminal success state, reached when
	// valuation crosses the exit threshold.
	StatusExitedSuccess

	// StatusFailed is the terminal failure state, reached when capital is
	// exhausted.
	StatusFailed
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	return s == StatusExitedSuccess || s == StatusFailed
}

// String returns the canonical lower-snake name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFundedThisMonth:
		return "funded_this_month"
	case StatusExitedSuccess:
		return "exited_success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalText encodes the status by name for JSON and CSV output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStatus is the inverse of String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "active":
		return StatusActive, nil
	case "funded_this_month":
		return StatusFundedThisMonth, nil
	case "exited_success":
		return StatusExitedSuccess, nil
	case "failed":
		return StatusFailed, nil
	default:
		return StatusActive, fmt.Errorf("unknown status %q", s)
	}
}

// UnmarshalText decodes a status encoded by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
