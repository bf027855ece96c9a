package model

import "fmt"

// AppStep is the screen a session is currently on
type AppStep int

const (
	StepIdea AppStep = iota
	StepLoading
	StepResult
)

func (s AppStep) String() string {
	switch s {
	case StepIdea:
		return "idea"
	case StepLoading:
		return "loading"
	case StepResult:
		return "result"
	default:
		return fmt.Sprintf("AppStep(%d)", int(s))
	}
}

// MarshalText encodes the step by name for JSON responses
func (s AppStep) MarshalText() ([]byte, error) {
	switch s {
	case StepIdea, StepLoading, StepResult:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("unknown step %d", int(s))
}

// UnmarshalText parses a step name
func (s *AppStep) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idea":
		*s = StepIdea
	case "loading":
		*s = StepLoading
	case "result":
		*s = StepResult
	default:
		return fmt.Errorf("unknown step %q", string(text))
	}
	return nil
}
