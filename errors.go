package repertoire

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOptionsUnsupported is returned when a strategy has no options capability;
	// callers must then supply full arguments.
	ErrOptionsUnsupported = errors.New("strategy does not provide options")

	// Domain failures. They are wrapped in a DomainError naming the strategy and step.
	ErrPoolPaused             = errors.New("pool is in paused state, no withdrawing is accepted")
	ErrRecoveryModeSingleExit = errors.New("pool is in recovery mode, only proportional exit is possible")
	ErrNotInRecoveryMode      = errors.New("pool is not in recovery mode")
	ErrNoSwapPool             = errors.New("no pools found with the specified tokens")
	ErrNoDSProxy              = errors.New("avatar has no DSProxy")
)

// ConfigurationError is raised at startup for a malformed or duplicated strategy definition.
type ConfigurationError struct {
	StrategyID string
	Err        error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("strategy %q: invalid configuration: %v", e.StrategyID, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// FieldError describes one argument that failed validation.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every failing argument of a single call at once.
type ValidationError struct {
	StrategyID string
	Fields     []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return fmt.Sprintf("strategy %q: invalid arguments: %s", e.StrategyID, strings.Join(parts, "; "))
}

// DomainError is a protocol-state failure, for example a paused pool.
type DomainError struct {
	StrategyID string
	Step       string
	Err        error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("strategy %q: %s: %v", e.StrategyID, e.Step, e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned for an unknown strategy id, chain or pool.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// UpstreamError wraps a failure of an external dependency: the chain node or an off-chain API.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies err for metrics labels and transport status mapping.
func ErrorKind(err error) string {
	var (
		configErr   *ConfigurationError
		validErr    *ValidationError
		domainErr   *DomainError
		notFoundErr *NotFoundError
		upstreamErr *UpstreamError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &validErr):
		return "validation"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &domainErr):
		return "domain"
	case errors.As(err, &upstreamErr):
		return "upstream"
	case errors.As(err, &configErr):
		return "configuration"
	case errors.Is(err, ErrOptionsUnsupported):
		return "unsupported"
	default:
		return "internal"
	}
}
