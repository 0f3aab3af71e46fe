package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports an orchestration configuration or lifecycle fault.
//
// Configuration errors include:
//   - Duplicate model ids
//   - Dependencies on unregistered ids
//   - Dependency cycles
//   - Calls made in the wrong lifecycle phase
//   - Initialization failure of a required model
//
// They indicate a wiring bug and are never retried.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// ModelID identifies the model at fault, when there is one.
	ModelID string

	// Path is the dependency cycle, first id repeated at the end.
	Path []string

	// Cause is the underlying error (INIT_FAILED).
	Cause error
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeDuplicateModel indicates an id registered twice.
	ErrCodeDuplicateModel ConfigErrorCode = "DUPLICATE_MODEL"

	// ErrCodeUnknownDependency indicates a dependency on an unregistered id.
	ErrCodeUnknownDependency ConfigErrorCode = "UNKNOWN_DEPENDENCY"

	// ErrCodeDependencyCycle indicates a model that transitively depends on itself.
	ErrCodeDependencyCycle ConfigErrorCode = "DEPENDENCY_CYCLE"

	// ErrCodeInvalidState indicates a call made in the wrong lifecycle phase.
	ErrCodeInvalidState ConfigErrorCode = "INVALID_STATE"

	// ErrCodeNoModels indicates Initialize with nothing registered.
	ErrCodeNoModels ConfigErrorCode = "NO_MODELS"

	// ErrCodeInitFailed indicates a required model failed to initialize.
	ErrCodeInitFailed ConfigErrorCode = "INIT_FAILED"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.ModelID != "" {
		fmt.Fprintf(&b, " (model=%s)", e.ModelID)
	}
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Path, " -> "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error { return e.Cause }

// IsConfigError reports whether err wraps a ConfigError with the given code.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsCycleError reports whether err is a dependency cycle error.
func IsCycleError(err error) bool {
	return IsConfigError(err, ErrCodeDependencyCycle)
}

func newCycleError(path []string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeDependencyCycle,
		Message: "models depend on each other",
		ModelID: path[0],
		Path:    path,
	}
}

func newStateError(op string, state State) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("%s not allowed in state %s", op, state),
	}
}

// ErrNilModel is returned by Register for a nil model or empty id.
var ErrNilModel = errors.New("model and id are required")
