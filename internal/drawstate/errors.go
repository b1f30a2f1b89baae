package drawstate

import (
	"errors"
	"fmt"
)

// Load-time invariant violations. Every error returned by the Table entry
// points is a *ConfigError wrapping one of these.
var (
	ErrMultipleDefaults     = errors.New("more than one default state")
	ErrDefaultNotFirst      = errors.New("default state must be declared before other states")
	ErrNoConditions         = errors.New("state declares no condition pattern")
	ErrDuplicateConditions  = errors.New("duplicate condition pattern")
	ErrIgnoredConditions    = errors.New("condition pattern uses ignored conditions")
	ErrTransitionSameState  = errors.New("transition between identical states")
	ErrDuplicateTransition  = errors.New("duplicate transition")
	ErrTransitionMode       = errors.New("transition must use a single-shot animation mode")
	ErrTransitionKeys       = errors.New("transition may not declare transition or finish keys")
	ErrAliasWithoutState    = errors.New("alias declared before any state")
	ErrEmptyTransitionKey   = errors.New("transition endpoint has no state key")
	ErrUnknownAnimationMode = errors.New("unknown animation mode")
	ErrUnknownStateFlag     = errors.New("unknown state flag")
)

// ConfigError reports a rejected definition.
type ConfigError struct {
	Template string // drawable template name
	State    string // offending state description, may be empty
	Err      error  // one of the Err* sentinels
	Detail   string
}

func (e *ConfigError) Error() string {
	msg := e.Template
	if e.State != "" {
		msg += " [" + e.State + "]"
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (t *Table) configError(state string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{
		Template: t.name,
		State:    state,
		Err:      err,
		Detail:   fmt.Sprintf(format, args...),
	}
}
