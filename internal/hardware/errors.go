package hardware

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotOpen is returned by Computer methods that need an opened computer.
var ErrNotOpen = errors.New("computer not open")

// ComponentError wraps an error with the hardware item that produced it.
// It preserves the original error for inspection via errors.Is/errors.As.
type ComponentError struct {
	Identifier string
	Type       HardwareType
	Err        error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Identifier, e.Type, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// NewComponentError creates a new ComponentError for h.
func NewComponentError(h Hardware, err error) *ComponentError {
	return &ComponentError{
		Identifier: h.Identifier(),
		Type:       h.Type(),
		Err:        err,
	}
}

// UpdateError aggregates the component errors of a single Computer.Update.
// Items that failed keep their previous sensors; the others are refreshed.
type UpdateError struct {
	Errors []*ComponentError
}

func (e *UpdateError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("update error: %v", e.Errors[0])
	}
	msgs := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		msgs[i] = ce.Error()
	}
	return fmt.Sprintf("update errors (%d): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap returns the component errors so errors.Is can match any of them.
func (e *UpdateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		errs[i] = ce
	}
	return errs
}

// HasType returns true if any error came from hardware of type t.
func (e *UpdateError) HasType(t HardwareType) bool {
	for _, ce := range e.Errors {
		if ce.Type == t {
			return true
		}
	}
	return false
}

// AsUpdateError extracts an UpdateError from err, or returns nil.
func AsUpdateError(err error) *UpdateError {
	var ue *UpdateError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
