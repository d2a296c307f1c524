package hwinfo

import (
	"errors"

	"github.com/opd-ai/go-hwinfo/internal/hardware"
)

var (
	// ErrClosed is returned by every operation on a closed handle.
	ErrClosed = errors.New("hwinfo: handle closed")
	// ErrPollingActive is returned when the polling thread is already running.
	ErrPollingActive = errors.New("hwinfo: polling already active")
	// ErrInvalidInterval is returned for a non-positive polling interval.
	ErrInvalidInterval = errors.New("hwinfo: polling interval must be positive")
	// ErrHardwareDisabled is returned when a query needs a hardware group
	// that was not enabled, or when no group is enabled at all.
	ErrHardwareDisabled = errors.New("hwinfo: hardware group disabled")
)

// UpdateError is the aggregated error of one refresh; see AsUpdateError.
type UpdateError = hardware.UpdateError

// AsUpdateError extracts the per-hardware errors of a refresh from err.
func AsUpdateError(err error) *UpdateError {
	return hardware.AsUpdateError(err)
}
