package hwinfo

import (
	"fmt"
	"time"
)

// HealthStatus is the overall health of a handle or one of its parts.
type HealthStatus string

const (
	// HealthOK means every hardware item refreshed on the last cycle.
	HealthOK HealthStatus = "ok"
	// HealthDegraded means some items failed or the breaker is testing
	// recovery.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy means the handle is closed or the breaker is open.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck describes the state of a HardwareInfo handle.
type HealthCheck struct {
	Status    HealthStatus
	Timestamp time.Time

	// Polling reports whether the polling thread runs.
	Polling bool

	// LastRefresh is when SaveAllHardware last completed. Zero if never.
	LastRefresh time.Time

	// Breaker is the state of the polling circuit breaker.
	Breaker BreakerStats

	// Components holds one entry per opened hardware item, keyed by its
	// identifier.
	Components map[string]ComponentHealth

	Message string
}

// ComponentHealth is the health of one hardware item.
type ComponentHealth struct {
	Status  HealthStatus
	Message string
}

// IsHealthy returns true if the overall status is HealthOK.
func (h HealthCheck) IsHealthy() bool {
	return h.Status == HealthOK
}

// Health reports the outcome of the last refresh and the state of the
// polling thread. It does not touch the hardware.
func (h *HardwareInfo) Health() HealthCheck {
	check := HealthCheck{
		Timestamp:  time.Now(),
		Polling:    h.isPolling(),
		Breaker:    h.breaker.stats(),
		Components: make(map[string]ComponentHealth),
	}

	h.mu.RLock()
	closed := h.closed
	snap := h.snapshot
	check.LastRefresh = h.lastRefresh
	lastErr := h.lastErr
	h.mu.RUnlock()

	if closed {
		check.Status = HealthUnhealthy
		check.Message = "handle closed"
		return check
	}

	failed := make(map[string]error)
	if ue := AsUpdateError(lastErr); ue != nil {
		for _, ce := range ue.Errors {
			failed[ce.Identifier] = ce.Err
		}
	}
	for _, item := range snap.Hardware {
		c := ComponentHealth{Status: HealthOK, Message: fmt.Sprintf("%d sensors", len(item.Sensors))}
		if err, ok := failed[item.Identifier]; ok {
			c = ComponentHealth{Status: HealthDegraded, Message: err.Error()}
		}
		check.Components[item.Identifier] = c
	}

	switch {
	case check.Breaker.State == BreakerOpen:
		check.Status = HealthUnhealthy
		check.Message = fmt.Sprintf("refreshes suspended after %d failures", check.Breaker.Failures)
	case check.Breaker.State == BreakerHalfOpen:
		check.Status = HealthDegraded
		check.Message = "testing recovery"
	case lastErr != nil && AsUpdateError(lastErr) == nil:
		check.Status = HealthUnhealthy
		check.Message = lastErr.Error()
	case len(failed) > 0:
		check.Status = HealthDegraded
		check.Message = fmt.Sprintf("%d of %d hardware items failed", len(failed), len(snap.Hardware))
	case check.LastRefresh.IsZero():
		check.Status = HealthDegraded
		check.Message = "not refreshed yet"
	default:
		check.Status = HealthOK
	}
	return check
}
