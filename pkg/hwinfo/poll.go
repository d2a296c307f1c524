package hwinfo

import (
	"context"
	"time"
)

// StartSaveAllHardwareThread starts a background goroutine that calls
// SaveAllHardware every intervalMs milliseconds. The first refresh runs
// before this method returns, so queries see data immediately. While the
// thread runs, GetCPUInfo and GetMemoryInfo read its cached snapshot.
func (h *HardwareInfo) StartSaveAllHardwareThread(intervalMs int) error {
	if intervalMs <= 0 {
		return ErrInvalidInterval
	}

	// Close sets closed under pollMu, so no goroutine can start after it.
	h.pollMu.Lock()
	defer h.pollMu.Unlock()
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if h.polling {
		return ErrPollingActive
	}

	// Partial failures still leave a usable snapshot.
	if err := h.SaveAllHardware(); err != nil {
		if AsUpdateError(err) == nil {
			return err
		}
		h.logger.Warn("initial hardware refresh incomplete", "error", err)
	}

	h.breaker.reset()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.polling = true
	h.active.Store(true)
	h.metrics.setPolling(true)

	interval := time.Duration(intervalMs) * time.Millisecond
	h.wg.Add(1)
	go h.pollLoop(ctx, interval)

	h.logger.Info("polling started", "interval", interval)
	return nil
}

// StopSaveAllHardwareThread stops the polling goroutine and waits for it to
// exit. Safe to call when polling is not active.
func (h *HardwareInfo) StopSaveAllHardwareThread() {
	h.pollMu.Lock()
	defer h.pollMu.Unlock()
	h.stopPolling()
}

// stopPolling requires pollMu.
func (h *HardwareInfo) stopPolling() {
	if !h.polling {
		return
	}

	h.cancel()
	h.wg.Wait()
	h.polling = false
	h.active.Store(false)
	h.cancel = nil
	h.metrics.setPolling(false)
	h.logger.Info("polling stopped")
}

// IsPolling reports whether the polling thread is running.
func (h *HardwareInfo) IsPolling() bool {
	return h.isPolling()
}

func (h *HardwareInfo) isPolling() bool {
	return h.active.Load()
}

// pollLoop runs the periodic refresh cycle.
func (h *HardwareInfo) pollLoop(ctx context.Context, interval time.Duration) {
	defer h.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !h.breaker.allow() {
				h.metrics.incrementPollSkipped()
				continue
			}
			err := h.SaveAllHardware()
			if err != nil {
				h.logger.Warn("hardware refresh failed", "error", err)
			}
			h.breaker.record(h.refreshFailure(err))
		case <-ctx.Done():
			return
		}
	}
}

// refreshFailure returns err if the refresh left no hardware item updated.
// Partial failures still produce fresh data and do not count.
func (h *HardwareInfo) refreshFailure(err error) error {
	if err == nil {
		return nil
	}
	if ue := AsUpdateError(err); ue != nil && len(ue.Errors) < h.items {
		return nil
	}
	return err
}
