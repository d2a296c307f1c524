package platform

import (
	"context"
	"strconv"
)

// lifetimeContext returns the context a platform keeps until Close. It
// carries the values of ctx but not its deadline or cancellation, which only
// bound Initialize.
func lifetimeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(context.WithoutCancel(ctx))
}

// parseUint64 parses a string to uint64, returning 0 on error.
func parseUint64(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}

// readUint64 reads a uint64 value from a single-value file.
// Returns the value and true if successful, 0 and false otherwise.
func readUint64(src fileSource, path string) (uint64, bool) {
	s, ok := readTrimmed(src, path)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// readInt64 reads an int64 value from a single-value file.
// Returns the value and true if successful, 0 and false otherwise.
func readInt64(src fileSource, path string) (int64, bool) {
	s, ok := readTrimmed(src, path)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// readInt reads an int value from a single-value file.
func readInt(src fileSource, path string) (int, bool) {
	v, ok := readInt64(src, path)
	return int(v), ok
}
