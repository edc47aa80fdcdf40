//go:build !unix

package xrclock

// Now returns nanoseconds on the process-local monotonic clock.
func Now() int64 {
	return fallback()
}
