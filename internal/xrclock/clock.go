// Package xrclock supplies the monotonic nanosecond clock that runtime
// display times are expressed in.
package xrclock

import "time"

// Until converts a display time into a wall duration from now.
func Until(t int64) time.Duration {
	return time.Duration(t - Now())
}
