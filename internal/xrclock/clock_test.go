package xrclock

import (
	"testing"
	"time"
)

func TestNowIsMonotonic(t *testing.T) {
	a := Now()
	time.Sleep(2 * time.Millisecond)
	b := Now()
	if b-a < int64(time.Millisecond) {
		t.Fatalf("clock advanced %dns over 2ms", b-a)
	}
}

func TestUntil(t *testing.T) {
	d := Until(Now() + int64(time.Second))
	if d <= 0 || d > time.Second {
		t.Fatalf("Until = %v", d)
	}
}
