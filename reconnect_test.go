package packetbus

import (
	"testing"
	"time"
)

func TestBackoff_DoublesUpToMax(t *testing.T) {
	b := newBackoff(time.Second, 8*time.Second)

	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second,
	}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Errorf("next()[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := newBackoff(time.Second, 30*time.Second)
	b.next()
	b.next()
	b.reset()

	if got := b.next(); got != time.Second {
		t.Errorf("next() after reset = %v, want 1s", got)
	}
}
