package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTimerManager_OneShot(t *testing.T) {
	m := NewTimerManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	var fired atomic.Int32
	m.AddTimer(10*time.Millisecond, 0, func() { fired.Add(1) })

	waitFor(t, func() bool { return fired.Load() == 1 })
	if m.Len() != 0 {
		t.Errorf("Expected a one-shot timer to be removed, got %d queued", m.Len())
	}
}

func TestTimerManager_Repeating(t *testing.T) {
	m := NewTimerManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	var fired atomic.Int32
	id := m.AddTimer(0, 10*time.Millisecond, func() { fired.Add(1) })

	waitFor(t, func() bool { return fired.Load() >= 3 })
	m.RemoveTimer(id)
	if m.Len() != 0 {
		t.Errorf("Expected the timer to be removed, got %d queued", m.Len())
	}
}

func TestTimerManager_Stop(t *testing.T) {
	m := NewTimerManagerWithResolution(5 * time.Millisecond)

	var fired atomic.Int32
	m.AddTimer(50*time.Millisecond, 0, func() { fired.Add(1) })
	m.Stop()
	m.Stop()

	time.Sleep(100 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("Expected no callbacks after Stop")
	}
}
