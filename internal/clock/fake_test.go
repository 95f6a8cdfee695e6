package clock

import (
	"testing"
	"time"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	var order []int
	c.AfterFunc(30*time.Millisecond, func() { order = append(order, 3) })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	c.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })

	c.Advance(25 * time.Millisecond)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("after 25ms order = %v, want [1 2]", order)
	}

	c.Advance(5 * time.Millisecond)
	if len(order) != 3 || order[2] != 3 {
		t.Fatalf("after 30ms order = %v, want [1 2 3]", order)
	}

	if got := c.Now(); !got.Equal(time.Unix(0, 0).Add(30 * time.Millisecond)) {
		t.Fatalf("Now() = %v", got)
	}
}

func TestFakeRearmFromCallback(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	fired := 0
	var tick func()
	tick = func() {
		fired++
		if fired < 3 {
			c.AfterFunc(10*time.Millisecond, tick)
		}
	}
	c.AfterFunc(10*time.Millisecond, tick)

	c.Advance(100 * time.Millisecond)
	if fired != 3 {
		t.Fatalf("fired = %d, want 3", fired)
	}
	if c.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	fired := false
	timer := c.AfterFunc(time.Millisecond, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("Stop on pending timer should report true")
	}
	if timer.Stop() {
		t.Fatal("second Stop should report false")
	}

	c.Advance(time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestRealClock(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("real timer never fired")
	}
}
