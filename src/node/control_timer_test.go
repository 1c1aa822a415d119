package node

import (
	"testing"
	"time"
)

func TestControlTimer(t *testing.T) {
	fire := make(chan time.Time)
	var periods []time.Duration
	periodCh := make(chan time.Duration, 10)

	timer := NewControlTimer(func(d time.Duration) <-chan time.Time {
		periodCh <- d
		return fire
	})

	go timer.Run(time.Second)
	defer timer.Shutdown()

	expectPeriod := func(expected time.Duration) {
		select {
		case d := <-periodCh:
			periods = append(periods, d)
			if d != expected {
				t.Fatalf("period should be %v, not %v", expected, d)
			}
		case <-time.After(time.Second):
			t.Fatal("timer was not armed")
		}
	}

	expectPeriod(time.Second)

	fire <- time.Now()
	select {
	case <-timer.tickCh:
	case <-time.After(time.Second):
		t.Fatal("no tick")
	}

	// rearmed with the same period
	expectPeriod(time.Second)

	timer.Reset(2 * time.Second)
	expectPeriod(2 * time.Second)

	timer.Stop()
	select {
	case fire <- time.Now():
		t.Fatal("a stopped timer should not listen")
	case <-time.After(50 * time.Millisecond):
	}

	if len(periods) != 3 {
		t.Fatalf("timer should have been armed 3 times, not %d", len(periods))
	}
}

func TestRandomControlTimer(t *testing.T) {
	timer := NewRandomControlTimer()
	go timer.Run(10 * time.Millisecond)
	defer timer.Shutdown()

	for i := 0; i < 3; i++ {
		select {
		case <-timer.tickCh:
		case <-time.After(time.Second):
			t.Fatal("no tick")
		}
	}
}
