package node

import (
	"sync"
	"testing"
)

func TestGoFuncLimit(t *testing.T) {
	var s state

	release := make(chan struct{})
	var started sync.WaitGroup

	for i := 0; i < WGLIMIT; i++ {
		started.Add(1)
		if !s.goFunc(func() { started.Done(); <-release }) {
			t.Fatalf("goroutine %d should start", i)
		}
	}
	started.Wait()

	if s.goFunc(func() {}) {
		t.Fatal("goFunc should refuse beyond WGLIMIT")
	}

	close(release)
	s.waitRoutines()

	if !s.goFunc(func() {}) {
		t.Fatal("goFunc should accept again")
	}
	s.waitRoutines()
}

func TestState(t *testing.T) {
	var s state
	if s.getState() != Connecting {
		t.Fatalf("initial state should be Connecting, not %s", s.getState())
	}
	s.setState(Running)
	if s.getState().String() != "Running" {
		t.Fatalf("state should be Running, not %s", s.getState())
	}
}
