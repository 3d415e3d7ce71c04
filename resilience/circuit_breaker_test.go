package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.now
	return cb, clock
}

var errBoom = errors.New("boom")

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{Name: "graph", MaxFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		if cb.State() != StateClosed {
			t.Fatalf("opened after %d failures", i)
		}
		_ = cb.Execute(fail)
	}
	if cb.State() != StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("Execute while open = %v, called=%v", err, called)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 2})
	_ = cb.Execute(fail)
	_ = cb.Execute(succeed)
	_ = cb.Execute(fail)
	if cb.State() != StateClosed {
		t.Errorf("State = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})
	_ = cb.Execute(fail)

	clock.advance(59 * time.Second)
	if cb.State() != StateOpen {
		t.Fatalf("State = %v before timeout", cb.State())
	}
	clock.advance(time.Second)
	if cb.State() != StateHalfOpen {
		t.Fatalf("State = %v after timeout, want half-open", cb.State())
	}

	if err := cb.Execute(succeed); err != nil {
		t.Fatal(err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State = %v after probe success, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})
	_ = cb.Execute(fail)
	clock.advance(time.Minute)

	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Errorf("State = %v, want open", cb.State())
	}
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	ignored := errors.New("client error")
	cb, _ := newTestBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return !errors.Is(err, ignored) },
	})

	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return ignored })
	}
	if cb.State() != StateClosed {
		t.Errorf("State = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_StateChangeCallbackAndReset(t *testing.T) {
	var transitions []string
	cb, _ := newTestBreaker(CircuitBreakerConfig{
		Name:        "graph",
		MaxFailures: 1,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})
	_ = cb.Execute(fail)
	cb.Reset()

	want := []string{"graph:closed->open", "graph:open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1000})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = cb.Execute(fail)
			} else {
				_ = cb.Execute(succeed)
			}
			_ = cb.State()
		}(i)
	}
	wg.Wait()
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(9): "unknown"} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
