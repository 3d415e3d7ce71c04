package component

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kbukum/transcriptfeed/logger"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("stop without deadline")
	}
	*m.events = append(*m.events, "stop:"+m.name)
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health { return m.health }

func TestRegistry_Order(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	for _, name := range []string{"telemetry", "subscriptions", "http"} {
		if err := r.Register(&mockComponent{name: name, events: &events}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}

	want := []string{
		"start:telemetry", "start:subscriptions", "start:http",
		"stop:http", "stop:subscriptions", "stop:telemetry",
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	r.Register(&mockComponent{name: "http", events: &events})
	if err := r.Register(&mockComponent{name: "http", events: &events}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistry_StartFailureStopsOnlyStarted(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	r.Register(&mockComponent{name: "a", events: &events})
	r.Register(&mockComponent{name: "b", events: &events, startErr: errors.New("boom")})
	r.Register(&mockComponent{name: "c", events: &events})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	events = nil
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if !reflect.DeepEqual(events, []string{"stop:a"}) {
		t.Errorf("expected only a to be stopped, got %v", events)
	}
}

func TestRegistry_StopErrorsJoined(t *testing.T) {
	var events []string
	errA, errB := errors.New("a failed"), errors.New("b failed")
	r := NewRegistry(logger.NewNop())
	r.Register(&mockComponent{name: "a", events: &events, stopErr: errA})
	r.Register(&mockComponent{name: "b", events: &events, stopErr: errB})
	r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both stop errors, got %v", err)
	}
}

func TestRegistry_HealthAndGet(t *testing.T) {
	var events []string
	r := NewRegistry(logger.NewNop())
	r.Register(&mockComponent{name: "http", events: &events, health: Health{Name: "http", Status: StatusHealthy}})

	hs := r.HealthAll(context.Background())
	if len(hs) != 1 || hs[0].Status != StatusHealthy {
		t.Errorf("unexpected health %v", hs)
	}
	if r.Get("http") == nil || r.Get("missing") != nil {
		t.Error("unexpected Get result")
	}
}
