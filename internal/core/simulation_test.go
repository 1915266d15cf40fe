package core

import (
	"strings"
	"testing"
	"time"

	"simcore/pkg/domain"
)

func newLifecycle() *SimulationLifecycle {
	return NewSimulationLifecycle(newSimRegistry(), NewAllocator())
}

func TestSimulationCreateDefaults(t *testing.T) {
	m := newLifecycle()
	inst := m.Create("arm", map[string]any{"model": "cortex-m4", "frequency": "100MHz"})

	if !strings.HasPrefix(inst.ID, "sim_") {
		t.Fatalf("id = %q, want sim_ prefix", inst.ID)
	}
	if inst.Status != domain.SimulationCreated {
		t.Fatalf("status = %q, want created", inst.Status)
	}
	if inst.StartedAt != nil || inst.StoppedAt != nil {
		t.Fatal("fresh instance has start/stop timestamps set")
	}
	if inst.CreatedAt.IsZero() {
		t.Fatal("created_at not stamped")
	}
	if inst.ProcessorType != "arm" || inst.Config["model"] != "cortex-m4" {
		t.Fatalf("config not stored verbatim: %+v", inst)
	}
}

func TestSimulationStartStopOrdering(t *testing.T) {
	m := newLifecycle()
	times := []time.Time{
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC),
		time.Date(2026, 3, 1, 10, 0, 9, 0, time.UTC),
	}
	i := 0
	m.nowFn = func() time.Time { v := times[i]; i++; return v }

	inst := m.Create("riscv", nil)
	started, err := m.Start(inst.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.SimulationRunning || started.StartedAt == nil {
		t.Fatalf("after start: %+v", started)
	}

	stopped, err := m.Stop(inst.ID)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.Status != domain.SimulationStopped || stopped.StoppedAt == nil {
		t.Fatalf("after stop: %+v", stopped)
	}
	if !stopped.StoppedAt.After(*stopped.StartedAt) {
		t.Fatalf("stopped_at %v not after started_at %v", stopped.StoppedAt, stopped.StartedAt)
	}
}

func TestSimulationRestartIsIdempotent(t *testing.T) {
	m := newLifecycle()
	inst := m.Create("arm", nil)
	first, _ := m.Start(inst.ID)
	second, err := m.Start(inst.ID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if second.Status != domain.SimulationRunning {
		t.Fatalf("status = %q", second.Status)
	}
	if second.StartedAt.Before(*first.StartedAt) {
		t.Fatal("restart moved started_at backwards")
	}
}

func TestSimulationUnknownID(t *testing.T) {
	m := newLifecycle()
	if _, err := m.Start("sim_nope"); !domain.IsNotFound(err) {
		t.Fatalf("start: want NotFoundError, got %v", err)
	}
	if _, err := m.Stop("sim_nope"); !domain.IsNotFound(err) {
		t.Fatalf("stop: want NotFoundError, got %v", err)
	}
	if _, err := m.Status("sim_nope"); !domain.IsNotFound(err) {
		t.Fatalf("status: want NotFoundError, got %v", err)
	}
	if err := m.Delete("sim_nope"); !domain.IsNotFound(err) {
		t.Fatalf("delete: want NotFoundError, got %v", err)
	}
}

func TestSimulationListAndDelete(t *testing.T) {
	m := newLifecycle()
	a := m.Create("arm", nil)
	b := m.Create("riscv", nil)
	c := m.Create("x86", nil)

	items, count := m.List()
	if count != 3 || len(items) != 3 {
		t.Fatalf("count = %d, len = %d", count, len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Fatalf("list out of creation order: %+v", items)
	}

	if err := m.Delete(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, count = m.List()
	if count != 2 || items[0].ID != a.ID || items[1].ID != c.ID {
		t.Fatalf("after delete: %+v", items)
	}
	if _, err := m.Status(b.ID); !domain.IsNotFound(err) {
		t.Fatalf("deleted id still resolves: %v", err)
	}
}
