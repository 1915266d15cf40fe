package core

import (
	"time"

	"github.com/sirupsen/logrus"

	"simcore/pkg/domain"
)

// SimulationLifecycle owns the registry of simulation instances and enforces
// the created -> running -> stopped state machine. Re-start and re-stop are
// idempotent: the status is reasserted and the timestamp is last-write-wins.
type SimulationLifecycle struct {
	reg   *Registry[domain.SimulationInstance]
	alloc *Allocator
	nowFn func() time.Time
}

// NewSimulationLifecycle constructs the manager around an injected registry
// and allocator.
func NewSimulationLifecycle(reg *Registry[domain.SimulationInstance], alloc *Allocator) *SimulationLifecycle {
	return &SimulationLifecycle{
		reg:   reg,
		alloc: alloc,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new simulation instance in the created state.
func (m *SimulationLifecycle) Create(processorType string, config map[string]any) domain.SimulationInstance {
	inst := domain.SimulationInstance{
		ID:            m.alloc.Allocate(KindSimulation),
		ProcessorType: processorType,
		Config:        config,
		Status:        domain.SimulationCreated,
		CreatedAt:     m.nowFn(),
	}
	m.reg.Insert(inst)
	logrus.WithFields(logrus.Fields{"simulation": inst.ID, "processor": processorType}).Info("created simulation")
	return inst
}

// Start transitions the instance to running and stamps StartedAt.
func (m *SimulationLifecycle) Start(id string) (domain.SimulationInstance, error) {
	inst, err := m.reg.Update(id, func(s *domain.SimulationInstance) error {
		now := m.nowFn()
		s.Status = domain.SimulationRunning
		s.StartedAt = &now
		return nil
	})
	if err != nil {
		return domain.SimulationInstance{}, err
	}
	logrus.WithField("simulation", id).Info("started simulation")
	return inst, nil
}

// Stop transitions the instance to stopped and stamps StoppedAt.
func (m *SimulationLifecycle) Stop(id string) (domain.SimulationInstance, error) {
	inst, err := m.reg.Update(id, func(s *domain.SimulationInstance) error {
		now := m.nowFn()
		s.Status = domain.SimulationStopped
		s.StoppedAt = &now
		return nil
	})
	if err != nil {
		return domain.SimulationInstance{}, err
	}
	logrus.WithField("simulation", id).Info("stopped simulation")
	return inst, nil
}

// Status returns the full instance record.
func (m *SimulationLifecycle) Status(id string) (domain.SimulationInstance, error) {
	return m.reg.Get(id)
}

// List returns all instances in creation order and their count.
func (m *SimulationLifecycle) List() ([]domain.SimulationInstance, int) {
	items := m.reg.List()
	return items, len(items)
}

// Delete removes the instance irrevocably. Dependent execution sessions are
// not cascaded; callers are responsible for ordering deletes.
func (m *SimulationLifecycle) Delete(id string) error {
	if err := m.reg.Delete(id); err != nil {
		return err
	}
	logrus.WithField("simulation", id).Info("deleted simulation")
	return nil
}
