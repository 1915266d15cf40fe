package core

import (
	"github.com/sirupsen/logrus"

	"simcore/pkg/domain"
)

// Snapshot is the complete serializable state of the control plane, exported
// on every committed mutation and replayed on startup.
type Snapshot struct {
	Simulations   []domain.SimulationInstance `json:"simulations"`
	Executions    []domain.ExecutionSession   `json:"executions"`
	Coverage      []domain.CoverageSession    `json:"coverage"`
	CoSimulations []domain.CoSimSession       `json:"cosimulations"`
}

// Checkpointer persists control-plane snapshots across restarts.
type Checkpointer interface {
	// Save writes the snapshot, replacing any previous one.
	Save(snapshot Snapshot) error
	// Load returns the latest snapshot and whether one existed.
	Load() (Snapshot, bool, error)
	Close() error
}

// ControlPlane aggregates the identifier allocator, the four session
// registries, and the lifecycle managers built over them. It is the single
// object the HTTP boundary and the CLI wire against.
type ControlPlane struct {
	alloc *Allocator

	simulations   *Registry[domain.SimulationInstance]
	executions    *Registry[domain.ExecutionSession]
	coverage      *Registry[domain.CoverageSession]
	cosimulations *Registry[domain.CoSimSession]

	Simulations   *SimulationLifecycle
	Executions    *ExecutionController
	Coverage      *CoverageTracker
	CoSimulations *CoSimCoordinator
}

// NewControlPlane builds a fully wired control plane over the given backends.
func NewControlPlane(simBackend SimulationBackend, covBackend CoverageBackend) *ControlPlane {
	cp := &ControlPlane{
		alloc: NewAllocator(),
		simulations: NewRegistry(domain.EntitySimulation, cloneSimulation,
			func(s domain.SimulationInstance) string { return s.ID }),
		executions: NewRegistry(domain.EntityExecution, cloneExecution,
			func(s domain.ExecutionSession) string { return s.ID }),
		coverage: NewRegistry(domain.EntityCoverage, cloneCoverage,
			func(s domain.CoverageSession) string { return s.ID }),
		cosimulations: NewRegistry(domain.EntityCoSim, cloneCoSim,
			func(s domain.CoSimSession) string { return s.ID }),
	}
	cp.Simulations = NewSimulationLifecycle(cp.simulations, cp.alloc)
	cp.Executions = NewExecutionController(cp.executions, cp.alloc, simBackend)
	cp.Coverage = NewCoverageTracker(cp.coverage, cp.alloc, covBackend)
	cp.CoSimulations = NewCoSimCoordinator(cp.cosimulations, cp.alloc)
	return cp
}

// Snapshot exports the full registry contents in creation order.
func (cp *ControlPlane) Snapshot() Snapshot {
	return Snapshot{
		Simulations:   cp.simulations.Export(),
		Executions:    cp.executions.Export(),
		Coverage:      cp.coverage.Export(),
		CoSimulations: cp.cosimulations.Export(),
	}
}

// Restore replaces registry contents from a snapshot and reserves every
// restored identifier so new allocations cannot collide with them.
func (cp *ControlPlane) Restore(snapshot Snapshot) {
	cp.simulations.Import(snapshot.Simulations)
	cp.executions.Import(snapshot.Executions)
	cp.coverage.Import(snapshot.Coverage)
	cp.cosimulations.Import(snapshot.CoSimulations)
	for _, s := range snapshot.Simulations {
		cp.alloc.Reserve(s.ID)
	}
	for _, s := range snapshot.Executions {
		cp.alloc.Reserve(s.ID)
	}
	for _, s := range snapshot.Coverage {
		cp.alloc.Reserve(s.ID)
	}
	for _, s := range snapshot.CoSimulations {
		cp.alloc.Reserve(s.ID)
		for _, comp := range s.Components {
			cp.alloc.Reserve(comp.ID)
		}
	}
}

// AttachCheckpointer loads any existing snapshot into the registries and then
// installs a commit hook that saves the full state after every mutation. Save
// failures are logged and do not fail the mutation. Must be called before the
// control plane serves requests.
func (cp *ControlPlane) AttachCheckpointer(ckpt Checkpointer) error {
	snapshot, ok, err := ckpt.Load()
	if err != nil {
		return domain.Internalf("load checkpoint", err)
	}
	if ok {
		cp.Restore(snapshot)
		logrus.WithFields(logrus.Fields{
			"simulations":   len(snapshot.Simulations),
			"executions":    len(snapshot.Executions),
			"coverage":      len(snapshot.Coverage),
			"cosimulations": len(snapshot.CoSimulations),
		}).Info("restored control-plane state from checkpoint")
	}
	save := func() {
		if err := ckpt.Save(cp.Snapshot()); err != nil {
			logrus.WithError(err).Warn("checkpoint save failed")
		}
	}
	cp.simulations.SetOnCommit(save)
	cp.executions.SetOnCommit(save)
	cp.coverage.SetOnCommit(save)
	cp.cosimulations.SetOnCommit(save)
	return nil
}

// ActiveSimulations reports how many simulation instances are currently in the
// running state. Feeds the active-sessions gauge at the HTTP boundary.
func (cp *ControlPlane) ActiveSimulations() int {
	n := 0
	for _, s := range cp.simulations.List() {
		if s.Status == domain.SimulationRunning {
			n++
		}
	}
	return n
}
