package core

import (
	"context"

	"github.com/sirupsen/logrus"

	"simcore/pkg/domain"
)

// ResetProgramCounter is the architecture reset value assigned to a freshly
// loaded program.
const ResetProgramCounter = "0x00000000"

// ExecutionController owns the registry of execution sessions and enforces
// the loaded -> paused <-> running debug state machine. Instruction semantics
// are delegated to the injected SimulationBackend; the controller owns only
// bookkeeping and the request/response shape.
type ExecutionController struct {
	reg     *Registry[domain.ExecutionSession]
	alloc   *Allocator
	backend SimulationBackend
}

// NewExecutionController constructs the controller around an injected
// registry, allocator, and simulation backend.
func NewExecutionController(reg *Registry[domain.ExecutionSession], alloc *Allocator, backend SimulationBackend) *ExecutionController {
	return &ExecutionController{reg: reg, alloc: alloc, backend: backend}
}

// LoadProgram creates a session in the loaded state. The simulation ID is
// recorded but not validated against the simulation registry; the stores are
// deliberately decoupled and callers correlate entities by ID.
func (c *ExecutionController) LoadProgram(simulationID, programPath string) domain.ExecutionSession {
	session := domain.ExecutionSession{
		ID:             c.alloc.Allocate(KindExecution),
		SimulationID:   simulationID,
		ProgramPath:    programPath,
		Status:         domain.ExecutionLoaded,
		Breakpoints:    []string{},
		ProgramCounter: ResetProgramCounter,
	}
	c.reg.Insert(session)
	logrus.WithFields(logrus.Fields{"execution": session.ID, "program": programPath}).Info("loaded program")
	return session
}

// Step advances the session by count instructions through the backend, then
// adds count to StepCount. count must be >= 1.
func (c *ExecutionController) Step(ctx context.Context, id string, count int) (domain.ExecutionSession, error) {
	if count < 1 {
		return domain.ExecutionSession{}, domain.InvalidArgumentError{Field: "count", Reason: "must be >= 1"}
	}
	session, err := c.reg.Get(id)
	if err != nil {
		return domain.ExecutionSession{}, err
	}
	outcome, err := c.backend.Step(ctx, session, count)
	if err != nil {
		return domain.ExecutionSession{}, domain.Internalf("step", err)
	}
	if outcome.BreakpointHit {
		logrus.WithFields(logrus.Fields{"execution": id, "pc": outcome.ProgramCounter}).Info("step landed on breakpoint")
	}
	return c.reg.Update(id, func(s *domain.ExecutionSession) error {
		s.StepCount += int64(count)
		s.ProgramCounter = outcome.ProgramCounter
		if outcome.ProgramEnded {
			s.Status = domain.ExecutionCompleted
		} else {
			s.Status = domain.ExecutionPaused
		}
		return nil
	})
}

// Run executes through the backend until a breakpoint in the session's set is
// reached or the program ends. The session reports running while in progress,
// paused on a breakpoint hit, and completed when the program ends.
func (c *ExecutionController) Run(ctx context.Context, id string) (domain.ExecutionSession, error) {
	session, err := c.reg.Update(id, func(s *domain.ExecutionSession) error {
		s.Status = domain.ExecutionRunning
		return nil
	})
	if err != nil {
		return domain.ExecutionSession{}, err
	}
	outcome, err := c.backend.Run(ctx, session)
	if err != nil {
		return domain.ExecutionSession{}, domain.Internalf("run", err)
	}
	return c.reg.Update(id, func(s *domain.ExecutionSession) error {
		s.ProgramCounter = outcome.ProgramCounter
		switch {
		case outcome.BreakpointHit:
			s.Status = domain.ExecutionPaused
		case outcome.ProgramEnded:
			s.Status = domain.ExecutionCompleted
		}
		return nil
	})
}

// SetBreakpoint inserts address into the session's breakpoint set. Re-adding
// an existing address is a no-op, not an error.
func (c *ExecutionController) SetBreakpoint(id, address string) (domain.ExecutionSession, error) {
	return c.reg.Update(id, func(s *domain.ExecutionSession) error {
		if !s.HasBreakpoint(address) {
			s.Breakpoints = append(s.Breakpoints, address)
		}
		return nil
	})
}

// RemoveBreakpoint deletes address from the set. Removing an absent address
// is a no-op, not an error.
func (c *ExecutionController) RemoveBreakpoint(id, address string) (domain.ExecutionSession, error) {
	return c.reg.Update(id, func(s *domain.ExecutionSession) error {
		for i, bp := range s.Breakpoints {
			if bp == address {
				s.Breakpoints = append(s.Breakpoints[:i], s.Breakpoints[i+1:]...)
				break
			}
		}
		return nil
	})
}

// ReadRegisters returns the register file from the backend.
func (c *ExecutionController) ReadRegisters(ctx context.Context, id string) (map[string]string, error) {
	session, err := c.reg.Get(id)
	if err != nil {
		return nil, err
	}
	regs, err := c.backend.ReadRegisters(ctx, session)
	if err != nil {
		return nil, domain.Internalf("read registers", err)
	}
	return regs, nil
}

// ReadMemory returns size bytes starting at address, hex-encoded. size must
// be > 0.
func (c *ExecutionController) ReadMemory(ctx context.Context, id, address string, size int) (string, error) {
	if size <= 0 {
		return "", domain.InvalidArgumentError{Field: "size", Reason: "must be > 0"}
	}
	session, err := c.reg.Get(id)
	if err != nil {
		return "", err
	}
	data, err := c.backend.ReadMemory(ctx, session, address, size)
	if err != nil {
		return "", domain.Internalf("read memory", err)
	}
	return data, nil
}

// Status returns the full session record.
func (c *ExecutionController) Status(id string) (domain.ExecutionSession, error) {
	return c.reg.Get(id)
}
