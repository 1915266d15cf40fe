package core

import (
	"context"

	"simcore/pkg/domain"
)

// StepOutcome reports what the simulation backend observed while advancing a
// session by a fixed number of instructions.
type StepOutcome struct {
	ProgramCounter string
	BreakpointHit  bool
	ProgramEnded   bool
}

// RunOutcome reports where a free-running execution came to rest.
type RunOutcome struct {
	ProgramCounter string
	// Breakpoint is the address that halted execution when BreakpointHit.
	Breakpoint    string
	BreakpointHit bool
	ProgramEnded  bool
}

// SimulationBackend is the seam where a real instruction-set simulator plugs
// in. The controller owns bookkeeping (counters, breakpoint set, status); the
// backend owns instruction semantics. Implementations must be safe for
// concurrent calls on different sessions.
type SimulationBackend interface {
	// Step advances the session by count instructions.
	Step(ctx context.Context, session domain.ExecutionSession, count int) (StepOutcome, error)
	// Run executes until an address in the session's breakpoint set is
	// reached or the program ends.
	Run(ctx context.Context, session domain.ExecutionSession) (RunOutcome, error)
	// ReadRegisters returns the register file as name -> hex value.
	ReadRegisters(ctx context.Context, session domain.ExecutionSession) (map[string]string, error)
	// ReadMemory returns size bytes starting at address, hex-encoded.
	ReadMemory(ctx context.Context, session domain.ExecutionSession, address string, size int) (string, error)
}

// CoverageSnapshot is the raw hit data pulled from the instrumentation engine
// at stop time.
type CoverageSnapshot struct {
	TotalLines   int
	CoveredLines int
	Files        []domain.FileCoverage
}

// CoverageBackend is the seam where a real coverage instrumentation engine
// plugs in; the tracker only aggregates and reports.
type CoverageBackend interface {
	Snapshot(ctx context.Context, executionID string) (CoverageSnapshot, error)
}
