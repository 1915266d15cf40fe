// Package domain defines the control-plane entities, status enumerations, and
// error taxonomy used by simcore.
package domain

import (
	"time"
)

// EntityType identifies the kind of record held in a control-plane registry.
type EntityType string

// Supported entity type identifiers used in error values and persistence buckets.
const (
	// EntitySimulation identifies a processor simulation instance.
	EntitySimulation EntityType = "simulation"
	// EntityExecution identifies an execution/debug session.
	EntityExecution EntityType = "execution"
	// EntityCoverage identifies a coverage collection session.
	EntityCoverage EntityType = "coverage"
	// EntityCoSim identifies a co-simulation session.
	EntityCoSim EntityType = "cosimulation"
	// EntityComponent identifies a component owned by a co-simulation session.
	EntityComponent EntityType = "component"
)

// SimulationStatus enumerates the simulation instance lifecycle.
type SimulationStatus string

// Canonical simulation lifecycle states.
const (
	SimulationCreated SimulationStatus = "created"
	SimulationRunning SimulationStatus = "running"
	SimulationStopped SimulationStatus = "stopped"
)

// ExecutionStatus enumerates the debug-session state machine.
type ExecutionStatus string

// Canonical execution session states.
const (
	ExecutionLoaded    ExecutionStatus = "loaded"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionPaused    ExecutionStatus = "paused"
	ExecutionCompleted ExecutionStatus = "completed"
)

// CoverageStatus enumerates coverage collection states.
type CoverageStatus string

// Canonical coverage session states.
const (
	CoverageCollecting CoverageStatus = "collecting"
	CoverageCompleted  CoverageStatus = "completed"
)

// CoSimStatus enumerates co-simulation session states.
type CoSimStatus string

// Canonical co-simulation session states.
const (
	CoSimCreated CoSimStatus = "created"
	CoSimRunning CoSimStatus = "running"
	CoSimStopped CoSimStatus = "stopped"
)

// ComponentStatus enumerates states of a component within a co-simulation session.
type ComponentStatus string

// Canonical component states.
const (
	ComponentInitialized ComponentStatus = "initialized"
	ComponentRunning     ComponentStatus = "running"
	ComponentStopped     ComponentStatus = "stopped"
)

// SimulationInstance is a modeled processor/core with its own lifecycle,
// independent of any attached debug session.
type SimulationInstance struct {
	ID            string           `json:"id"`
	ProcessorType string           `json:"processor_type"`
	Config        map[string]any   `json:"config"`
	Status        SimulationStatus `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	StoppedAt     *time.Time       `json:"stopped_at,omitempty"`
	Cycles        int64            `json:"cycles"`
	TimeNS        int64            `json:"time_ns"`
}

// ExecutionSession is a debug/run context attached to a simulation instance.
// It references the simulation by ID but does not own it.
type ExecutionSession struct {
	ID             string          `json:"id"`
	SimulationID   string          `json:"simulation_id"`
	ProgramPath    string          `json:"program_path"`
	Status         ExecutionStatus `json:"status"`
	Breakpoints    []string        `json:"breakpoints"`
	ProgramCounter string          `json:"pc"`
	StepCount      int64           `json:"step_count"`
}

// HasBreakpoint reports whether address is in the session's breakpoint set.
func (s ExecutionSession) HasBreakpoint(address string) bool {
	for _, bp := range s.Breakpoints {
		if bp == address {
			return true
		}
	}
	return false
}

// FileCoverage describes line coverage for a single source file.
type FileCoverage struct {
	File           string  `json:"file"`
	TotalLines     int     `json:"total_lines"`
	CoveredLines   int     `json:"covered_lines"`
	Percentage     float64 `json:"coverage_percentage"`
	UncoveredLines []int   `json:"uncovered_lines"`
}

// CoverageSession tracks line coverage collection over an execution session.
// Totals are a snapshot fixed at stop time, not a running counter.
type CoverageSession struct {
	ID           string         `json:"id"`
	ExecutionID  string         `json:"execution_id"`
	Status       CoverageStatus `json:"status"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	StoppedAt    *time.Time     `json:"stopped_at,omitempty"`
	TotalLines   int            `json:"total_lines"`
	CoveredLines int            `json:"covered_lines"`
	Files        []FileCoverage `json:"files,omitempty"`
}

// Percentage returns covered/total as a percentage rounded to two decimal
// places. A session with zero total lines reports exactly 0.0.
func (s CoverageSession) Percentage() float64 {
	return CoveragePercentage(s.CoveredLines, s.TotalLines)
}

// CoveragePercentage computes round(covered/total*100, 2), defined as 0.0 when
// total is zero so a fresh session never divides by zero.
func CoveragePercentage(covered, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	ratio := float64(covered) / float64(total) * 100
	return float64(int64(ratio*100+0.5)) / 100
}

// CoSimComponent is one modeled unit participating in a co-simulation session.
// Components are owned by their parent session and never outlive it.
type CoSimComponent struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Config map[string]any  `json:"config"`
	Status ComponentStatus `json:"status"`
}

// CoSimSession is a synchronized grouping of components advancing in
// lock-step. The component list is fixed at creation time.
type CoSimSession struct {
	ID         string           `json:"id"`
	Status     CoSimStatus      `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	SyncCount  int64            `json:"sync_count"`
	TimeNS     int64            `json:"time_ns"`
	Components []CoSimComponent `json:"components"`
}
