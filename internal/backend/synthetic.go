// Package backend provides synthetic in-process implementations of the
// simulation and coverage backends. They produce deterministic values so the
// control plane can be exercised end to end without an attached simulator.
package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"simcore/internal/core"
	"simcore/pkg/domain"
)

const (
	instructionWidth = 4
	// programEndPC is where the synthetic program runs off the end.
	programEndPC = 0x00001000

	stackPointer = "0x20000800"
	linkRegister = "0x08000100"
)

// Synthetic is a deterministic stand-in for an instruction-set simulator.
// The program counter advances four bytes per instruction; a free run halts
// at the session's first breakpoint or at the synthetic program end.
type Synthetic struct{}

// NewSynthetic returns the synthetic simulation backend.
func NewSynthetic() *Synthetic { return &Synthetic{} }

// Step advances the program counter by count instructions and reports
// whether the new counter sits on one of the session's breakpoints.
func (b *Synthetic) Step(ctx context.Context, session domain.ExecutionSession, count int) (core.StepOutcome, error) {
	pc, err := parseAddress(session.ProgramCounter)
	if err != nil {
		return core.StepOutcome{}, err
	}
	pc += uint64(count) * instructionWidth
	outcome := core.StepOutcome{ProgramCounter: formatAddress(pc)}
	if pc >= programEndPC {
		outcome.ProgramEnded = true
	}
	if session.HasBreakpoint(outcome.ProgramCounter) {
		outcome.BreakpointHit = true
	}
	return outcome, nil
}

// Run halts at the first address in the session's breakpoint set, or at the
// synthetic program end when none is set.
func (b *Synthetic) Run(ctx context.Context, session domain.ExecutionSession) (core.RunOutcome, error) {
	if len(session.Breakpoints) > 0 {
		bp := session.Breakpoints[0]
		if _, err := parseAddress(bp); err != nil {
			return core.RunOutcome{}, err
		}
		return core.RunOutcome{
			ProgramCounter: bp,
			Breakpoint:     bp,
			BreakpointHit:  true,
		}, nil
	}
	return core.RunOutcome{
		ProgramCounter: formatAddress(programEndPC),
		ProgramEnded:   true,
	}, nil
}

// ReadRegisters returns a fixed ARM-style register file with the session's
// current program counter.
func (b *Synthetic) ReadRegisters(ctx context.Context, session domain.ExecutionSession) (map[string]string, error) {
	return map[string]string{
		"r0": "0x00000000",
		"r1": "0x00000001",
		"r2": "0x00000002",
		"r3": "0x00000003",
		"pc": session.ProgramCounter,
		"sp": stackPointer,
		"lr": linkRegister,
	}, nil
}

// ReadMemory returns size zero bytes, hex-encoded.
func (b *Synthetic) ReadMemory(ctx context.Context, session domain.ExecutionSession, address string, size int) (string, error) {
	if _, err := parseAddress(address); err != nil {
		return "", err
	}
	return strings.Repeat("00", size), nil
}

func parseAddress(addr string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(addr, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return v, nil
}

func formatAddress(v uint64) string {
	return fmt.Sprintf("0x%08x", v)
}

// SyntheticCoverage serves a fixed coverage profile for any execution: 850 of
// 1000 lines covered with a three-file breakdown.
type SyntheticCoverage struct{}

// NewSyntheticCoverage returns the synthetic coverage backend.
func NewSyntheticCoverage() *SyntheticCoverage { return &SyntheticCoverage{} }

// Snapshot returns the fixed profile.
func (b *SyntheticCoverage) Snapshot(ctx context.Context, executionID string) (core.CoverageSnapshot, error) {
	handlerUncovered := make([]int, 0, 60)
	for line := 100; line < 160; line++ {
		handlerUncovered = append(handlerUncovered, line)
	}
	return core.CoverageSnapshot{
		TotalLines:   1000,
		CoveredLines: 850,
		Files: []domain.FileCoverage{
			{File: "main.c", TotalLines: 250, CoveredLines: 230, UncoveredLines: []int{15, 16, 45, 89, 120}},
			{File: "utils.c", TotalLines: 150, CoveredLines: 140, UncoveredLines: []int{22, 55, 78}},
			{File: "handler.c", TotalLines: 300, CoveredLines: 240, UncoveredLines: handlerUncovered},
		},
	}, nil
}
