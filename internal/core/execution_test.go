package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"simcore/pkg/domain"
)

// stubBackend advances the program counter four bytes per instruction and
// records the run outcome it was configured with.
type stubBackend struct {
	runOutcome RunOutcome
	stepEnds   bool
	stepOnBP   bool
	err        error
}

func (b *stubBackend) Step(_ context.Context, session domain.ExecutionSession, count int) (StepOutcome, error) {
	if b.err != nil {
		return StepOutcome{}, b.err
	}
	var pc uint64
	fmt.Sscanf(session.ProgramCounter, "0x%08x", &pc)
	return StepOutcome{
		ProgramCounter: fmt.Sprintf("0x%08x", pc+uint64(count)*4),
		BreakpointHit:  b.stepOnBP,
		ProgramEnded:   b.stepEnds,
	}, nil
}

func (b *stubBackend) Run(_ context.Context, _ domain.ExecutionSession) (RunOutcome, error) {
	if b.err != nil {
		return RunOutcome{}, b.err
	}
	return b.runOutcome, nil
}

func (b *stubBackend) ReadRegisters(_ context.Context, session domain.ExecutionSession) (map[string]string, error) {
	if b.err != nil {
		return nil, b.err
	}
	return map[string]string{"pc": session.ProgramCounter}, nil
}

func (b *stubBackend) ReadMemory(_ context.Context, _ domain.ExecutionSession, _ string, size int) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	out := ""
	for i := 0; i < size; i++ {
		out += "00"
	}
	return out, nil
}

func newController(backend SimulationBackend) *ExecutionController {
	reg := NewRegistry(domain.EntityExecution, cloneExecution,
		func(s domain.ExecutionSession) string { return s.ID })
	return NewExecutionController(reg, NewAllocator(), backend)
}

func TestLoadProgramInitialState(t *testing.T) {
	c := newController(&stubBackend{})
	session := c.LoadProgram("sim_abc", "/firmware/app.elf")

	if session.Status != domain.ExecutionLoaded {
		t.Fatalf("status = %q, want loaded", session.Status)
	}
	if session.ProgramCounter != ResetProgramCounter {
		t.Fatalf("pc = %q, want reset value", session.ProgramCounter)
	}
	if session.StepCount != 0 || len(session.Breakpoints) != 0 {
		t.Fatalf("fresh session not zeroed: %+v", session)
	}
	if session.SimulationID != "sim_abc" || session.ProgramPath != "/firmware/app.elf" {
		t.Fatalf("fields not stored: %+v", session)
	}
}

func TestStepAccumulatesCount(t *testing.T) {
	ctx := context.Background()
	c := newController(&stubBackend{})
	session := c.LoadProgram("sim_abc", "app.elf")

	for _, tc := range []struct {
		count    int
		wantStep int64
	}{
		{1, 1}, {5, 6}, {100, 106},
	} {
		got, err := c.Step(ctx, session.ID, tc.count)
		if err != nil {
			t.Fatalf("step(%d): %v", tc.count, err)
		}
		if got.StepCount != tc.wantStep {
			t.Fatalf("step(%d): step_count = %d, want %d", tc.count, got.StepCount, tc.wantStep)
		}
		if got.Status != domain.ExecutionPaused {
			t.Fatalf("step(%d): status = %q, want paused", tc.count, got.Status)
		}
	}
}

func TestStepThenStepSums(t *testing.T) {
	ctx := context.Background()
	c := newController(&stubBackend{})
	session := c.LoadProgram("sim_abc", "app.elf")

	c.Step(ctx, session.ID, 3)
	got, err := c.Step(ctx, session.ID, 4)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if got.StepCount != 7 {
		t.Fatalf("step_count = %d, want 7", got.StepCount)
	}
}

func TestStepInvalidCountLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	c := newController(&stubBackend{})
	session := c.LoadProgram("sim_abc", "app.elf")

	for _, count := range []int{0, -1} {
		_, err := c.Step(ctx, session.ID, count)
		if !domain.IsInvalidArgument(err) {
			t.Fatalf("step(%d): want InvalidArgumentError, got %v", count, err)
		}
	}
	got, _ := c.Status(session.ID)
	if got.StepCount != 0 || got.Status != domain.ExecutionLoaded {
		t.Fatalf("rejected step mutated session: %+v", got)
	}
}

func TestStepToProgramEnd(t *testing.T) {
	c := newController(&stubBackend{stepEnds: true})
	session := c.LoadProgram("sim_abc", "app.elf")
	got, err := c.Step(context.Background(), session.ID, 1)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if got.Status != domain.ExecutionCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
}

func TestStepOntoBreakpointPauses(t *testing.T) {
	c := newController(&stubBackend{stepOnBP: true})
	session := c.LoadProgram("sim_abc", "app.elf")
	got, err := c.Step(context.Background(), session.ID, 2)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if got.Status != domain.ExecutionPaused {
		t.Fatalf("status = %q, want paused", got.Status)
	}
	if got.StepCount != 2 {
		t.Fatalf("step_count = %d, want 2", got.StepCount)
	}
}

func TestRunHitsBreakpoint(t *testing.T) {
	c := newController(&stubBackend{runOutcome: RunOutcome{
		ProgramCounter: "0x08000010",
		Breakpoint:     "0x08000010",
		BreakpointHit:  true,
	}})
	session := c.LoadProgram("sim_abc", "app.elf")
	c.SetBreakpoint(session.ID, "0x08000010")

	got, err := c.Run(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Status != domain.ExecutionPaused {
		t.Fatalf("status = %q, want paused", got.Status)
	}
	if got.ProgramCounter != "0x08000010" {
		t.Fatalf("pc = %q", got.ProgramCounter)
	}
}

func TestRunToCompletion(t *testing.T) {
	c := newController(&stubBackend{runOutcome: RunOutcome{
		ProgramCounter: "0x00001000",
		ProgramEnded:   true,
	}})
	session := c.LoadProgram("sim_abc", "app.elf")
	got, err := c.Run(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Status != domain.ExecutionCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
}

func TestBreakpointSetIsIdempotent(t *testing.T) {
	c := newController(&stubBackend{})
	session := c.LoadProgram("sim_abc", "app.elf")

	c.SetBreakpoint(session.ID, "0x08000010")
	got, err := c.SetBreakpoint(session.ID, "0x08000010")
	if err != nil {
		t.Fatalf("set breakpoint: %v", err)
	}
	if len(got.Breakpoints) != 1 {
		t.Fatalf("breakpoints = %v, want single entry", got.Breakpoints)
	}

	got, err = c.RemoveBreakpoint(session.ID, "0x08000010")
	if err != nil {
		t.Fatalf("remove breakpoint: %v", err)
	}
	if len(got.Breakpoints) != 0 {
		t.Fatalf("breakpoints not cleared: %v", got.Breakpoints)
	}

	got, err = c.RemoveBreakpoint(session.ID, "0xdeadbeef")
	if err != nil {
		t.Fatalf("remove absent breakpoint: %v", err)
	}
	if len(got.Breakpoints) != 0 {
		t.Fatalf("breakpoints = %v", got.Breakpoints)
	}
}

func TestReadMemoryValidation(t *testing.T) {
	ctx := context.Background()
	c := newController(&stubBackend{})
	session := c.LoadProgram("sim_abc", "app.elf")

	if _, err := c.ReadMemory(ctx, session.ID, "0x20000000", 0); !domain.IsInvalidArgument(err) {
		t.Fatalf("size 0: want InvalidArgumentError, got %v", err)
	}
	data, err := c.ReadMemory(ctx, session.ID, "0x20000000", 4)
	if err != nil {
		t.Fatalf("read memory: %v", err)
	}
	if data != "00000000" {
		t.Fatalf("data = %q", data)
	}
}

func TestExecutionUnknownID(t *testing.T) {
	ctx := context.Background()
	c := newController(&stubBackend{})

	if _, err := c.Step(ctx, "exec_nope", 1); !domain.IsNotFound(err) {
		t.Fatalf("step: %v", err)
	}
	if _, err := c.Run(ctx, "exec_nope"); !domain.IsNotFound(err) {
		t.Fatalf("run: %v", err)
	}
	if _, err := c.SetBreakpoint("exec_nope", "0x0"); !domain.IsNotFound(err) {
		t.Fatalf("set breakpoint: %v", err)
	}
	if _, err := c.ReadRegisters(ctx, "exec_nope"); !domain.IsNotFound(err) {
		t.Fatalf("read registers: %v", err)
	}
	if _, err := c.ReadMemory(ctx, "exec_nope", "0x0", 4); !domain.IsNotFound(err) {
		t.Fatalf("read memory: %v", err)
	}
}

func TestBackendFailureWrappedAsInternal(t *testing.T) {
	ctx := context.Background()
	c := newController(&stubBackend{err: errors.New("bus fault")})
	session := c.LoadProgram("sim_abc", "app.elf")

	_, err := c.Step(ctx, session.ID, 1)
	var internal domain.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("want InternalError, got %v", err)
	}
	if !errors.Is(err, internal.Err) {
		t.Fatal("cause not preserved through unwrap")
	}
}
