package core

import "simcore/pkg/domain"

// Clone helpers deep-copy reference fields so registry state is never shared
// with callers. Timestamp pointers are replaced wholesale on update and are
// safe to alias.

func cloneSimulation(s domain.SimulationInstance) domain.SimulationInstance {
	cp := s
	cp.Config = cloneConfig(s.Config)
	return cp
}

func cloneExecution(s domain.ExecutionSession) domain.ExecutionSession {
	cp := s
	cp.Breakpoints = append([]string(nil), s.Breakpoints...)
	return cp
}

func cloneCoverage(s domain.CoverageSession) domain.CoverageSession {
	cp := s
	if s.Files != nil {
		cp.Files = make([]domain.FileCoverage, len(s.Files))
		for i, f := range s.Files {
			fc := f
			fc.UncoveredLines = append([]int(nil), f.UncoveredLines...)
			cp.Files[i] = fc
		}
	}
	return cp
}

func cloneCoSim(s domain.CoSimSession) domain.CoSimSession {
	cp := s
	cp.Components = make([]domain.CoSimComponent, len(s.Components))
	for i, c := range s.Components {
		cc := c
		cc.Config = cloneConfig(c.Config)
		cp.Components[i] = cc
	}
	return cp
}

func cloneConfig(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
