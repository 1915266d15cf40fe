package core

import (
	"context"
	"errors"
	"testing"

	"simcore/pkg/domain"
)

type stubCoverageBackend struct {
	snap CoverageSnapshot
	err  error
}

func (b *stubCoverageBackend) Snapshot(context.Context, string) (CoverageSnapshot, error) {
	if b.err != nil {
		return CoverageSnapshot{}, b.err
	}
	return b.snap, nil
}

func newTracker(backend CoverageBackend) *CoverageTracker {
	reg := NewRegistry(domain.EntityCoverage, cloneCoverage,
		func(s domain.CoverageSession) string { return s.ID })
	return NewCoverageTracker(reg, NewAllocator(), backend)
}

func TestCoverageStartStopReport(t *testing.T) {
	backend := &stubCoverageBackend{snap: CoverageSnapshot{
		TotalLines:   1000,
		CoveredLines: 850,
		Files: []domain.FileCoverage{
			{File: "main.c", TotalLines: 250, CoveredLines: 230, UncoveredLines: []int{15, 16}},
			{File: "utils.c", TotalLines: 150, CoveredLines: 140, UncoveredLines: []int{22}},
		},
	}}
	tr := newTracker(backend)

	session := tr.Start("exec_abc")
	if session.Status != domain.CoverageCollecting {
		t.Fatalf("status = %q, want collecting", session.Status)
	}
	if session.StartedAt == nil || session.StoppedAt != nil {
		t.Fatalf("timestamps wrong on start: %+v", session)
	}

	stopped, err := tr.Stop(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.Status != domain.CoverageCompleted || stopped.StoppedAt == nil {
		t.Fatalf("after stop: %+v", stopped)
	}
	if stopped.TotalLines != 1000 || stopped.CoveredLines != 850 {
		t.Fatalf("totals = %d/%d", stopped.CoveredLines, stopped.TotalLines)
	}

	report, err := tr.Report(session.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Percentage != 85.00 {
		t.Fatalf("percentage = %v, want 85.00", report.Percentage)
	}
	if len(report.Files) != 2 {
		t.Fatalf("files = %d", len(report.Files))
	}
	if report.Files[0].Percentage != 92.00 {
		t.Fatalf("main.c percentage = %v, want 92.00", report.Files[0].Percentage)
	}
	if report.Files[1].Percentage != 93.33 {
		t.Fatalf("utils.c percentage = %v, want 93.33", report.Files[1].Percentage)
	}
}

func TestCoverageReportBeforeStopIsZero(t *testing.T) {
	tr := newTracker(&stubCoverageBackend{})
	session := tr.Start("exec_abc")

	report, err := tr.Report(session.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Percentage != 0.0 {
		t.Fatalf("percentage = %v, want 0.0 before stop", report.Percentage)
	}
	if report.Session.Status != domain.CoverageCollecting {
		t.Fatalf("status = %q", report.Session.Status)
	}
}

func TestCoverageStopBackendFailureLeavesSession(t *testing.T) {
	tr := newTracker(&stubCoverageBackend{err: errors.New("probe detached")})
	session := tr.Start("exec_abc")

	_, err := tr.Stop(context.Background(), session.ID)
	var internal domain.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("want InternalError, got %v", err)
	}
	got, _ := tr.Status(session.ID)
	if got.Status != domain.CoverageCollecting {
		t.Fatalf("failed stop mutated session: %+v", got)
	}
}

func TestCoverageUnknownID(t *testing.T) {
	tr := newTracker(&stubCoverageBackend{})
	if _, err := tr.Stop(context.Background(), "cov_nope"); !domain.IsNotFound(err) {
		t.Fatalf("stop: %v", err)
	}
	if _, err := tr.Report("cov_nope"); !domain.IsNotFound(err) {
		t.Fatalf("report: %v", err)
	}
	if _, err := tr.Status("cov_nope"); !domain.IsNotFound(err) {
		t.Fatalf("status: %v", err)
	}
}
