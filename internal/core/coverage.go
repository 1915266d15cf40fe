package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"simcore/pkg/domain"
)

// CoverageReport is the read-only projection returned by Report.
type CoverageReport struct {
	Session    domain.CoverageSession
	Percentage float64
	Files      []domain.FileCoverage
}

// CoverageTracker owns the registry of coverage sessions. Raw hit data comes
// from the injected CoverageBackend; the tracker aggregates and reports.
type CoverageTracker struct {
	reg     *Registry[domain.CoverageSession]
	alloc   *Allocator
	backend CoverageBackend
	nowFn   func() time.Time
}

// NewCoverageTracker constructs the tracker around an injected registry,
// allocator, and coverage backend.
func NewCoverageTracker(reg *Registry[domain.CoverageSession], alloc *Allocator, backend CoverageBackend) *CoverageTracker {
	return &CoverageTracker{
		reg:     reg,
		alloc:   alloc,
		backend: backend,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a collecting session for the given execution ID. The execution
// ID is recorded without validation, consistent with the controller's loose
// cross-store coupling.
func (t *CoverageTracker) Start(executionID string) domain.CoverageSession {
	now := t.nowFn()
	session := domain.CoverageSession{
		ID:          t.alloc.Allocate(KindCoverage),
		ExecutionID: executionID,
		Status:      domain.CoverageCollecting,
		StartedAt:   &now,
	}
	t.reg.Insert(session)
	logrus.WithFields(logrus.Fields{"coverage": session.ID, "execution": executionID}).Info("started coverage collection")
	return session
}

// Stop finalizes the session: status completed, StoppedAt stamped, and totals
// snapshotted from the backend at this instant. The totals are not updated
// afterwards. The backend is consulted before any state mutation so a backend
// failure leaves the session untouched.
func (t *CoverageTracker) Stop(ctx context.Context, id string) (domain.CoverageSession, error) {
	session, err := t.reg.Get(id)
	if err != nil {
		return domain.CoverageSession{}, err
	}
	snap, err := t.backend.Snapshot(ctx, session.ExecutionID)
	if err != nil {
		return domain.CoverageSession{}, domain.Internalf("coverage snapshot", err)
	}
	updated, err := t.reg.Update(id, func(s *domain.CoverageSession) error {
		now := t.nowFn()
		s.Status = domain.CoverageCompleted
		s.StoppedAt = &now
		s.TotalLines = snap.TotalLines
		s.CoveredLines = snap.CoveredLines
		s.Files = snap.Files
		return nil
	})
	if err != nil {
		return domain.CoverageSession{}, err
	}
	logrus.WithField("coverage", id).Info("stopped coverage collection")
	return updated, nil
}

// Report returns the finalized summary and the per-file breakdown. Calling
// report before stop is permitted and reflects whatever totals exist at call
// time (zero if never stopped).
func (t *CoverageTracker) Report(id string) (CoverageReport, error) {
	session, err := t.reg.Get(id)
	if err != nil {
		return CoverageReport{}, err
	}
	files := make([]domain.FileCoverage, len(session.Files))
	for i, f := range session.Files {
		f.Percentage = domain.CoveragePercentage(f.CoveredLines, f.TotalLines)
		files[i] = f
	}
	return CoverageReport{
		Session:    session,
		Percentage: session.Percentage(),
		Files:      files,
	}, nil
}

// Status returns the full session record.
func (t *CoverageTracker) Status(id string) (domain.CoverageSession, error) {
	return t.reg.Get(id)
}
