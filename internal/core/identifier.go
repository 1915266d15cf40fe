// Package core implements the simcore control plane: identifier allocation,
// concurrency-safe session registries, and the four lifecycle managers.
package core

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind selects the namespace prefix of an allocated identifier.
type Kind string

// Identifier namespaces. One per registry, plus comp for component records
// nested inside co-simulation sessions.
const (
	KindSimulation Kind = "sim"
	KindExecution  Kind = "exec"
	KindCoverage   Kind = "cov"
	KindCoSim      Kind = "cosim"
	KindComponent  Kind = "comp"
)

// suffixLen is the number of hex characters appended to the kind prefix,
// 48 bits of UUID-derived randomness.
const suffixLen = 12

// Allocator produces namespace-prefixed opaque identifiers. An identifier
// issued once is never issued again for the lifetime of the process, even
// after the entity it named has been deleted.
type Allocator struct {
	mu     sync.Mutex
	issued map[string]struct{}
}

// NewAllocator constructs an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{issued: make(map[string]struct{})}
}

// Allocate returns a fresh identifier of the form "<kind>_<hex suffix>".
func (a *Allocator) Allocate(kind Kind) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		u := uuid.New()
		id := fmt.Sprintf("%s_%s", kind, hex.EncodeToString(u[:])[:suffixLen])
		if _, dup := a.issued[id]; dup {
			continue
		}
		a.issued[id] = struct{}{}
		return id
	}
}

// Reserve marks an identifier as already issued, used when rehydrating state
// from a checkpoint so restored IDs cannot collide with new allocations.
func (a *Allocator) Reserve(id string) {
	a.mu.Lock()
	a.issued[id] = struct{}{}
	a.mu.Unlock()
}
