package core

import (
	"strings"
	"sync"
	"testing"
)

func TestAllocateFormat(t *testing.T) {
	alloc := NewAllocator()
	for _, kind := range []Kind{KindSimulation, KindExecution, KindCoverage, KindCoSim, KindComponent} {
		id := alloc.Allocate(kind)
		prefix := string(kind) + "_"
		if !strings.HasPrefix(id, prefix) {
			t.Fatalf("id %q missing prefix %q", id, prefix)
		}
		suffix := strings.TrimPrefix(id, prefix)
		if len(suffix) != suffixLen {
			t.Fatalf("id %q suffix length = %d, want %d", id, len(suffix), suffixLen)
		}
		for _, r := range suffix {
			if !strings.ContainsRune("0123456789abcdef", r) {
				t.Fatalf("id %q contains non-hex suffix rune %q", id, r)
			}
		}
	}
}

func TestAllocateUniqueUnderConcurrency(t *testing.T) {
	alloc := NewAllocator()
	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := alloc.Allocate(KindSimulation)
				mu.Lock()
				if _, dup := seen[id]; dup {
					mu.Unlock()
					t.Errorf("duplicate id %q", id)
					return
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != workers*perWorker {
		t.Fatalf("allocated %d unique ids, want %d", len(seen), workers*perWorker)
	}
}

func TestReserveBlocksReuse(t *testing.T) {
	alloc := NewAllocator()
	alloc.Reserve("sim_deadbeef0000")
	for i := 0; i < 1000; i++ {
		if alloc.Allocate(KindSimulation) == "sim_deadbeef0000" {
			t.Fatal("allocator reissued a reserved id")
		}
	}
}
