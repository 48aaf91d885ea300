package kernel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDGenerator_Format(t *testing.T) {
	fixed := time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)
	gen := NewIDGenerator(time.UTC, func() time.Time { return fixed }, 1)

	id := gen.TransactionID()
	assert.Regexp(t, `^2025-02-01_103000_\d{3}$`, id)
}

func TestIDGenerator_CollisionFallsBackToRandomSuffix(t *testing.T) {
	fixed := time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)
	gen := NewIDGenerator(time.UTC, func() time.Time { return fixed }, 1)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := gen.TransactionID()
		assert.False(t, seen[id], "id %s was issued twice", id)
		seen[id] = true
	}
}

func TestIDGenerator_ConcurrentUnique(t *testing.T) {
	fixed := time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)
	gen := NewIDGenerator(time.UTC, func() time.Time { return fixed }, 2)

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.TransactionID()
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[id])
			seen[id] = true
		}()
	}
	wg.Wait()
}
