package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence_NextIsMonotonicAndNeverZero(t *testing.T) {
	var s Sequence
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id := s.Next()
		assert.NotZero(t, id)
		assert.False(t, seen[id], "id %d minted twice", id)
		seen[id] = true
	}
	assert.EqualValues(t, 100, s.Current())
}

func TestSequence_RestoreNeverMovesBackwards(t *testing.T) {
	var s Sequence
	s.Next()
	s.Next()
	s.Next()
	assert.EqualValues(t, 3, s.Current())

	s.Restore(1)
	assert.EqualValues(t, 3, s.Current(), "restore below the current watermark is a no-op")

	s.Restore(50)
	assert.EqualValues(t, 50, s.Current())
	assert.EqualValues(t, 51, s.Next(), "ids minted after a restore must continue past the restored watermark")
}

func TestSequence_ConcurrentNextNeverCollides(t *testing.T) {
	var s Sequence
	const n = 500
	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = s.Next()
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "id %d minted twice under concurrency", id)
		seen[id] = true
	}
}

func TestNewAstronautID_NeverZero(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.NotZero(t, NewAstronautID())
	}
}
