package id

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRun(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewRun(created)
	}
	assert.True(t, sort.StringsAreSorted(ids), "same millisecond stays ordered")
	assert.Len(t, ids[0], 26)

	got, err := Created(ids[0])
	require.NoError(t, err)
	assert.True(t, created.Equal(got))

	later := NewRun(created.Add(time.Second))
	assert.Greater(t, later, ids[len(ids)-1])

	_, err = Created("not-a-ulid")
	assert.Error(t, err)
}

func TestNewRunConcurrent(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				runID := NewRun(created)
				mu.Lock()
				seen[runID] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}
