package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHeader(ctx))
	_, ok := getRunID(ctx)
	assert.False(t, ok)

	ctx = withRunID(WithSuppressHeader(ctx), 42)
	assert.True(t, shouldSuppressHeader(ctx))
	runID, ok := getRunID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), runID)
}

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := withRunID(WithSuppressHeader(context.Background()), 12345)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			assert.True(t, shouldSuppressHeader(ctx), "Goroutine %d", i)
			runID, ok := getRunID(ctx)
			assert.True(t, ok, "Goroutine %d", i)
			assert.Equal(t, int64(12345), runID, "Goroutine %d", i)
		})
	}
	wg.Wait()
}
