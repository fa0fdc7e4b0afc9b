package mcp

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunLock(t *testing.T) {
	var lock runLock

	assert.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire(), "second acquire must fail while held")

	lock.Release()
	assert.True(t, lock.TryAcquire())
	lock.Release()
}

func TestRunLock_Concurrent(t *testing.T) {
	var lock runLock
	var acquired atomic.Int32
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if lock.TryAcquire() {
				acquired.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}
