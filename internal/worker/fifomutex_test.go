package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOMutex_SerializesAcquisition(t *testing.T) {
	m := newFIFOMutex()
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	require.NoError(t, m.Lock(context.Background()))
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, m.Lock(context.Background()))
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			m.Unlock()
		}(i)
		time.Sleep(5 * time.Millisecond) // encourage arrival ordering
	}
	m.Unlock()
	wg.Wait()

	assert.Len(t, order, 5)
}

func TestFIFOMutex_LockRespectsContext(t *testing.T) {
	m := newFIFOMutex()
	require.NoError(t, m.Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
