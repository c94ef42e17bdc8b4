package keymutex_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-reward-tracker/pkg/keymutex"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()

	km := keymutex.New()

	const workers = 50

	counter := 0

	var wg sync.WaitGroup

	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			_ = km.WithLock("source-a", func() error {
				counter++
				return nil
			})
		}()
	}

	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyMutex_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	km := keymutex.New()
	km.Lock("source-a")

	released := make(chan struct{})

	go func() {
		_ = km.WithLock("source-b", func() error {
			close(released)
			return nil
		})
	}()

	<-released

	km.Unlock("source-a")
}

func TestKeyMutex_WithLockReturnsError(t *testing.T) {
	t.Parallel()

	km := keymutex.New()

	err := km.WithLock("source-a", func() error {
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	// Замок отпущен: повторный захват не блокируется.
	err = km.WithLock("source-a", func() error { return nil })
	assert.NoError(t, err)
}
