package credentials

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotatorNoKeys(t *testing.T) {
	_, err := NewRotator(nil)
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = NewRotator([]string{"", "   "})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestSelectRoundRobin(t *testing.T) {
	r, err := NewRotator([]string{"key-a", " key-b ", "", "key-c"})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())

	got := []string{r.Select(), r.Select(), r.Select(), r.Select()}
	assert.Equal(t, []string{"key-a", "key-b", "key-c", "key-a"}, got)
}

func TestSelectConcurrent(t *testing.T) {
	keys := []string{"key-a", "key-b"}
	r, err := NewRotator(keys)
	require.NoError(t, err)

	var mu sync.Mutex
	counts := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := r.Select()
			mu.Lock()
			counts[k]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every selection is one of the configured keys and the load splits evenly.
	assert.Len(t, counts, 2)
	assert.Equal(t, 50, counts["key-a"])
	assert.Equal(t, 50, counts["key-b"])
}
