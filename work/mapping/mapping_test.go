package mapping

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndResolve(t *testing.T) {
	table := New(100, time.Hour)

	id := table.Register("http://[2001:db8::1]/live.m3u8")
	require.NotEmpty(t, id)

	got, err := table.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, "http://[2001:db8::1]/live.m3u8", got)

	// lookups are repeatable
	again, err := table.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestRegisterSameURLTwice(t *testing.T) {
	table := New(100, time.Hour)

	first := table.Register("http://a/x.m3u8")
	second := table.Register("http://a/x.m3u8")
	assert.NotEqual(t, first, second)

	for _, id := range []string{first, second} {
		got, err := table.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, "http://a/x.m3u8", got)
	}
}

func TestResolveUnknownID(t *testing.T) {
	table := New(100, time.Hour)

	got, err := table.Resolve("does-not-exist")
	require.Error(t, err)
	assert.Empty(t, got)
	assert.True(t, errors.Is(err, ErrUnknownID))

	var le *LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "does-not-exist", le.ID)
}

func TestConcurrentRegisterResolve(t *testing.T) {
	table := New(10000, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				url := fmt.Sprintf("http://host/%d/%d.m3u8", n, j)
				id := table.Register(url)
				got, err := table.Resolve(id)
				assert.NoError(t, err)
				assert.Equal(t, url, got)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, table.Len(), 32*50)
}
