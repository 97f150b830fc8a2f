package logutils

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferredWriter(t *testing.T) {
	t.Run("holds output until flush", func(t *testing.T) {
		d := &DeferredWriter{}
		logger, err := NewWriter("info", d)
		require.NoError(t, err)

		logger.Info().Msg("while the tui runs")
		assert.Positive(t, d.Len())

		var out bytes.Buffer
		require.NoError(t, d.Flush(&out))
		assert.Contains(t, out.String(), `"message":"while the tui runs"`)
		assert.Zero(t, d.Len())

		out.Reset()
		require.NoError(t, d.Flush(&out))
		assert.Empty(t, out.String())
	})

	t.Run("concurrent writes are safe", func(t *testing.T) {
		d := &DeferredWriter{}
		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = d.Write([]byte("x"))
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, d.Len())
	})
}

func TestNewWriter_BadLevel(t *testing.T) {
	_, err := NewWriter("loud", &bytes.Buffer{})
	assert.ErrorContains(t, err, "parse log level")
}
