package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name     string
		ctx      func() context.Context
		present  []string
		excluded []string
	}{
		{
			name: "request on a task",
			ctx: func() context.Context {
				ctx := WithBoard(context.Background(), "default")
				return WithTask(WithRequestID(ctx, "r-9"), "t3")
			},
			present: []string{"board", "task", "request_id"},
		},
		{
			name:     "board only",
			ctx:      func() context.Context { return WithBoard(context.Background(), "default") },
			present:  []string{"board"},
			excluded: []string{"task", "request_id"},
		},
		{
			name:     "empty context",
			ctx:      context.Background,
			excluded: []string{"board", "task", "request_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(tt.ctx()).Msg("test")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

			for _, key := range tt.present {
				assert.Contains(t, entry, key)
			}
			for _, key := range tt.excluded {
				assert.NotContains(t, entry, key)
			}
		})
	}
}
