package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetBoard(ctx))
	assert.Empty(t, GetTask(ctx))
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithBoard(ctx, "spring-term")
	ctx = WithRequestID(ctx, "req-1")
	taskCtx := WithTask(ctx, "t4")

	assert.Equal(t, "spring-term", GetBoard(taskCtx))
	assert.Equal(t, "req-1", GetRequestID(taskCtx))
	assert.Equal(t, "t4", GetTask(taskCtx))
	assert.Empty(t, GetTask(ctx), "parent context is not changed")

	assert.Equal(t, "autumn-term", GetBoard(WithBoard(taskCtx, "autumn-term")))
}
