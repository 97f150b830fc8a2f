package logging

import "context"

type scopeKey struct{}

// scope is the set of ids a context carries for log lines.
type scope struct {
	Board     string
	Task      string
	RequestID string
}

func fromContext(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	sc, _ := ctx.Value(scopeKey{}).(scope)
	return sc
}

func withScope(ctx context.Context, set func(*scope)) context.Context {
	sc := fromContext(ctx)
	set(&sc)
	return context.WithValue(ctx, scopeKey{}, sc)
}

// WithBoard tags ctx with the board being worked on.
func WithBoard(ctx context.Context, board string) context.Context {
	return withScope(ctx, func(sc *scope) { sc.Board = board })
}

// WithTask tags ctx with the task a request or operation targets.
func WithTask(ctx context.Context, taskID string) context.Context {
	return withScope(ctx, func(sc *scope) { sc.Task = taskID })
}

// WithRequestID tags ctx with an HTTP request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withScope(ctx, func(sc *scope) { sc.RequestID = requestID })
}

// GetBoard returns the board ctx is tagged with, or "".
func GetBoard(ctx context.Context) string { return fromContext(ctx).Board }

// GetTask returns the task ctx is tagged with, or "".
func GetTask(ctx context.Context) string { return fromContext(ctx).Task }

// GetRequestID returns the request id ctx is tagged with, or "".
func GetRequestID(ctx context.Context) string { return fromContext(ctx).RequestID }
