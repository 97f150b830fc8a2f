package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/eventbus/testbus"
	"github.com/colonyops/taskboard/internal/store/memory"
	"github.com/colonyops/taskboard/internal/taskboard"
)

func newTestServer(t *testing.T, opts Options) (*Server, *taskboard.BoardService) {
	t.Helper()
	tb := testbus.New(t)
	svc := taskboard.NewBoardService(context.Background(), memory.New(memory.NewBoards(), "main"), taskboard.BoardOptions{
		Name: "main",
		IDs:  board.SequentialIDs("t", 1),
	}, tb.EventBus, zerolog.Nop())
	return New(svc, tb.EventBus, opts), svc
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServer_TaskLifecycle(t *testing.T) {
	s, svc := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/columns/todo/tasks", `{"content":"Write report","quadrant":"schedule"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[taskResponse](t, rec)
	assert.Equal(t, "t1", created.ID)
	assert.Equal(t, "todo", created.Column)
	assert.Equal(t, board.QuadrantSchedule, created.Quadrant)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(t, s, http.MethodPatch, "/api/tasks/t1", `{"content":"Write final report"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[taskResponse](t, rec)
	assert.Equal(t, "Write final report", updated.Content)
	assert.Equal(t, board.QuadrantSchedule, updated.Quadrant)

	rec = do(t, s, http.MethodPost, "/api/tasks/t1/move", `{"target":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, moveResponse{Moved: true, Column: "done"}, decode[moveResponse](t, rec))

	rec = do(t, s, http.MethodGet, "/api/tasks/t1/column", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, columnResponse{Column: "done"}, decode[columnResponse](t, rec))

	rec = do(t, s, http.MethodGet, "/api/board", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[board.State](t, rec)
	assert.True(t, svc.Snapshot().Equal(state))

	rec = do(t, s, http.MethodDelete, "/api/tasks/t1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.Snapshot().Tasks)
}

func TestServer_MoveWithinColumn(t *testing.T) {
	s, svc := newTestServer(t, Options{})
	ctx := context.Background()
	for _, content := range []string{"a", "b", "c"} {
		_, err := svc.CreateTask(ctx, "todo", board.TaskFields{Content: content})
		require.NoError(t, err)
	}

	rec := do(t, s, http.MethodPost, "/api/tasks/t3/move", `{"target":"todo","before":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"t3", "t1", "t2"}, svc.Snapshot().Columns["todo"].TaskIDs)

	rec = do(t, s, http.MethodPost, "/api/tasks/t1/move", `{"target":"todo","before":"t2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, moveResponse{Moved: false, Column: "todo"}, decode[moveResponse](t, rec))
}

func TestServer_Errors(t *testing.T) {
	s, svc := newTestServer(t, Options{})
	_, err := svc.CreateTask(context.Background(), "todo", board.TaskFields{Content: "a"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown column", http.MethodPost, "/api/columns/nope/tasks", `{"content":"x"}`, http.StatusNotFound},
		{"blank content", http.MethodPost, "/api/columns/todo/tasks", `{"content":"  "}`, http.StatusUnprocessableEntity},
		{"bad quadrant", http.MethodPost, "/api/columns/todo/tasks", `{"content":"x","quadrant":"urgent"}`, http.StatusUnprocessableEntity},
		{"bad json", http.MethodPost, "/api/columns/todo/tasks", `{"content":`, http.StatusBadRequest},
		{"patch unknown task", http.MethodPatch, "/api/tasks/nope", `{"content":"x"}`, http.StatusNotFound},
		{"patch blank content", http.MethodPatch, "/api/tasks/t1", `{"content":""}`, http.StatusUnprocessableEntity},
		{"delete unknown task", http.MethodDelete, "/api/tasks/nope", "", http.StatusNotFound},
		{"move unknown task", http.MethodPost, "/api/tasks/nope/move", `{"target":"done"}`, http.StatusNotFound},
		{"move to unknown column", http.MethodPost, "/api/tasks/t1/move", `{"target":"nope"}`, http.StatusNotFound},
		{"column of unknown task", http.MethodGet, "/api/tasks/nope/column", "", http.StatusNotFound},
		{"get unknown task", http.MethodGet, "/api/tasks/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := svc.Snapshot()
			rec := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.True(t, before.Equal(svc.Snapshot()), "board changed after failed request")
		})
	}
}

func TestServer_Healthz(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
}

func TestServer_Profiler(t *testing.T) {
	off, _ := newTestServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, off, http.MethodGet, "/debug/pprof/", "").Code)

	on, _ := newTestServer(t, Options{Profiler: true})
	rec := do(t, on, http.MethodGet, "/debug/pprof/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")
}

func TestServer_CORS(t *testing.T) {
	s, _ := newTestServer(t, Options{AllowOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodGet, "/api/board", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_StreamsEvents(t *testing.T) {
	s, svc := newTestServer(t, Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	_, err = svc.CreateTask(context.Background(), "todo", board.TaskFields{Content: "streamed"})
	require.NoError(t, err)

	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	assert.Equal(t, "task.created", event)
	assert.JSONEq(t, `{"event":"task.created","board":"main","taskId":"t1","column":"todo"}`, data)
}

func TestStreamEvent_MoveUsesActualSource(t *testing.T) {
	out := toStreamEvent(eventbus.EventTaskMoved, eventbus.TaskMovedPayload{
		Board: "main",
		Move:  board.Move{TaskID: "t1", Source: "todo", Target: "done"},
		From:  "inProgress",
		Index: 0,
	})

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"task.moved","board":"main","taskId":"t1","column":"inProgress","target":"done","index":0}`, string(data))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	require.Eventually(t, func() bool { return s.e.ListenerAddr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.e.ListenerAddr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
	assert.Nil(t, s.hub.add(), "closed hub must refuse clients")
}
