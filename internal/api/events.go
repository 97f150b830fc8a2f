package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/colonyops/taskboard/internal/core/eventbus"
)

const clientBuffer = 32

// streamEvent is the wire form of a bus event. Clients refetch the board
// when they need more than the ids.
type streamEvent struct {
	Event  eventbus.Event `json:"event"`
	Board  string         `json:"board"`
	TaskID string         `json:"taskId,omitempty"`
	Column string         `json:"column,omitempty"`
	Target string         `json:"target,omitempty"`
	Source string         `json:"source,omitempty"`
	Index  *int           `json:"index,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func toStreamEvent(event eventbus.Event, payload any) streamEvent {
	out := streamEvent{Event: event}
	switch p := payload.(type) {
	case eventbus.TaskCreatedPayload:
		out.Board, out.TaskID, out.Column = p.Board, p.Task.ID, p.Column
	case eventbus.TaskUpdatedPayload:
		out.Board, out.TaskID = p.Board, p.Task.ID
	case eventbus.TaskDeletedPayload:
		out.Board, out.TaskID, out.Column = p.Board, p.TaskID, p.Column
	case eventbus.TaskMovedPayload:
		out.Board, out.TaskID, out.Column, out.Target = p.Board, p.Move.TaskID, p.From, p.Move.Target
		out.Index = &p.Index
	case eventbus.BoardReplacedPayload:
		out.Board = p.Board
	case eventbus.BoardReloadedPayload:
		out.Board, out.Source = p.Board, p.Source
	case eventbus.BoardSaveFailedPayload:
		out.Board = p.Board
		if p.Err != nil {
			out.Error = p.Err.Error()
		}
	}
	return out
}

// hub fans bus events out to connected stream clients. A client that falls
// behind misses events rather than blocking the bus.
type hub struct {
	mu      sync.Mutex
	clients map[chan streamEvent]struct{}
	closed  bool
}

func newHub() *hub {
	return &hub{clients: make(map[chan streamEvent]struct{})}
}

func (h *hub) publish(event eventbus.Event, payload any) {
	ev := toStreamEvent(event, payload)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// add registers a client. It returns nil once the hub is closed.
func (h *hub) add() chan streamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	ch := make(chan streamEvent, clientBuffer)
	h.clients[ch] = struct{}{}
	return ch
}

func (h *hub) remove(ch chan streamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// close disconnects every client and refuses new ones.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// streamEvents writes bus events as server-sent events until the client
// disconnects or the server shuts down.
func (s *Server) streamEvents(c echo.Context) error {
	ch := s.hub.add()
	if ch == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server shutting down")
	}
	defer s.hub.remove(ch)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return nil
	}
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.log.Error().Err(err).Msg("encode stream event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
