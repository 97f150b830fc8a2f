// Package api serves the board over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/logging"
)

const shutdownTimeout = 5 * time.Second

// Board is the board service the handlers drive. *taskboard.BoardService
// implements it.
type Board interface {
	board.TaskStore
	board.Mover
	Name() string
	Snapshot() board.State
	ColumnOf(taskID string) (string, bool)
}

// Options configures the server.
type Options struct {
	AllowOrigins []string // CORS origins; empty disables CORS headers
	Profiler     bool     // mount net/http/pprof under /debug/pprof
}

// Server is the HTTP front end for one board.
type Server struct {
	e     *echo.Echo
	board Board
	hub   *hub
	log   zerolog.Logger
}

// New builds the server and subscribes it to bus so connected event streams
// see every board change.
func New(b Board, bus *eventbus.EventBus, opts Options) *Server {
	s := &Server{
		e:     echo.New(),
		board: b,
		hub:   newHub(),
		log:   logging.Component("api"),
	}
	s.e.HideBanner = true
	s.e.HidePort = true

	bus.SubscribeAll(s.hub.publish)

	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	s.e.Use(s.requestContext)
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))
	if len(opts.AllowOrigins) > 0 {
		s.e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: opts.AllowOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	s.routes()
	if opts.Profiler {
		s.mountProfiler()
	}
	return s
}

func (s *Server) routes() {
	s.e.GET("/healthz", s.healthz)
	s.e.GET("/api/board", s.getBoard)
	s.e.GET("/api/events", s.streamEvents)
	s.e.POST("/api/columns/:column/tasks", s.createTask)
	s.e.GET("/api/tasks/:id", s.getTask)
	s.e.PATCH("/api/tasks/:id", s.updateTask)
	s.e.DELETE("/api/tasks/:id", s.deleteTask)
	s.e.POST("/api/tasks/:id/move", s.moveTask)
	s.e.GET("/api/tasks/:id/column", s.taskColumn)
}

func (s *Server) mountProfiler() {
	g := s.e.Group("/debug/pprof")
	g.GET("/", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	g.GET("/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	g.GET("/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	g.GET("/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	g.GET("/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	g.GET("/:name", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
}

// requestContext carries the request id, board and targeted task into the
// request context so log events written with Ctx pick them up.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := logging.WithRequestID(c.Request().Context(), id)
		ctx = logging.WithBoard(ctx, s.board.Name())
		if taskID := c.Param("id"); taskID != "" {
			ctx = logging.WithTask(ctx, taskID)
		}
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	event := s.log.Info()
	if v.Status >= http.StatusInternalServerError {
		event = s.log.Error()
	}
	event.Ctx(c.Request().Context()).
		Str("method", v.Method).
		Str("uri", v.URI).
		Int("status", v.Status).
		Dur("latency", v.Latency).
		Err(v.Error).
		Msg("request")
	return nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Run serves on addr until ctx is done, then closes event streams and shuts
// the listener down.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.e.Start(addr) }()

	s.log.Info().Str("addr", addr).Msg("serving board")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}
