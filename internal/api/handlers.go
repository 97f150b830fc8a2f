package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colonyops/taskboard/internal/core/board"
)

type taskRequest struct {
	Content   string `json:"content"`
	Quadrant  string `json:"quadrant"`
	Type      string `json:"type"`
	Component string `json:"component"`
}

type patchRequest struct {
	Content   *string `json:"content"`
	Quadrant  *string `json:"quadrant"`
	Type      *string `json:"type"`
	Component *string `json:"component"`
}

type moveRequest struct {
	Target string `json:"target"`
	Before string `json:"before"`
}

type taskResponse struct {
	board.Task
	Column string `json:"column"`
}

type moveResponse struct {
	Moved  bool   `json:"moved"`
	Column string `json:"column"`
}

type columnResponse struct {
	Column string `json:"column"`
}

// httpError maps board errors onto HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, board.ErrTaskNotFound), errors.Is(err, board.ErrInvalidColumn):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, board.ErrEmptyContent), errors.Is(err, board.ErrInvalidQuadrant):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}

func bind(c echo.Context, dest any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

func (s *Server) healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (s *Server) getBoard(c echo.Context) error {
	return c.JSON(http.StatusOK, s.board.Snapshot())
}

func (s *Server) task(id string) (taskResponse, error) {
	task, ok := s.board.Task(id)
	if !ok {
		return taskResponse{}, fmt.Errorf("%w: %q", board.ErrTaskNotFound, id)
	}
	column, _ := s.board.ColumnOf(id)
	return taskResponse{Task: task, Column: column}, nil
}

func (s *Server) getTask(c echo.Context) error {
	resp, err := s.task(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) createTask(c echo.Context) error {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id, err := s.board.CreateTask(c.Request().Context(), c.Param("column"), board.TaskFields{
		Content:   req.Content,
		Quadrant:  board.Quadrant(req.Quadrant),
		Type:      req.Type,
		Component: req.Component,
	})
	if err != nil {
		return httpError(err)
	}

	resp, err := s.task(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) updateTask(c echo.Context) error {
	var req patchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	patch := board.TaskPatch{
		Content:   req.Content,
		Type:      req.Type,
		Component: req.Component,
	}
	if req.Quadrant != nil {
		q := board.Quadrant(*req.Quadrant)
		patch.Quadrant = &q
	}

	id := c.Param("id")
	if err := s.board.UpdateTask(c.Request().Context(), id, patch); err != nil {
		return httpError(err)
	}

	resp, err := s.task(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteTask(c echo.Context) error {
	if err := s.board.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) moveTask(c echo.Context) error {
	var req moveRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id := c.Param("id")
	source, ok := s.board.ColumnOf(id)
	if !ok {
		return httpError(fmt.Errorf("%w: %q", board.ErrTaskNotFound, id))
	}

	var drag board.Drag
	drag.Start(id, source)
	drag.Over(req.Target, req.Before)
	moved, err := drag.Drop(c.Request().Context(), s.board)
	if err != nil {
		return httpError(err)
	}

	column, _ := s.board.ColumnOf(id)
	return c.JSON(http.StatusOK, moveResponse{Moved: moved, Column: column})
}

func (s *Server) taskColumn(c echo.Context) error {
	id := c.Param("id")
	column, ok := s.board.ColumnOf(id)
	if !ok {
		return httpError(fmt.Errorf("%w: %q", board.ErrTaskNotFound, id))
	}
	return c.JSON(http.StatusOK, columnResponse{Column: column})
}
