package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"composewait/internal/db"
)

const defaultRunsLimit = 20

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	api := s.echo.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/attempts", s.handleAttempts)
	api.GET("/ws", s.handleWebSocket)

	runs := api.Group("/runs")
	runs.GET("", s.handleListRuns)
	runs.GET("/:id/attempts", s.handleListRunAttempts)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus returns the state of the current run and its latest attempt.
// It answers 503 until every service is ready so it can back a readiness check.
func (s *Server) handleStatus(c echo.Context) error {
	status := s.hub.Status()
	code := http.StatusOK
	if status.State != RunStateHealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func (s *Server) handleAttempts(c echo.Context) error {
	attempts := s.hub.Attempts()
	return c.JSON(http.StatusOK, AttemptsResponse{Attempts: attempts, Total: len(attempts)})
}

func (s *Server) handleListRuns(c echo.Context) error {
	if s.runs == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run history is disabled")
	}

	limit := defaultRunsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, RunsResponse{Runs: runs, Total: len(runs)})
}

func (s *Server) handleListRunAttempts(c echo.Context) error {
	if s.runs == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run history is disabled")
	}

	id := c.Param("id")
	if _, err := s.runs.GetRun(c.Request().Context(), id); err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "run not found: "+id)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	attempts, err := s.runs.ListAttempts(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, RunAttemptsResponse{RunID: id, Attempts: attempts})
}
