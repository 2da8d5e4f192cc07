// Package api contains the HTTP handlers for the MHMD backend REST surface.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"mhmd-mcp/backend/internal/dispatch"
	"mhmd-mcp/backend/internal/services"
	"mhmd-mcp/backend/pkg/models"
)

// Server holds the dependencies for the REST API. Dispatch-backed routes and
// the profile CRUD share the same store, so both surfaces see the same record.
type Server struct {
	Dispatcher *dispatch.Dispatcher
	Profiles   *services.ProfileService
}

// NewServer creates a new Server.
func NewServer(dispatcher *dispatch.Dispatcher, profiles *services.ProfileService) *Server {
	return &Server{Dispatcher: dispatcher, Profiles: profiles}
}

// HandleHealth returns basic health status (always returns 200 OK)
// (GET /api/health)
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    "ok",
		Message:   "MHMD MCP backend is running",
		Service:   "mhmd-mcp",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

// callRequest is the body of POST /mcp/call.
type callRequest struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

// HandleCall routes a named method through the dispatcher and returns the
// envelope as-is. The HTTP status is always 200; success and failure are
// encoded in the envelope, the same contract the MCP tools follow.
// (POST /mcp/call)
func (s *Server) HandleCall(c echo.Context) error {
	var req callRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Method == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required field: method")
	}

	env := s.Dispatcher.Dispatch(c.Request().Context(), req.Method, req.Params)
	return c.JSON(http.StatusOK, env)
}

// HandleListTools returns the registry of dispatchable methods.
// (GET /mcp/tools)
func (s *Server) HandleListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, models.Envelope{
		Success: true,
		Data:    dispatch.Registry(),
	})
}
