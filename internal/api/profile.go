package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mhmd-mcp/backend/internal/services"
	"mhmd-mcp/backend/pkg/models"
)

// HandleGetProfile returns the stored user profile. An empty store reads as
// the default profile, never a 404.
// (GET /api/user)
func (s *Server) HandleGetProfile(c echo.Context) error {
	profile, err := s.Profiles.Get(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, models.UserResponse{Success: true, Data: profile})
}

// HandlePutProfile replaces the whole profile record.
// (POST /api/user)
func (s *Server) HandlePutProfile(c echo.Context) error {
	var profile models.UserProfile
	if err := c.Bind(&profile); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	stored, err := s.Profiles.Put(c.Request().Context(), &profile)
	if err != nil {
		return profileError(err)
	}
	return c.JSON(http.StatusOK, models.UserResponse{Success: true, Data: stored})
}

// HandlePatchProfile merges the provided fields into the stored record.
// (PATCH /api/user)
func (s *Server) HandlePatchProfile(c echo.Context) error {
	var update models.UserProfile
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	stored, err := s.Profiles.Patch(c.Request().Context(), &update)
	if err != nil {
		return profileError(err)
	}
	return c.JSON(http.StatusOK, models.UserResponse{Success: true, Data: stored})
}

// HandleDeleteProfile resets the record to the default profile. Repeated
// deletes succeed.
// (DELETE /api/user)
func (s *Server) HandleDeleteProfile(c echo.Context) error {
	if err := s.Profiles.Delete(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, models.UserResponse{
		Success: true,
		Message: "profile reset to default",
	})
}

func profileError(err error) error {
	if errors.Is(err, services.ErrInvalidPreference) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
}
