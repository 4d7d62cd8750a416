package server

import (
	"errors"
	"net/http"

	"agrilink/pkg/log"
	"agrilink/pkg/models"
	"agrilink/pkg/netconfig"

	"github.com/labstack/echo/v4"
)

type modeRequest struct {
	Mode string `json:"mode"`
}

type modeResponse struct {
	Mode    models.NetworkMode `json:"mode"`
	BaseURL string             `json:"base_url"`
}

type urlResponse struct {
	URL string `json:"url"`
}

// HealthHandler reports that the control server is up.
func (s *Server) HealthHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// StatusHandler returns the active endpoint configuration.
func (s *Server) StatusHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.resolver.Status())
}

// ProbeHandler probes every candidate and returns the results in candidate order.
func (s *Server) ProbeHandler(ctx echo.Context) error {
	results := s.resolver.TestConnection(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, results)
}

// BestHandler returns the first reachable candidate without applying it.
func (s *Server) BestHandler(ctx echo.Context) error {
	best, err := s.resolver.GetBestURL(ctx.Request().Context())
	if err != nil {
		return unreachable(ctx, err)
	}
	return ctx.JSON(http.StatusOK, urlResponse{URL: best})
}

// ApplyBestHandler points the endpoint at the first reachable candidate.
func (s *Server) ApplyBestHandler(ctx echo.Context) error {
	best, err := s.resolver.ApplyBestURL(ctx.Request().Context())
	if err != nil {
		return unreachable(ctx, err)
	}
	return ctx.JSON(http.StatusOK, urlResponse{URL: best})
}

// GetModeHandler returns the persisted mode and the active base URL.
func (s *Server) GetModeHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, modeResponse{
		Mode:    s.resolver.GetMode(ctx.Request().Context()),
		BaseURL: s.resolver.Endpoint().BaseURL(),
	})
}

// SetModeHandler switches the network mode.
func (s *Server) SetModeHandler(ctx echo.Context) error {
	var req modeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	mode, ok := models.ParseNetworkMode(req.Mode)
	if !ok {
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "Mode must be online or offline",
		})
	}

	if err := s.resolver.SetMode(ctx.Request().Context(), mode); err != nil {
		if errors.Is(err, netconfig.ErrInvalidMode) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		log.Error().Err(err).Str("mode", string(mode)).Msg("Failed to switch network mode")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Mode switched but could not be persisted: " + err.Error(),
		})
	}

	return ctx.JSON(http.StatusOK, modeResponse{
		Mode:    mode,
		BaseURL: s.resolver.Endpoint().BaseURL(),
	})
}

func unreachable(ctx echo.Context, err error) error {
	if errors.Is(err, netconfig.ErrNoReachableBackend) {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
