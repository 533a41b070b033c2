package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/memeboard/internal/platform/errors"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (s *Server) registerAuthRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.POST("/auth/signup", s.handleSignUp, rateLimiter)
	s.echo.POST("/auth/login", s.handleLogin, rateLimiter)
}

func (s *Server) handleSignUp(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	user, err := s.app.SignUp(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, toUserResponse(user)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	token, user, err := s.app.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, loginResponse{Token: token, User: toUserResponse(user)}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
