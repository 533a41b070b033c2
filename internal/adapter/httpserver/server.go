package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/memeboard/internal/adapter/metrics"
	"github.com/pscheid92/memeboard/internal/app"
	"github.com/pscheid92/memeboard/internal/domain"
	"github.com/pscheid92/memeboard/internal/engagement"
	"github.com/pscheid92/memeboard/internal/platform/config"
)

type appService interface {
	SignUp(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)

	ListMemes(ctx context.Context, params app.MemeListParams) (*domain.MemePage, error)
	GetMeme(ctx context.Context, memeID uuid.UUID) (*domain.MemeDetail, error)
	GetMemeOfTheDay(ctx context.Context) (*domain.MemeDetail, error)
	CreateMeme(ctx context.Context, actorID uuid.UUID, req app.CreateMemeRequest) (*domain.Meme, error)
	UpdateMeme(ctx context.Context, actorID, memeID uuid.UUID, req app.UpdateMemeRequest) (*domain.Meme, error)
	DeleteMeme(ctx context.Context, actorID, memeID uuid.UUID) error

	Vote(ctx context.Context, actorID, memeID uuid.UUID, rawType string) (*engagement.VoteResult, error)
	ListComments(ctx context.Context, memeID uuid.UUID) ([]domain.Comment, error)
	CreateComment(ctx context.Context, actorID, memeID uuid.UUID, content string) (*domain.Comment, error)
	UpdateComment(ctx context.Context, actorID, memeID, commentID uuid.UUID, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, actorID, memeID, commentID uuid.UUID) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app            appService
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	healthChecks   []HealthCheck
	startTime      time.Time
}

func NewServer(cfg *config.Config, app appService, httpMetrics *metrics.HTTPMetrics, metricsHandler http.Handler, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		httpMetrics:    httpMetrics,
		metricsHandler: metricsHandler,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Handler exposes the router, mainly for tests driving full requests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
