package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/memeboard/internal/platform/errors"
)

const commentCreatedMessage = "comment added"

type commentRequest struct {
	Content string `json:"content" form:"content"`
}

func (s *Server) registerCommentRoutes(writeLimiter echo.MiddlewareFunc) {
	s.echo.GET("/memes/:memeId/comments", s.handleListComments)
	s.echo.POST("/memes/:memeId/comments", s.handleCreateComment, s.requireAuth, writeLimiter)
	s.echo.PUT("/memes/:memeId/comments/:commentId", s.handleUpdateComment, s.requireAuth, writeLimiter)
	s.echo.DELETE("/memes/:memeId/comments/:commentId", s.handleDeleteComment, s.requireAuth, writeLimiter)
}

func (s *Server) handleListComments(c echo.Context) error {
	memeID, err := pathUUID(c, "memeId")
	if err != nil {
		return err
	}

	comments, err := s.app.ListComments(c.Request().Context(), memeID)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toCommentResponses(comments)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateComment(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	memeID, err := pathUUID(c, "memeId")
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	comment, err := s.app.CreateComment(c.Request().Context(), userID, memeID, req.Content)
	if err != nil {
		return err
	}

	resp := commentCreatedResponse{Comment: toCommentResponse(comment), Message: commentCreatedMessage}
	if err := c.JSON(http.StatusCreated, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateComment(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	memeID, err := pathUUID(c, "memeId")
	if err != nil {
		return err
	}
	commentID, err := pathUUID(c, "commentId")
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	comment, err := s.app.UpdateComment(c.Request().Context(), userID, memeID, commentID, req.Content)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toCommentResponse(comment)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteComment(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	memeID, err := pathUUID(c, "memeId")
	if err != nil {
		return err
	}
	commentID, err := pathUUID(c, "commentId")
	if err != nil {
		return err
	}

	if err := s.app.DeleteComment(c.Request().Context(), userID, memeID, commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
