package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/memeboard/internal/app"
	"github.com/pscheid92/memeboard/internal/domain"
	apperrors "github.com/pscheid92/memeboard/internal/platform/errors"
)

const imageField = "image"

type voteRequest struct {
	Type string `json:"type" form:"type"`
}

func (s *Server) registerMemeRoutes(writeLimiter echo.MiddlewareFunc) {
	s.echo.GET("/memes", s.handleListMemes)
	s.echo.GET("/memes/meme-of-the-day", s.handleMemeOfTheDay)
	s.echo.GET("/memes/:memeId", s.handleGetMeme)

	s.echo.POST("/memes", s.handleCreateMeme, s.requireAuth, writeLimiter)
	s.echo.PUT("/memes/:memeId", s.handleUpdateMeme, s.requireAuth, writeLimiter)
	s.echo.DELETE("/memes/:memeId", s.handleDeleteMeme, s.requireAuth, writeLimiter)
	s.echo.POST("/memes/:memeId/vote", s.handleVote, s.requireAuth, writeLimiter)
}

func (s *Server) handleListMemes(c echo.Context) error {
	query := c.QueryParams()
	params := app.MemeListParams{
		Page:          query.Get("page"),
		Limit:         query.Get("limit"),
		Title:         query.Get("title"),
		Tags:          query["tags"],
		Match:         query.Get("match"),
		SortedBy:      query.Get("sortedBy"),
		SortDirection: query.Get("sortDirection"),
	}

	page, err := s.app.ListMemes(c.Request().Context(), params)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toMemePageResponse(page)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetMeme(c echo.Context) error {
	memeID, err := pathUUID(c, "memeId")
	if err != nil {
		return err
	}

	detail, err := s.app.GetMeme(c.Request().Context(), memeID)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toMemeDetailResponse(detail)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleMemeOfTheDay(c echo.Context) error {
	detail, err := s.app.GetMemeOfTheDay(c.Request().Context())
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toMemeDetailResponse(detail)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateMeme(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}

	image, closer, err := readImage(c)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	form := c.Request().PostForm
	meme, err := s.app.CreateMeme(c.Request().Context(), userID, app.CreateMemeRequest{
		Title:       form.Get("title"),
		Description: form.Get("description"),
		Tags:        form["tags"],
		Image:       image,
	})
	if err != nil {
		return err
	}
	s.observeUpload(image)

	if err := c.JSON(http.StatusCreated, toMemeResponse(meme)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateMeme(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	memeID, err := pathUUID(c, "memeId")
	if err != nil {
		return err
	}

	image, closer, err := readImage(c)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	form := c.Request().PostForm
	req := app.UpdateMemeRequest{
		Title:       optionalField(form, "title"),
		Description: optionalField(form, "description"),
		Image:       image,
	}
	if tags, ok := form["tags"]; ok {
		req.Tags = &tags
	}

	meme, err := s.app.UpdateMeme(c.Request().Context(), userID, memeID, req)
	if err != nil {
		return err
	}
	s.observeUpload(image)

	if err := c.JSON(http.StatusOK, toMemeResponse(meme)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteMeme(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	memeID, err := pathUUID(c, "memeId")
	if err != nil {
		return err
	}

	if err := s.app.DeleteMeme(c.Request().Context(), userID, memeID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleVote(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	memeID, err := pathUUID(c, "memeId")
	if err != nil {
		return err
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	result, err := s.app.Vote(c.Request().Context(), userID, memeID, req.Type)
	if err != nil {
		return err
	}

	resp := voteResponse{Meme: toMemeResponse(result.Meme), Message: result.Message()}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// readImage returns the "image" part of a multipart body, or nil when the
// request carries none. It also parses the remaining form fields.
func readImage(c echo.Context) (*domain.Upload, io.Closer, error) {
	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, apperrors.ValidationError("invalid multipart body").WithCause(err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, apperrors.InternalError("failed to open uploaded image", err)
	}

	return &domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

func (s *Server) observeUpload(image *domain.Upload) {
	if image != nil && s.httpMetrics != nil {
		s.httpMetrics.UploadBytes.Observe(float64(image.Size))
	}
}

func optionalField(form url.Values, name string) *string {
	values, ok := form[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
