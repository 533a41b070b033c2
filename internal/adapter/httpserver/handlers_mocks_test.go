package httpserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/memeboard/internal/adapter/metrics"
	"github.com/pscheid92/memeboard/internal/app"
	"github.com/pscheid92/memeboard/internal/domain"
	"github.com/pscheid92/memeboard/internal/engagement"
	"github.com/pscheid92/memeboard/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAppService struct {
	signUpFn          func(ctx context.Context, username, password string) (*domain.User, error)
	loginFn           func(ctx context.Context, username, password string) (string, *domain.User, error)
	authenticateFn    func(ctx context.Context, token string) (uuid.UUID, error)
	listMemesFn       func(ctx context.Context, params app.MemeListParams) (*domain.MemePage, error)
	getMemeFn         func(ctx context.Context, memeID uuid.UUID) (*domain.MemeDetail, error)
	getMemeOfTheDayFn func(ctx context.Context) (*domain.MemeDetail, error)
	createMemeFn      func(ctx context.Context, actorID uuid.UUID, req app.CreateMemeRequest) (*domain.Meme, error)
	updateMemeFn      func(ctx context.Context, actorID, memeID uuid.UUID, req app.UpdateMemeRequest) (*domain.Meme, error)
	deleteMemeFn      func(ctx context.Context, actorID, memeID uuid.UUID) error
	voteFn            func(ctx context.Context, actorID, memeID uuid.UUID, rawType string) (*engagement.VoteResult, error)
	listCommentsFn    func(ctx context.Context, memeID uuid.UUID) ([]domain.Comment, error)
	createCommentFn   func(ctx context.Context, actorID, memeID uuid.UUID, content string) (*domain.Comment, error)
	updateCommentFn   func(ctx context.Context, actorID, memeID, commentID uuid.UUID, content string) (*domain.Comment, error)
	deleteCommentFn   func(ctx context.Context, actorID, memeID, commentID uuid.UUID) error
}

var errNotImplemented = errors.New("not implemented")

func (m *mockAppService) SignUp(ctx context.Context, username, password string) (*domain.User, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, username, password)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return "", nil, errNotImplemented
}

// Authenticate treats the bearer token as the user id unless overridden.
func (m *mockAppService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	id, err := uuid.Parse(token)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}

func (m *mockAppService) ListMemes(ctx context.Context, params app.MemeListParams) (*domain.MemePage, error) {
	if m.listMemesFn != nil {
		return m.listMemesFn(ctx, params)
	}
	return &domain.MemePage{}, nil
}

func (m *mockAppService) GetMeme(ctx context.Context, memeID uuid.UUID) (*domain.MemeDetail, error) {
	if m.getMemeFn != nil {
		return m.getMemeFn(ctx, memeID)
	}
	return nil, domain.ErrMemeNotFound
}

func (m *mockAppService) GetMemeOfTheDay(ctx context.Context) (*domain.MemeDetail, error) {
	if m.getMemeOfTheDayFn != nil {
		return m.getMemeOfTheDayFn(ctx)
	}
	return nil, domain.ErrNoMemesAvailable
}

func (m *mockAppService) CreateMeme(ctx context.Context, actorID uuid.UUID, req app.CreateMemeRequest) (*domain.Meme, error) {
	if m.createMemeFn != nil {
		return m.createMemeFn(ctx, actorID, req)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) UpdateMeme(ctx context.Context, actorID, memeID uuid.UUID, req app.UpdateMemeRequest) (*domain.Meme, error) {
	if m.updateMemeFn != nil {
		return m.updateMemeFn(ctx, actorID, memeID, req)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) DeleteMeme(ctx context.Context, actorID, memeID uuid.UUID) error {
	if m.deleteMemeFn != nil {
		return m.deleteMemeFn(ctx, actorID, memeID)
	}
	return nil
}

func (m *mockAppService) Vote(ctx context.Context, actorID, memeID uuid.UUID, rawType string) (*engagement.VoteResult, error) {
	if m.voteFn != nil {
		return m.voteFn(ctx, actorID, memeID, rawType)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) ListComments(ctx context.Context, memeID uuid.UUID) ([]domain.Comment, error) {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, memeID)
	}
	return nil, nil
}

func (m *mockAppService) CreateComment(ctx context.Context, actorID, memeID uuid.UUID, content string) (*domain.Comment, error) {
	if m.createCommentFn != nil {
		return m.createCommentFn(ctx, actorID, memeID, content)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) UpdateComment(ctx context.Context, actorID, memeID, commentID uuid.UUID, content string) (*domain.Comment, error) {
	if m.updateCommentFn != nil {
		return m.updateCommentFn(ctx, actorID, memeID, commentID, content)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) DeleteComment(ctx context.Context, actorID, memeID, commentID uuid.UUID) error {
	if m.deleteCommentFn != nil {
		return m.deleteCommentFn(ctx, actorID, memeID, commentID)
	}
	return nil
}

// --- Test helpers ---

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	e := echo.New()
	reg := prometheus.NewRegistry()

	srv := &Server{
		echo: e,
		config: &config.Config{
			Port:             "0",
			UploadDir:        t.TempDir(),
			UploadURLPrefix:  "/uploads",
			MaxUploadBytes:   1 << 20,
			CORSAllowOrigins: []string{"*"},
		},
		app:            app,
		httpMetrics:    metrics.NewHTTPMetrics(reg),
		metricsHandler: metrics.Handler(reg),
		startTime:      time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

// serve runs req through the full router and middleware stack.
func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func bearer(req *http.Request, userID uuid.UUID) *http.Request {
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+userID.String())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

type imagePart struct {
	filename    string
	contentType string
	data        []byte
}

// multipartRequest builds a multipart body; repeated keys are sent as repeated fields.
func multipartRequest(t *testing.T, method, target string, fields [][2]string, image *imagePart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range fields {
		require.NoError(t, w.WriteField(f[0], f[1]))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+image.filename+`"`)
		h.Set("Content-Type", image.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func writeFile(dir, name string, data []byte) error {
	return os.WriteFile(filepath.Join(dir, name), data, 0o600)
}

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}

func testMeme(owner domain.Owner) *domain.Meme {
	return &domain.Meme{
		ID:            uuid.New(),
		Owner:         owner,
		Title:         "Distracted boyfriend",
		Description:   "classic",
		ImageURL:      "/uploads/1-boyfriend.png",
		Tags:          []string{"classic", "relationships"},
		Upvotes:       3,
		Downvotes:     1,
		CommentsCount: 1,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}

func testComment(memeID uuid.UUID, owner domain.Owner) domain.Comment {
	return domain.Comment{
		ID:        uuid.New(),
		MemeID:    memeID,
		Owner:     owner,
		Content:   "lol",
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}
