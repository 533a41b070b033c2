package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/memeboard/internal/platform/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func decodeHealth(t *testing.T, body []byte) healthResponse {
	t.Helper()
	var resp healthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestHandleLiveness(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	srv := newTestServer(t, &mockAppService{})
	err := srv.handleLiveness(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"status":"ok"`)
	assert.Contains(t, body, `"uptime"`)
	assert.Contains(t, body, `"version":"`+version.Version+`"`)
}

func TestHandleReadiness_AllHealthy(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	srv := newTestServer(t, &mockAppService{},
		withHealthChecks(
			HealthCheck{Name: "postgres", Check: healthOK},
			HealthCheck{Name: "uploads", Check: healthOK},
			HealthCheck{Name: "motd_cache", Check: healthOK, Optional: true},
		),
	)

	err := srv.handleReadiness(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeHealth(t, rec.Body.Bytes())
	assert.Equal(t, statusReady, resp.Status)
	require.Len(t, resp.Checks, 3)
	for name, res := range resp.Checks {
		assert.Equal(t, checkOK, res.Status, name)
		assert.Empty(t, res.Error, name)
	}
	assert.True(t, resp.Checks["motd_cache"].Optional)
}

func TestHandleReadiness_Statuses(t *testing.T) {
	tests := []struct {
		name       string
		checks     []HealthCheck
		wantCode   int
		wantStatus string
		wantFailed map[string]string
	}{
		{
			name: "database down",
			checks: []HealthCheck{
				{Name: "postgres", Check: healthErr("database unreachable")},
				{Name: "uploads", Check: healthOK},
				{Name: "motd_cache", Check: healthOK, Optional: true},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusUnhealthy,
			wantFailed: map[string]string{"postgres": "database unreachable"},
		},
		{
			name: "cache down only degrades",
			checks: []HealthCheck{
				{Name: "postgres", Check: healthOK},
				{Name: "uploads", Check: healthOK},
				{Name: "motd_cache", Check: healthErr("connection refused"), Optional: true},
			},
			wantCode:   http.StatusOK,
			wantStatus: statusDegraded,
			wantFailed: map[string]string{"motd_cache": "connection refused"},
		},
		{
			name: "every failure is reported",
			checks: []HealthCheck{
				{Name: "postgres", Check: healthOK},
				{Name: "uploads", Check: healthErr("read-only file system")},
				{Name: "motd_cache", Check: healthErr("connection refused"), Optional: true},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusUnhealthy,
			wantFailed: map[string]string{"uploads": "read-only file system", "motd_cache": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			srv := newTestServer(t, &mockAppService{}, withHealthChecks(tt.checks...))
			err := srv.handleReadiness(c)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, rec.Code)

			resp := decodeHealth(t, rec.Body.Bytes())
			assert.Equal(t, tt.wantStatus, resp.Status)
			require.Len(t, resp.Checks, len(tt.checks))
			for name, res := range resp.Checks {
				if msg, failed := tt.wantFailed[name]; failed {
					assert.Equal(t, checkFailed, res.Status, name)
					assert.Equal(t, msg, res.Error, name)
				} else {
					assert.Equal(t, checkOK, res.Status, name)
				}
			}
		})
	}
}

func TestHandleReadiness_ChecksRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	var entered sync.WaitGroup
	entered.Add(2)
	blocking := func(ctx context.Context) error {
		entered.Done()
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	go func() {
		entered.Wait()
		close(release)
	}()

	srv := newTestServer(t, &mockAppService{}, withHealthChecks(
		HealthCheck{Name: "postgres", Check: blocking},
		HealthCheck{Name: "uploads", Check: blocking},
	))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, statusReady, decodeHealth(t, rec.Body.Bytes()).Status)
}

func TestHandleStartup_NoChecks(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/health/startup", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{}}`, rec.Body.String())
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var info version.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, version.Service, info.Service)
	assert.NotEmpty(t, info.GoVersion)
}

func TestMetricsEndpoint_ExposesRequestSeries(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	serve(srv, httptest.NewRequest(http.MethodGet, "/memes", nil))
	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/memes"`)
}

func TestUploadsAreServedStatically(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	require.NoError(t, writeFile(srv.config.UploadDir, "1-cat.png", []byte("png-bytes")))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/uploads/1-cat.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}
