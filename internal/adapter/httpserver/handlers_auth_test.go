package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/pscheid92/memeboard/internal/domain"
	apperrors "github.com/pscheid92/memeboard/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp_Created(t *testing.T) {
	var gotUser, gotPass string
	userID := uuid.New()
	srv := newTestServer(t, &mockAppService{
		signUpFn: func(_ context.Context, username, password string) (*domain.User, error) {
			gotUser, gotPass = username, password
			return &domain.User{ID: userID, Username: username, PasswordHash: "secret-hash", CreatedAt: testNow}, nil
		},
	})

	rec := serve(srv, jsonRequest(http.MethodPost, "/auth/signup", `{"username":"alice","password":"hunter22"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "hunter22", gotPass)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%q,"userName":"alice","createdAt":"2026-03-14T09:26:53Z"}`, userID), rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestSignUp_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   apperrors.ErrorType
	}{
		{"duplicate username", domain.ErrUsernameTaken, http.StatusConflict, apperrors.TypeConflict},
		{"invalid input", fmt.Errorf("%w: password must be 6 to 72 bytes", domain.ErrInvalidInput), http.StatusBadRequest, apperrors.TypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{
				signUpFn: func(context.Context, string, string) (*domain.User, error) { return nil, tt.err },
			})

			rec := serve(srv, jsonRequest(http.MethodPost, "/auth/signup", `{"username":"alice","password":"x"}`))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Type)
		})
	}
}

func TestSignUp_MalformedBody(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := serve(srv, jsonRequest(http.MethodPost, "/auth/signup", `{"username":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestLogin_ReturnsToken(t *testing.T) {
	userID := uuid.New()
	srv := newTestServer(t, &mockAppService{
		loginFn: func(_ context.Context, username, _ string) (string, *domain.User, error) {
			return "signed.jwt.token", &domain.User{ID: userID, Username: username, CreatedAt: testNow}, nil
		},
	})

	rec := serve(srv, jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice","password":"hunter22"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "signed.jwt.token", resp.Token)
	assert.Equal(t, userID.String(), resp.User.ID)
	assert.Equal(t, "alice", resp.User.UserName)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := newTestServer(t, &mockAppService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	})

	rec := serve(srv, jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid username or password", resp.Error)
	assert.Equal(t, apperrors.TypeUnauthorized, resp.Type)
}

func TestLogin_AcceptsFormEncoding(t *testing.T) {
	var gotUser string
	srv := newTestServer(t, &mockAppService{
		loginFn: func(_ context.Context, username, _ string) (string, *domain.User, error) {
			gotUser = username
			return "tok", &domain.User{ID: uuid.New(), Username: username}, nil
		},
	})

	req := multipartRequest(t, http.MethodPost, "/auth/login", [][2]string{{"username", "bob"}, {"password", "pw1234"}}, nil)
	rec := serve(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", gotUser)
}
