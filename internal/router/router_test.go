package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anonto42/follow-graph/backend/internal/repositories"
	"github.com/anonto42/follow-graph/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestSetupRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := echo.New()
	SetupMiddleware(e, logger)
	SetupRoutes(e, repositories.NewMemoryUserRepository(), "memory", services.Options{}, logger)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/follow", `{"follower_id":"a","followee_id":"b"}`, http.StatusOK},
		{http.MethodPost, "/unfollow", `{"follower_id":"a","followee_id":"b"}`, http.StatusOK},
		{http.MethodPost, "/followers", `{"user_id":"b"}`, http.StatusOK},
		{http.MethodPost, "/common_followers", `{"user1_id":"a","user2_id":"b"}`, http.StatusOK},
		{http.MethodGet, "/users", "", http.StatusOK},
		{http.MethodPost, "/follow", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "%s %s: %s", tt.method, tt.path, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	}
}
