package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"shortlify/internal/config"
	"shortlify/internal/repository"
	"shortlify/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	h      *Handler
	router *gin.Engine
	store  repository.LinkStore
	db     *gorm.DB
}

func setupTestHandler(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	url := "sqlite://" + filepath.Join(t.TempDir(), "handlers.db")
	db, err := repository.InitDB(url)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db, url, ""))

	store := repository.NewGormStore(db)
	t.Cleanup(func() { store.Close() })

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://sho.rt"
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	links := services.NewLinkService(store, services.NewAllocator(store, 6, 5), nil, nil, logger)
	links.RequireOwnerOnDelete(cfg.DeleteNeedsOwner)
	resolver := services.NewResolverService(store, nil, services.NewGeoIPService(cfg, logger), logger)
	analytics := services.NewAnalyticsService(store)
	auth := services.NewAuthService(db, "test-secret", time.Hour, nil, logger)

	h := NewHandler(cfg, logger, links, resolver, analytics, auth, services.NewQRService())
	return &testEnv{
		h:      h,
		router: h.SetupRouter(nil),
		store:  store,
		db:     db,
	}
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates a user and returns its token.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	w := e.do("POST", "/api/auth/register", map[string]string{
		"name":     "Tester",
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (e *testEnv) shorten(t *testing.T, token string, body map[string]interface{}) string {
	t.Helper()
	w := e.do("POST", "/api/shorten", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ShortID string `json:"shortId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ShortID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
