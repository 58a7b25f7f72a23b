package bootstrap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/go-accounts-backend/config"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/auth"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/directory"
)

const seedYAML = `
users:
  - id: guy1
    access_key: acc1
    secret_key: fortytwo!
  - id: guy2
    access_key: acc2
    secret_key: swordfish
    admin: true
projects:
  - id: test1
    manager: guy1
  - id: test2
    manager: guy2
    description: second account
`

func writeSeed(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	return path
}

func seededDirectory(t *testing.T) *directory.Memory {
	seed, err := LoadSeed(writeSeed(t))
	require.NoError(t, err)

	dir := directory.NewMemory()
	require.NoError(t, seed.Apply(context.Background(), dir, zap.NewNop()))
	return dir
}

func TestSeed_Apply(t *testing.T) {
	ctx := context.Background()
	seed, err := LoadSeed(writeSeed(t))
	require.NoError(t, err)

	dir := directory.NewMemory()
	require.NoError(t, seed.Apply(ctx, dir, zap.NewNop()))
	require.NoError(t, seed.Apply(ctx, dir, zap.NewNop()), "second apply is a no-op")

	u, err := dir.LookupUser(ctx, "guy2")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, "swordfish", u.SecretKey)

	p, err := dir.GetProject(ctx, "test2")
	require.NoError(t, err)
	assert.Equal(t, "second account", p.Description)

	all, err := dir.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeed_Errors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := &Seed{Projects: []SeedProject{{ID: "orphan", Manager: "ghost"}}}
	err = bad.Apply(context.Background(), directory.NewMemory(), zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrBadManager)
}

func TestOpenDirectory(t *testing.T) {
	dir, closeFn, err := OpenDirectory(context.Background(), &config.Config{
		Directory: config.DirectoryConfig{Backend: config.BackendMemory},
	})
	require.NoError(t, err)
	assert.IsType(t, &directory.Memory{}, dir)
	assert.NoError(t, closeFn())

	_, _, err = OpenDirectory(context.Background(), &config.Config{
		Directory: config.DirectoryConfig{Backend: "etcd"},
	})
	assert.Error(t, err)
}

func TestBuildRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := seededDirectory(t)
	router := BuildRouter(RouterDeps{
		ServiceName:    "accounts",
		Version:        "test",
		AllowedOrigins: []string{"*"},
		Directory:      dir,
		Guard:          auth.NewAdminGuard(dir, true),
		Logger:         zap.NewNop(),
	})

	t.Run("health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	})

	t.Run("admin get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1.0/accounts/test1", nil)
		req.Header.Set(auth.HeaderAuthUser, "guy2")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"account":{"id":"test1","name":"test1","description":"","manager":"guy1"}}`, rr.Body.String())
	})

	t.Run("non-admin put", func(t *testing.T) {
		body := bytes.NewBufferString(`{"account":{"manager":"guy1"}}`)
		req := httptest.NewRequest(http.MethodPut, "/v1.0/accounts/newacct", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(auth.HeaderAuthUser, "guy1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1.0/accounts/test1", nil)
		req.Header.Set("Origin", "https://console.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"https://a.example", "*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowOrigins)
}

func TestSetGinMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	SetGinMode("production")
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}
