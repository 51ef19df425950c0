package container

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/server"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.App.LogLevel = "error"
	return cfg
}

func TestModule_StartsAndStops(t *testing.T) {
	var (
		srv     *server.Server
		service inbound.RecipeService
	)
	app := fxtest.New(t,
		Module(testConfig(t), ""),
		fx.Populate(&srv, &service),
	)

	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, srv)
	require.NotNil(t, service)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipegen_recipes_stored 0")
}

func TestModule_RateLimiterIsOptional(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Enable = true

	err := fx.ValidateApp(Module(cfg, ""))

	assert.NoError(t, err)
}

func TestLoadTaxonomy(t *testing.T) {
	t.Run("built in", func(t *testing.T) {
		taxonomy, err := LoadTaxonomy(config.RecipesConfig{})

		require.NoError(t, err)
		assert.True(t, taxonomy.HasCategory("Breakfast"))
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taxonomy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("Soups:\n  - General\n  - Cold\n"), 0o644))

		taxonomy, err := LoadTaxonomy(config.RecipesConfig{TaxonomyFile: path})

		require.NoError(t, err)
		assert.True(t, taxonomy.HasCategory("Soups"))
		assert.False(t, taxonomy.HasCategory("Breakfast"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTaxonomy(config.RecipesConfig{TaxonomyFile: filepath.Join(t.TempDir(), "nope.yaml")})

		assert.Error(t, err)
	})
}
