package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"kahawa/internal/config"
	"kahawa/internal/models"
	"kahawa/internal/repositories"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:        ":8081",
		DatabaseDriver: "sqlite",
		DatabaseDSN:    "file::memory:?cache=shared",
		JWTSecret:      "test_jwt_secret",
		TokenLifetime:  time.Hour,
	}
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestBuildApp(t *testing.T) {
	cfg := testConfig()
	db, err := openDatabase(cfg)
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.InventoryItem{}, &models.Order{}, &models.OrderItem{}))

	app := buildApp(cfg, db, nil)

	// Health check is public.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Everything under the API requires authentication.
	for _, path := range []string{"/api/v1/inventory", "/api/v1/orders", "/api/v1/auth/employees"} {
		method := http.MethodGet
		if path == "/api/v1/auth/employees" {
			method = http.MethodPost
		}
		resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
		resp.Body.Close()
	}
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseDriver = "oracle"
	_, err := openDatabase(cfg)
	assert.Error(t, err)
}

func TestSeedInventory(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seedtest?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.InventoryItem{}))

	repo := repositories.NewGORMInventoryRepository(db)
	seedInventory(repo)

	items, err := repo.GetAll()
	assert.NoError(t, err)
	assert.NotEmpty(t, items)

	// Seeding is idempotent; a second run adds nothing.
	seedInventory(repo)
	again, err := repo.GetAll()
	assert.NoError(t, err)
	assert.Len(t, again, len(items))
}
