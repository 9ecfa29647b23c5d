package handlers

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/internal/services"
)

func discardSyncLogger() *logger.SyncLogger {
	return logger.NewSyncLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupHealthTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// GORM pings during initialization
	mock.ExpectPing()

	dialector := postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func healthTestContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealthHandler_Health_ReturnsHealthyWhenAllUp(t *testing.T) {
	gormDB, mock, cleanup := setupHealthTestDB(t)
	defer cleanup()

	// Expect ping to succeed during health check
	mock.ExpectPing()

	store := repository.NewStore(gormDB, discardSyncLogger())
	handler := NewHealthHandler(gormDB, store, nil)

	c, rec := healthTestContext("/health")
	require.NoError(t, handler.Health(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"store":"healthy"`)
}

func TestHealthHandler_Health_StaysOKWhenDatabaseDown(t *testing.T) {
	gormDB, mock, cleanup := setupHealthTestDB(t)
	defer cleanup()

	// Expect ping to fail during health check
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	store := repository.NewStore(gormDB, discardSyncLogger())
	handler := NewHealthHandler(gormDB, store, nil)

	c, rec := healthTestContext("/health")
	require.NoError(t, handler.Health(c))

	// Liveness stays green; the body carries the degradation
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"database":"unhealthy"`)
}

func TestHealthHandler_Health_ReportsDegradedStoreWithoutDatabase(t *testing.T) {
	store := repository.NewStore(nil, discardSyncLogger())
	handler := NewHealthHandler(nil, store, nil)

	c, rec := healthTestContext("/health")
	require.NoError(t, handler.Health(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"database":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"store":"degraded"`)
}

func TestHealthHandler_Health_ReportsSchedulerState(t *testing.T) {
	gormDB, mock, cleanup := setupHealthTestDB(t)
	defer cleanup()

	store := repository.NewStore(gormDB, discardSyncLogger())

	t.Run("nil scheduler reports disabled", func(t *testing.T) {
		mock.ExpectPing()
		handler := NewHealthHandler(gormDB, store, nil)

		c, rec := healthTestContext("/health")
		require.NoError(t, handler.Health(c))
		assert.Contains(t, rec.Body.String(), `"scheduler":"disabled"`)
	})

	t.Run("constructed scheduler reports stopped until started", func(t *testing.T) {
		mock.ExpectPing()
		scheduler := services.NewSyncScheduler(nil, store, services.SyncSchedulerConfig{OwnerID: "me@example.com"}, discardSyncLogger())
		handler := NewHealthHandler(gormDB, store, scheduler)

		c, rec := healthTestContext("/health")
		require.NoError(t, handler.Health(c))
		assert.Contains(t, rec.Body.String(), `"scheduler":"stopped"`)
	})
}

func TestHealthHandler_Ready_ReturnsOKWhenReady(t *testing.T) {
	gormDB, mock, cleanup := setupHealthTestDB(t)
	defer cleanup()

	// Expect ping to succeed during ready check
	mock.ExpectPing()

	store := repository.NewStore(gormDB, discardSyncLogger())
	handler := NewHealthHandler(gormDB, store, nil)

	c, rec := healthTestContext("/ready")
	require.NoError(t, handler.Ready(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestHealthHandler_Ready_Returns503WhenDatabaseUnreachable(t *testing.T) {
	gormDB, mock, cleanup := setupHealthTestDB(t)
	defer cleanup()

	// Expect ping to fail during ready check
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	store := repository.NewStore(gormDB, discardSyncLogger())
	handler := NewHealthHandler(gormDB, store, nil)

	c, rec := healthTestContext("/ready")
	require.NoError(t, handler.Ready(c))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"database unreachable"`)
}

func TestHealthHandler_Ready_Returns503WhenStoreDegraded(t *testing.T) {
	gormDB, mock, cleanup := setupHealthTestDB(t)
	defer cleanup()

	// Database pings fine, but the store was constructed without it
	mock.ExpectPing()

	store := repository.NewStore(nil, discardSyncLogger())
	handler := NewHealthHandler(gormDB, store, nil)

	c, rec := healthTestContext("/ready")
	require.NoError(t, handler.Ready(c))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"store degraded"`)
}
