package bootstrap

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/checkqueue/config"
	"github.com/target/checkqueue/internal/data"
)

func TestValidateServiceConfig(t *testing.T) {
	tests := []struct {
		name     string
		services string
		wantErr  bool
	}{
		{name: "defaults", services: "http,sweeper"},
		{name: "http only", services: "http"},
		{name: "unknown", services: "http,rules-engine", wantErr: true},
		{name: "empty", services: "", wantErr: true},
		{name: "only commas", services: " , ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceConfig(&config.AppConfig{Services: tt.services})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
	assert.Error(t, ValidateServiceConfig(nil))
}

func TestGetEnabledServices(t *testing.T) {
	assert.Equal(t, []string{"http", "sweeper"}, GetEnabledServices(&config.AppConfig{Services: "sweeper, http"}))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Empty(t, GetEnabledServices(nil))
}

func TestApplyLogLevel(t *testing.T) {
	InitLogger()
	t.Cleanup(func() { logLevel.Set(slog.LevelInfo) })

	require.NoError(t, ApplyLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelDebug, logLevel.Level())
	require.NoError(t, ApplyLogLevel("warning"))
	assert.Equal(t, slog.LevelWarn, logLevel.Level())
	require.NoError(t, ApplyLogLevel(""))
	assert.Equal(t, slog.LevelInfo, logLevel.Level())
	assert.Error(t, ApplyLogLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, logLevel.Level())
}

func testAppConfig(t *testing.T, services string) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{Services: services}
	cfg.Courses.Dir = t.TempDir()
	cfg.Courses.Watch = true
	cfg.Sanitize()
	return cfg
}

// sql.Open does not connect, so the wiring can be checked without a database.
func lazyDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", "postgres://u:p@127.0.0.1:1/none?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewServices_RequiresDependencies(t *testing.T) {
	_, err := NewServices(nil)
	require.Error(t, err)
	_, err = NewServices(&ServiceDeps{Config: testAppConfig(t, "http")})
	require.Error(t, err)
}

func TestNewServices_WithoutRedis(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testAppConfig(t, "http,sweeper")

	svcs, err := NewServices(&ServiceDeps{Config: cfg, DB: lazyDB(t), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })

	assert.NotNil(t, svcs.Queue)
	assert.NotNil(t, svcs.Tracker)
	assert.Nil(t, svcs.HandledBus)
	assert.Nil(t, svcs.Metrics)

	bg, err := buildBackgroundServices(&ServiceOrchestrationConfig{Config: cfg, Services: svcs, Logger: logger}, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"http", "sweeper", "course-watcher"}, serviceNames(bg))
}

func TestNewServices_WithRedis(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testAppConfig(t, "sweeper")
	cfg.Courses.Watch = false
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	svcs, err := NewServices(&ServiceDeps{Config: cfg, DB: lazyDB(t), RedisClient: client, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })
	require.NotNil(t, svcs.HandledBus)

	bg, err := buildBackgroundServices(&ServiceOrchestrationConfig{Config: cfg, Services: svcs, Logger: logger}, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"sweeper", "handled-bus"}, serviceNames(bg))
}

func TestBuildTextStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := lazyDB(t)
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	assert.IsType(t, &data.TextRepo{}, buildTextStore(db, nil, config.TextCacheConfig{Enabled: true}, logger))
	assert.IsType(t, &data.TextRepo{}, buildTextStore(db, client, config.TextCacheConfig{Enabled: false}, logger))
	assert.IsType(t, &data.RedisTextCache{}, buildTextStore(db, client, config.TextCacheConfig{Enabled: true}, logger))
}

func serviceNames(svcs []backgroundService) []string {
	names := make([]string, 0, len(svcs))
	for _, s := range svcs {
		names = append(names, s.name)
	}
	return names
}
