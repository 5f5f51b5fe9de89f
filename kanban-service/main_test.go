package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chepyr/go-kanban/internal/config"
	"github.com/chepyr/go-kanban/internal/dbtest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super_secret_for_tests_0123456789"

func keepLogger(t *testing.T) {
	level, formatter := log.GetLevel(), log.StandardLogger().Formatter
	t.Cleanup(func() {
		log.SetLevel(level)
		log.SetFormatter(formatter)
	})
}

func TestSetupLogging(t *testing.T) {
	keepLogger(t)
	tests := []struct {
		name    string
		cfg     config.Config
		level   log.Level
		json    bool
		wantErr bool
	}{
		{"defaults", config.Config{LogLevel: "info", LogFormat: "text"}, log.InfoLevel, false, false},
		{"debug json", config.Config{LogLevel: "debug", LogFormat: "json"}, log.DebugLevel, true, false},
		{"bad level", config.Config{LogLevel: "loud", LogFormat: "text"}, 0, false, true},
		{"bad format", config.Config{LogLevel: "warn", LogFormat: "xml"}, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := setupLogging(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, log.GetLevel())
			_, isJSON := log.StandardLogger().Formatter.(*log.JSONFormatter)
			assert.Equal(t, tt.json, isJSON)
		})
	}
}

func sqliteEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "kanban.db")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:"+path+"?_foreign_keys=on")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("WS_RATE_LIMIT", "5")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "text")
	return path
}

func TestMigrateCommand(t *testing.T) {
	keepLogger(t)
	path := sqliteEnv(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "schema is up to date")

	dbx, err := sqlx.Open("sqlite3", path)
	require.NoError(t, err)
	defer dbx.Close()
	for _, table := range []string{"users", "boards", "board_users", "columns", "cards"} {
		var n int
		assert.NoError(t, dbx.Get(&n, "SELECT COUNT(*) FROM "+table), table)
	}

	// running again is harmless
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.Execute())
}

func TestMigrateCommand_InvalidConfig(t *testing.T) {
	keepLogger(t)
	sqliteEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "short")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestInitHandlers(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Config{
		JWTSecret:    testSecret,
		RedisURL:     "redis://" + mr.Addr(),
		RedisChannel: "kanban:events",
		WSRateLimit:  5,
	}
	h, closeHandlers, err := initHandlers(ctx, cfg, dbtest.Open(t))
	require.NoError(t, err)
	defer closeHandlers()

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// the relay subscribes in the background
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("kanban:events")["kanban:events"] == 1
	}, time.Second, 10*time.Millisecond)

	cfg.RedisURL = "not a url"
	_, _, err = initHandlers(ctx, cfg, dbtest.Open(t))
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestStartServer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := initServer(config.Config{Port: "0"}, http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- startServer(ctx, server) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownClosesWebsockets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, closeHandlers, err := initHandlers(ctx, config.Config{JWTSecret: testSecret, WSRateLimit: 5}, dbtest.Open(t))
	require.NoError(t, err)
	defer closeHandlers()

	srv := httptest.NewServer(h.Routes())
	defer srv.Close()
	srv.Config.RegisterOnShutdown(h.WSHub.CloseAll)

	owner := uuid.New()
	board, err := h.Service.CreateBoard(ctx, owner, "Board A")
	require.NoError(t, err)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": owner.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	q := url.Values{"board_id": {board.ID.String()}, "token": {token}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/kanban/ws?"+q.Encode(), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.WSHub.Subscribers(board.ID) == 1 }, time.Second, 10*time.Millisecond)

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	require.NoError(t, srv.Config.Shutdown(shutdownCtx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
