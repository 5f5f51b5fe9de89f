package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chepyr/go-kanban/internal/db"
	"github.com/chepyr/go-kanban/internal/dbtest"
	"github.com/chepyr/go-kanban/internal/kanban"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const testSecret = "super_secret_for_tests_0123456789"

type testEnv struct {
	h       *Handler
	svc     *kanban.Service
	dbx     *sqlx.DB
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dbx := dbtest.Open(t)
	hub := NewWSHub()
	limiter := NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)
	svc := kanban.NewService(db.NewStore(dbx), hub)
	h := &Handler{
		Service:     svc,
		JWT:         JWTConfig{Secret: []byte(testSecret)},
		RateLimiter: limiter,
		WSHub:       hub,
		DB:          dbx,
	}
	return &testEnv{h: h, svc: svc, dbx: dbx, handler: h.Routes()}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	return signToken(t, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
}

func ctxWithUser(id uuid.UUID, r *http.Request) *http.Request {
	return r.WithContext(ContextWithUserID(r.Context(), id))
}

// do sends a JSON request through the full router as userID. A nil body
// sends no body.
func (e *testEnv) do(t *testing.T, userID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) createBoard(t *testing.T, owner uuid.UUID) uuid.UUID {
	t.Helper()
	b, err := e.svc.CreateBoard(context.Background(), owner, "Board A")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	return b.ID
}
