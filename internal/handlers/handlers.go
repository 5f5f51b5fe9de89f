// Package handlers exposes the kanban service over HTTP and websockets.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/go-kanban/internal/kanban"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20 // 1MB
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	Service     *kanban.Service
	JWT         JWTConfig
	RateLimiter *RateLimiter
	WSHub       *WSHub
	DB          Pinger

	// AllowedOrigins limits websocket origins. Empty allows any origin.
	AllowedOrigins []string
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}

// sendError writes a JSON error whose code is derived from status.
func sendError(w http.ResponseWriter, message string, status int) {
	code := strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
	writeError(w, status, code, message)
}

// sendServiceError maps a service error to its status. Errors without a kind
// are logged and reported as 500 without their text.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var kerr *kanban.Error
	if !errors.As(err, &kerr) {
		status, msg := http.StatusInternalServerError, "Internal server error"
		if errors.Is(err, context.DeadlineExceeded) {
			status, msg = http.StatusGatewayTimeout, "Request timed out"
		}
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, status, "internal", msg)
		return
	}
	status := http.StatusInternalServerError
	switch kerr.Kind {
	case kanban.KindValidation:
		status = http.StatusBadRequest
	case kanban.KindNotFound:
		status = http.StatusNotFound
	case kanban.KindForbidden:
		status = http.StatusForbidden
	case kanban.KindConflict, kanban.KindInvalidState:
		status = http.StatusConflict
	}
	writeError(w, status, kerr.Kind.String(), kerr.Message)
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(ct), "application/json")
}

// decodeJSON reads a JSON body into dst and writes the error response itself
// when it returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the named path value as a UUID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		sendError(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// caller returns the authenticated user and a context bounded by the request
// timeout.
func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, context.Context, context.CancelFunc, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, nil, nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	return userID, ctx, cancel, true
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			log.WithError(err).Warn("health check failed")
			sendError(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
