package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTConfig describes the tokens the auth service issues. Issuer and
// Audience are only checked when set.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
}

type ctxKey int

const userIDKey ctxKey = iota

// ContextWithUserID returns a copy of ctx carrying the authenticated user.
func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

/*
Verify the HS256 token from the Authorization header, require exp and a
UUID sub, and put the user id into the request context
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return h.authenticate(next, false)
}

// StreamAuthMiddleware also accepts the token in the "token" query parameter,
// since browsers cannot set headers on websocket requests.
func (h *Handler) StreamAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return h.authenticate(next, true)
}

func (h *Handler) authenticate(next http.HandlerFunc, allowQuery bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" && allowQuery {
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			sendError(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		userID, err := h.JWT.verify(tokenString)
		if err != nil {
			sendError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		if info := requestInfoFrom(r.Context()); info != nil {
			info.userID = userID
		}
		next(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

func (c JWTConfig) verify(tokenString string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}
	if c.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.Audience))
	}
	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) {
		return c.Secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}
