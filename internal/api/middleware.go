package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

type ctxKey int

const userIDKey ctxKey = iota

// RequireUser returns middleware that validates an HS256 bearer token signed
// with secret and stores the caller's user id in the request context.
// The id is read from "sub", falling back to "_id" for older tokens, and
// must be a UUID.
func RequireUser(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(auth, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := parseUserID(strings.TrimSpace(raw), key)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

func parseUserID(raw string, key []byte) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}

	userID := cast.ToString(claims["sub"])
	if userID == "" {
		userID = cast.ToString(claims["_id"])
	}
	if userID == "" {
		return "", errors.New("token carries no user id")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", fmt.Errorf("user id %q is not a uuid: %w", userID, err)
	}
	return userID, nil
}

// UserID returns the authenticated caller's id, or "" outside RequireUser.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
