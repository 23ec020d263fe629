package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cultivos/apperr"
)

type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	requestIDKey ctxKey = "requestID"
)

const requestIDHeader = "X-Request-ID"

// withRequestID reuses the caller's X-Request-ID or assigns a new UUID.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// accessLog logs one line per request at info level.
func (a *App) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Info("%s %s %d %dB %s [%s]", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), requestID(r))
	})
}

// authMiddleware extracts and validates Bearer token and injects userID into context.
func (a *App) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok, err := a.bearerUser(r)
		if !ok {
			err = apperr.Unauthorized("missing bearer token")
		}
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth injects userID when a valid token is sent. A malformed or
// expired token is still rejected.
func (a *App) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok, err := a.bearerUser(r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if ok {
			r = r.WithContext(context.WithValue(r.Context(), userIDKey, uid))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *App) bearerUser(r *http.Request) (primitive.ObjectID, bool, error) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return primitive.NilObjectID, false, nil
	}
	uid, err := parseJWT(a.cfg.JWTSecret, strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		return primitive.NilObjectID, false, apperr.Unauthorized("invalid token")
	}
	return uid, true, nil
}

// userID returns the authenticated user, or NilObjectID when anonymous.
func userID(r *http.Request) primitive.ObjectID {
	val, ok := r.Context().Value(userIDKey).(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID
	}
	return val
}
