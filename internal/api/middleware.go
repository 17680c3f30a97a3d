// Package api wires the HTTP surface (spec §6, C10) onto the
// validate/compact/session/balance services: routing, structured request
// logging, CORS, and session authentication, grounded on
// cmd/xchainserver/server's router+middleware shape.
package api

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"smallocator/internal/apperr"
	"smallocator/internal/types"
)

type ctxKey int

const sessionCtxKey ctxKey = iota

// RequestLogger logs method/path/status for every request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": sw.status,
		}).Info("request handled")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// JSONHeaders sets Content-Type application/json for all responses.
func JSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// CORS reflects the configured origin (default "*"); the teacher has no
// CORS middleware of its own (an internal trusted-network admin API), so
// this is grounded directly on spec §6's CORS_ORIGIN environment variable
// rather than any example repo.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-session-id")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession resolves the x-session-id header via sessions.Verify and
// stashes the authenticated session in the request context. Its absence or
// invalidity is itself a SessionMissing/SessionInvalid/SessionExpired
// error (spec §6: "On absence or invalid: 401 {error}").
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("x-session-id")
		if id == "" {
			writeError(w, apperr.New(apperr.SessionMissing, "missing x-session-id header"))
			return
		}
		sess, err := s.Sessions.Verify(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionCtxKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(r *http.Request) *types.Session {
	sess, _ := r.Context().Value(sessionCtxKey).(*types.Session)
	return sess
}
