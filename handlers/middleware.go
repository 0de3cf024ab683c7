package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type contextKey string

const WorkspaceKey contextKey = "workspace"

// SessionCookie carries the workspace id.
const SessionCookie = "estimate_session"

// GetWorkspace extracts the session workspace from the request context.
func GetWorkspace(r *http.Request) *Workspace {
	if val, ok := r.Context().Value(WorkspaceKey).(*Workspace); ok {
		return val
	}
	return nil
}

// SessionMiddleware reads the session cookie, loads the workspace and
// stores it in the request context. An unknown or missing cookie starts a
// new workspace and replaces the cookie.
func SessionMiddleware(store *SessionStore, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ws *Workspace

			cookie, err := r.Cookie(SessionCookie)
			if err == nil && cookie.Value != "" {
				if found, ok := store.Get(cookie.Value); ok {
					ws = found
				} else {
					log.Debug("session not found, starting a new one", "session", cookie.Value)
				}
			}

			if ws == nil {
				ws = store.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    ws.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), WorkspaceKey, ws)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
