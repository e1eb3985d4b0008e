package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const tokenHeader = "x-access-token"

// authedHandler receives the user resolved from the request token.
type authedHandler func(w http.ResponseWriter, r *http.Request, caller *User)

type ctxKey int

const requestInfoKey ctxKey = iota

// requestInfo is created by Logging and filled in further down the chain.
type requestInfo struct {
	caller *User
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	ri, _ := ctx.Value(requestInfoKey).(*requestInfo)
	return ri
}

// tokenRequired resolves the x-access-token header to a user before calling
// next. Every verification failure gets the same response; the kind is only
// logged.
func (a *App) tokenRequired(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(tokenHeader)
		if token == "" {
			writeError(w, http.StatusUnauthorized, codeTokenMissing, msgTokenMissing)
			return
		}

		publicID, err := a.Tokens.Verify(token, a.now())
		if err != nil {
			var te *TokenError
			if errors.As(err, &te) {
				a.log.WithField("reason", te.Kind.String()).Debug("token rejected")
			}
			writeError(w, http.StatusUnauthorized, codeTokenInvalid, msgTokenInvalid)
			return
		}

		caller, err := a.DB.GetUserByPublicID(r.Context(), publicID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				a.log.WithField("public_id", publicID).Debug("token subject no longer exists")
				writeError(w, http.StatusUnauthorized, codeTokenInvalid, msgTokenInvalid)
				return
			}
			a.log.WithError(err).Error("resolve token subject")
			writeError(w, http.StatusInternalServerError, codeInternal, msgInternal)
			return
		}

		if ri := requestInfoFrom(r.Context()); ri != nil {
			ri.caller = caller
		}
		next(w, r, caller)
	})
}

// requireAdmin rejects callers that are not admins.
func requireAdmin(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, caller *User) {
		if err := adminOnly(caller); err != nil {
			writeError(w, http.StatusForbidden, codeForbidden, msgForbidden)
			return
		}
		next(w, r, caller)
	}
}

// CORS middleware handles CORS headers
func (a *App) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			allowed := len(a.allowedOrigins) == 0
			for _, o := range a.allowedOrigins {
				if o == origin || o == "*" {
					allowed = true
					break
				}
			}
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Access-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Logging middleware logs requests
func (a *App) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		ri := &requestInfo{}

		next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), requestInfoKey, ri)))

		fields := logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.statusCode,
			"duration": time.Since(start).String(),
			"remote":   r.RemoteAddr,
		}
		if ri.caller != nil {
			fields["caller"] = ri.caller.PublicID
		}
		a.log.WithFields(fields).Info("request")
	})
}

// Recover turns a panicking handler into a 500.
func (a *App) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.log.WithFields(logrus.Fields{
					"panic": rec,
					"path":  r.URL.Path,
				}).Error("handler panicked")
				writeError(w, http.StatusInternalServerError, codeInternal, msgInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SecurityHeaders middleware adds security headers
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}
