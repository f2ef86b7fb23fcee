package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/ariefcatur/go-chipstore/internal/auth"
	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logx.Info(r.Context(), logger, "http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// requireAuth rejects the request unless a resolves a principal, which is then put on the context.
func requireAuth(a auth.Authorizer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authorize(r)
			if err != nil {
				if errors.Is(err, auth.ErrForbidden) {
					writeError(w, r, logger, apperr.Forbidden("access denied"))
					return
				}
				writeError(w, r, logger, apperr.Unauthorized("authentication required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}
