package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	l "github.com/oexza/adminfront/logging"
)

// RequestLogger logs every request with its status and how long it took.
func RequestLogger(logger l.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			if status >= http.StatusInternalServerError {
				logger.Warnf("%s %s -> %d in %v [%s]", r.Method, r.URL.Path, status, elapsed, middleware.GetReqID(r.Context()))
				return
			}
			logger.Debugf("%s %s -> %d in %v [%s]", r.Method, r.URL.Path, status, elapsed, middleware.GetReqID(r.Context()))
		})
	}
}
