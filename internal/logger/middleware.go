package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware logs one line per HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		Info(r.Context(), "http request",
			String("method", r.Method),
			String("path", r.URL.Path),
			Int("status", status),
			Int("bytes", ww.BytesWritten()),
			Duration("elapsed", time.Since(start)),
		)
	})
}
