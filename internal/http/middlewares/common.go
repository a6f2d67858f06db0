package middlewares

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/packlane/authd/internal/observability/logger"
)

// NoStore forces the cache headers every token-bearing response needs.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request through the shared zap logger
// and injects a request-scoped logger into the context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := chimw.GetReqID(r.Context())

		log := logger.L().With(logger.RequestID(reqID))
		r = r.WithContext(logger.ToContext(r.Context(), log))

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info("http request",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
