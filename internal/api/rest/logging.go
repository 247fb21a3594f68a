package rest

import (
	"net/http"
	"time"

	zlog "github.com/rs/zerolog/log"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLogger logs one line per request at debug level, skipping health checks.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		zlog.Debug().Msgf("http request: method=%s path=%s status=%d duration_ms=%d remote=%s",
			r.Method, r.URL.Path, recorder.statusCode, time.Since(start).Milliseconds(), r.RemoteAddr)
	})
}
