package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// HTTPMetricsMiddleware instruments requests with Prometheus metrics. It must
// wrap the ServeMux directly so the matched route pattern is available as the
// path label once the request has been served.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		ObserveHTTPRequest(r.Method, path, strconv.Itoa(ww.status), time.Since(start))
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

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
