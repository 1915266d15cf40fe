package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps the router with request logging and, when metrics are
// enabled, counter and latency recording keyed by the matched route pattern.
func instrument(next http.Handler, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		if metrics != nil {
			metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			metrics.durations.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		}
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": elapsed.String(),
		}).Info("handled request")
	})
}
