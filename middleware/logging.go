package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"propmarket-go/metrics"
	"propmarket-go/utils"
)

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := metrics.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		entry := utils.Logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.Status,
			"duration": time.Since(start).String(),
			"ip":       ClientIP(r),
		})
		switch {
		case rec.Status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case rec.Status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	})
}
