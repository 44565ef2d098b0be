package middleware

import (
	"net/http"
	"time"

	"budgettracker/logging"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger stores a request-scoped entry in the context and logs each
// completed request at a level matching its status class.
func RequestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			entry := logger.WithFields(logrus.Fields{
				logging.FieldComponent: logging.ComponentHTTP,
				logging.FieldRequestID: chimiddleware.GetReqID(r.Context()),
				logging.FieldMethod:    r.Method,
				logging.FieldPath:      r.URL.Path,
			})
			r = r.WithContext(logging.WithContext(r.Context(), entry))

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			entry = entry.WithFields(logrus.Fields{
				logging.FieldStatusCode: status,
				logging.FieldDuration:   time.Since(start).Milliseconds(),
				logging.FieldClientIP:   r.RemoteAddr,
			})
			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("HTTP request completed")
			case status >= http.StatusBadRequest:
				entry.Warn("HTTP request completed")
			default:
				entry.Info("HTTP request completed")
			}
		})
	}
}
