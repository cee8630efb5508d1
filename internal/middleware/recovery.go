package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/fitlog/internal/telemetry/metrics"
	"github.com/2beens/fitlog/pkg"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery answers 500 instead of dropping the connection when a fitlog handler panics.
// The panic is logged with its stack and the request id, so it can be matched to the access log.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					// the server handles this one itself and stays quiet about it
					panic(recovered)
				}

				log.WithFields(log.Fields{
					"request_id": RequestID(r.Context()),
					"route":      routeTemplate(r),
				}).Errorf("fitlog: handler panic on %s %s: %v\n%s", r.Method, r.URL.Path, recovered, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				pkg.WriteResponse(w, pkg.ContentType.Text, "internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
