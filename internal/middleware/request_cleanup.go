package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// bodies larger than this are closed without reading the rest
const maxDrainBytes = 64 << 10

// DrainAndCloseRequest reads what the handler left of a (small) request body
// and closes it, so the keep-alive connection can be reused.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}

			drained, err := io.Copy(io.Discard, io.LimitReader(r.Body, maxDrainBytes))
			if err != nil {
				log.WithField("request_id", RequestID(r.Context())).
					Debugf("fitlog: drain %s %s body after %d bytes: %s", r.Method, r.URL.Path, drained, err)
			}
			_ = r.Body.Close()
		})
	}
}
