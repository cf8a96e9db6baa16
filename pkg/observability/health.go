package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck reports whether a subsystem is ready. A nil error means ready.
type ReadyCheck func(ctx context.Context) error

// HealthHandler answers liveness checks with HTTP 200 and {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		writeHealthJSON(rw, healthStatusOK, nil)
	})
}

// ReadyHandler runs every check in order. The first failure answers HTTP 503
// with {"status":"unavailable","error":"..."}; otherwise HTTP 200.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		rw.Header().Set("Content-Type", "application/json")

		for _, check := range checks {
			err := check(hr.Context())
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				writeHealthJSON(rw, healthStatusUnavailable, err)

				return
			}
		}

		rw.WriteHeader(http.StatusOK)
		writeHealthJSON(rw, healthStatusOK, nil)
	})
}

func writeHealthJSON(w io.Writer, status string, cause error) {
	body := map[string]string{"status": status}
	if cause != nil {
		body["error"] = cause.Error()
	}

	data, err := json.Marshal(body)
	if err != nil {
		return
	}

	_, _ = fmt.Fprintf(w, "%s\n", data)
}
