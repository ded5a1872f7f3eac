package observability

import (
	"encoding/json"
	"net/http"
)

const healthPath = "/healthz"

// HealthHandler answers liveness probes with {"status":"ok"}.
func HealthHandler() http.Handler {
	body, _ := json.Marshal(map[string]string{"status": "ok"}) //nolint:errchkjson // static map.

	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)

		_, _ = rw.Write(body)
	})
}
