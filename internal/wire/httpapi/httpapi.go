// Package httpapi is the auxiliary HTTP status/health surface that
// runs alongside the raw JSON-lines debug socket, grounded on
// httpserver/handlers.go's mux.NewRouter()-plus-route-registration
// shape.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// StatusProvider is the narrow contract /status needs: a
// JSON-serializable snapshot of the running session.
type StatusProvider interface {
	Status() map[string]interface{}
}

// NewRouter builds the status/health router. /healthz always answers
// 200 once the process is up; /status reports sp's current snapshot.
func NewRouter(sp StatusProvider) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/status", handleStatus(sp)).Methods(http.MethodGet)
	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleStatus(sp StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sp.Status())
	}
}
