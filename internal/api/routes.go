package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

const (
	HealthPath  = "/admin/health"
	MetricsPath = "/admin/metrics"
)

// NewRouter registers the key/value routes. Admin routes have two path
// segments so they can never shadow a key. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler) *mux.Router {
	// keys are path-escaped by clients, so match before decoding; "." and
	// ".." are keys too, so paths are never cleaned
	router := mux.NewRouter().UseEncodedPath().SkipClean(true)
	router.HandleFunc(HealthPath, h.HealthHandler).Methods("GET")
	if metrics != nil {
		router.Handle(MetricsPath, metrics).Methods("GET")
	}
	router.HandleFunc("/set", h.SetHandler).Methods("POST")
	router.HandleFunc("/set", h.DeleteHandler).Methods("DELETE")
	router.HandleFunc("/commit", h.CommitHandler).Methods("POST")
	router.HandleFunc("/{key}", h.GetHandler).Methods("GET")
	return router
}
