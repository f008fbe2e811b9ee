package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewAdminRouter builds the admin listener's router: a liveness probe
// and the Prometheus scrape endpoint, served separately from the
// public RPC/WebSocket listener (Supplemented Feature, spec.md §6).
func NewAdminRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
