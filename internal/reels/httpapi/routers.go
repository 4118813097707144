package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the API surface. mediaRoot is served read-only under
// /media/ so the artifact URLs in responses resolve.
func NewRouter(h *Handler, mediaRoot string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", h.Health)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/", h.Info)

	// Trailing slash so handlers can TrimPrefix("/api/reels/").
	mux.HandleFunc("/api/reels/", h.Reels)

	mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaRoot))))

	return mux
}
