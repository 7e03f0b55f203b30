package rest

import (
	"context"
	"net/http"
	"path/filepath"
)

type healthResponse struct {
	Status   string `json:"status"`
	RagReady bool   `json:"rag_ready"`
}

// Readiness of the chat pipeline
// (GET /health)
func (a *Adapter) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	ready := true
	if err := a.ragChat.Ready(ctx); err != nil {
		a.logger.Sugar().Warnf("health check failed: %v", err)
		ready = false
	}

	status := "ready"
	if !ready {
		status = "not ready"
	}

	renderJSON(w, http.StatusOK, healthResponse{
		Status:   status,
		RagReady: ready,
	})
}

// Serve the chat UI
// (GET /)
func (a *Adapter) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(a.staticDir, "index.html"))
}
