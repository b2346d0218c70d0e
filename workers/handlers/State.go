package handlers

import (
	"context"
	"net/http"

	"gorevobridge/bridge"
)

// StateProvider is satisfied by the running orchestrator.
type StateProvider interface {
	Snapshot() bridge.StateSnapshot
	Healthy(ctx context.Context) error
}

var provider StateProvider

// Init wires the handlers to the running bridge; call before serving.
func Init(p StateProvider) {
	provider = p
}

func State(w http.ResponseWriter, r *http.Request) {
	if provider == nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "bridge not started",
		}, http.StatusServiceUnavailable)
		return
	}
	responseJSON(w, provider.Snapshot(), http.StatusOK)
}
