package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	if provider == nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "bridge not started",
		}, http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := provider.Healthy(ctx); err != nil {
		log.Printf("Health check failed: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "source chain unreachable",
		}, http.StatusServiceUnavailable)
		return
	}

	responseJSON(w, &APIResponse{
		Status: "ok",
	}, http.StatusOK)
}
