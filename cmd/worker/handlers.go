package main

import (
	"github.com/hibiken/asynq"

	"pricing-service/internal/domains/discount/job"
	"pricing-service/internal/shared"
	"pricing-service/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	reconcileStatus *job.ReconcileStatusHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		reconcileStatus: job.NewReconcileStatusHandler(c.Lifecycle),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeReconcileDiscountStatus, h.reconcileStatus.ProcessTask)
}
