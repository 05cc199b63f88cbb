package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/pkg/logger"
)

// ReconcileStatusPayload - At overrides the evaluation instant (zero means now)
type ReconcileStatusPayload struct {
	At time.Time `json:"at,omitempty"`
}

type Reconciler interface {
	Reconcile(ctx context.Context, now time.Time) (*model.ReconcileResult, error)
}

type ReconcileStatusHandler struct {
	reconciler Reconciler
}

func NewReconcileStatusHandler(reconciler Reconciler) *ReconcileStatusHandler {
	return &ReconcileStatusHandler{
		reconciler: reconciler,
	}
}

func (h *ReconcileStatusHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload ReconcileStatusPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("Unmarshal reconcile payload failed", err)
			return asynq.SkipRetry
		}
	}

	now := time.Now().UTC()
	if !payload.At.IsZero() {
		now = payload.At.UTC()
	}

	result, err := h.reconciler.Reconcile(ctx, now)
	if err != nil {
		logger.Error("Reconcile discount statuses failed", err)
		return err
	}

	log.Debug().
		Time("at", now).
		Int64("expired", result.ExpiredCount).
		Int64("activated", result.ActivatedCount).
		Msg("Discount status reconcile finished")

	return nil
}
