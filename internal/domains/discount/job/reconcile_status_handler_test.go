package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/shared"
)

type fakeReconciler struct {
	calledAt time.Time
	err      error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, now time.Time) (*model.ReconcileResult, error) {
	f.calledAt = now
	if f.err != nil {
		return nil, f.err
	}
	return &model.ReconcileResult{ExpiredCount: 1}, nil
}

func TestReconcileStatusHandler_UsesPayloadInstant(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(ReconcileStatusPayload{At: at})
	require.NoError(t, err)

	r := &fakeReconciler{}
	err = NewReconcileStatusHandler(r).ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileDiscountStatus, payload))

	require.NoError(t, err)
	assert.True(t, r.calledAt.Equal(at))
}

func TestReconcileStatusHandler_DefaultsToNow(t *testing.T) {
	r := &fakeReconciler{}
	before := time.Now().UTC()

	err := NewReconcileStatusHandler(r).ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileDiscountStatus, nil))

	require.NoError(t, err)
	assert.False(t, r.calledAt.Before(before))
}

func TestReconcileStatusHandler_Errors(t *testing.T) {
	r := &fakeReconciler{err: model.ErrStoreUnavailable}
	h := NewReconcileStatusHandler(r)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileDiscountStatus, []byte("{}")))
	assert.True(t, errors.Is(err, model.ErrStoreUnavailable))

	err = h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileDiscountStatus, []byte("not json")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
