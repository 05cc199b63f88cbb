package repository

import (
	"context"
	"time"

	"pricing-service/internal/domains/discount/model"

	"github.com/google/uuid"
)

// RuleStore is the persistence boundary for discount rules.
// Every I/O failure is returned wrapping model.ErrStoreUnavailable.
type RuleStore interface {
	// Read operations
	FindActiveRulesAt(ctx context.Context, now time.Time) ([]*model.DiscountRule, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error)
	List(ctx context.Context, filter *model.ListRulesFilter) ([]*model.DiscountRule, int, error)
	FindDriftCandidates(ctx context.Context, now time.Time) ([]*model.DiscountRule, error)

	// Write operations
	Insert(ctx context.Context, rule *model.DiscountRule) error
	Update(ctx context.Context, rule *model.DiscountRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status model.RuleStatus) (int64, error)
}

// AuditRecorder is the sink for applied discounts of placed orders.
type AuditRecorder interface {
	Record(ctx context.Context, records []*model.DiscountAuditRecord) error
}

// AuditRepository adds the read side used by admin and analytics.
type AuditRepository interface {
	AuditRecorder
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.DiscountAuditRecord, error)
	CountByRule(ctx context.Context, ruleID uuid.UUID) (int, error)
}
