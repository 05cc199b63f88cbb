package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pricing-service/internal/domains/discount/model"
)

// fakeRuleStore is an in-memory RuleStore. Setting err makes every call fail.
type fakeRuleStore struct {
	mu    sync.Mutex
	rules []*model.DiscountRule
	err   error

	activeCalls int
	inserted    []*model.DiscountRule
	updated     []*model.DiscountRule
	deleted     []uuid.UUID
}

func newFakeRuleStore(rules ...*model.DiscountRule) *fakeRuleStore {
	return &fakeRuleStore{rules: rules}
}

func (f *fakeRuleStore) FindActiveRulesAt(ctx context.Context, now time.Time) ([]*model.DiscountRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.DiscountRule
	for _, r := range f.rules {
		if r.Status == model.RuleStatusActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleStore) FindByID(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rules {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, model.ErrRuleNotFound
}

func (f *fakeRuleStore) List(ctx context.Context, filter *model.ListRulesFilter) ([]*model.DiscountRule, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []*model.DiscountRule
	for _, r := range f.rules {
		if filter.Status == "all" || string(r.Status) == filter.Status {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeRuleStore) FindDriftCandidates(ctx context.Context, now time.Time) ([]*model.DiscountRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.DiscountRule
	for _, r := range f.rules {
		ended := !now.Before(r.EndDate)
		switch {
		case (r.Status == model.RuleStatusActive || r.Status == model.RuleStatusScheduled) && ended:
			out = append(out, r)
		case r.Status == model.RuleStatusScheduled && r.IsActiveAt(now):
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleStore) Insert(ctx context.Context, rule *model.DiscountRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, rule)
	f.rules = append(f.rules, rule)
	return nil
}

func (f *fakeRuleStore) Update(ctx context.Context, rule *model.DiscountRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, r := range f.rules {
		if r.ID == rule.ID {
			f.rules[i] = rule
			f.updated = append(f.updated, rule)
			return nil
		}
	}
	return model.ErrRuleNotFound
}

func (f *fakeRuleStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, r := range f.rules {
		if r.ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return model.ErrRuleNotFound
}

func (f *fakeRuleStore) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status model.RuleStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, id := range ids {
		for _, r := range f.rules {
			if r.ID == id && r.Status != status {
				r.Status = status
				n++
			}
		}
	}
	return n, nil
}

// fakeAuditRepo keeps the latest trail per order
type fakeAuditRepo struct {
	mu      sync.Mutex
	records []*model.DiscountAuditRecord
	counts  map[uuid.UUID]int
	err     error
}

func (f *fakeAuditRepo) Record(ctx context.Context, records []*model.DiscountAuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	// same contract as the postgres repository: the order's trail is replaced
	replaced := make(map[uuid.UUID]bool)
	for _, r := range records {
		replaced[r.OrderID] = true
	}
	kept := f.records[:0]
	for _, r := range f.records {
		if !replaced[r.OrderID] {
			kept = append(kept, r)
		}
	}
	f.records = append(kept, records...)
	return nil
}

func (f *fakeAuditRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.DiscountAuditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.DiscountAuditRecord
	for _, r := range f.records {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) CountByRule(ctx context.Context, ruleID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[ruleID], nil
}

type fakePublisher struct {
	published []*model.DiscountAuditRecord
	err       error
}

func (f *fakePublisher) PublishApplied(ctx context.Context, records []*model.DiscountAuditRecord) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, records...)
	return nil
}

// -------------------------------------------------------------------
// RULE BUILDERS
// -------------------------------------------------------------------

var (
	testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	testNow   = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int {
	return &v
}

func percentageRule(name, pct string, stacking bool, priority int) *model.DiscountRule {
	return &model.DiscountRule{
		ID:              uuid.New(),
		Name:            name,
		DiscountType:    model.DiscountTypePercentage,
		DiscountValue:   dec(pct),
		PercentageValue: decPtr(pct),
		ApplicableTo:    model.AppliesToAllProducts,
		StartDate:       testStart,
		EndDate:         testEnd,
		Status:          model.RuleStatusActive,
		AllowStacking:   stacking,
		Priority:        priority,
	}
}

func fixedRule(name, amount string, stacking bool, priority int) *model.DiscountRule {
	return &model.DiscountRule{
		ID:            uuid.New(),
		Name:          name,
		DiscountType:  model.DiscountTypeFixedAmount,
		DiscountValue: dec(amount),
		ApplicableTo:  model.AppliesToAllProducts,
		StartDate:     testStart,
		EndDate:       testEnd,
		Status:        model.RuleStatusActive,
		AllowStacking: stacking,
		Priority:      priority,
	}
}

func buyXGetYRule(name string, stacking bool, priority int) *model.DiscountRule {
	return &model.DiscountRule{
		ID:            uuid.New(),
		Name:          name,
		DiscountType:  model.DiscountTypeBuyXGetY,
		DiscountValue: decimal.Zero,
		BuyQuantity:   intPtr(2),
		GetQuantity:   intPtr(1),
		ApplicableTo:  model.AppliesToAllProducts,
		StartDate:     testStart,
		EndDate:       testEnd,
		Status:        model.RuleStatusActive,
		AllowStacking: stacking,
		Priority:      priority,
	}
}

func ruleIDs(rules []*model.DiscountRule) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}

func newTestRevalidator(store *fakeRuleStore) *CartRevalidator {
	return NewCartRevalidator(NewApplicabilityFilter(store), NewStackingResolver(), NewPriceCalculator())
}
