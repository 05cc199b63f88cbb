package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/pkg/logger"
)

// File is the top level of a seed document
type File struct {
	Rules []RuleEntry `yaml:"rules"`
}

// RuleEntry mirrors CreateRuleRequest. Amounts are strings so YAML never
// routes them through float64.
type RuleEntry struct {
	Name               string   `yaml:"name"`
	Description        *string  `yaml:"description"`
	DiscountType       string   `yaml:"discount_type"`
	DiscountValue      string   `yaml:"discount_value"`
	PercentageValue    string   `yaml:"percentage_value"`
	BuyQuantity        *int     `yaml:"buy_quantity"`
	GetQuantity        *int     `yaml:"get_quantity"`
	ApplicableTo       string   `yaml:"applicable_to"`
	CategoryIDs        []string `yaml:"category_ids"`
	ProductIDs         []string `yaml:"product_ids"`
	StartDate          string   `yaml:"start_date"`
	EndDate            string   `yaml:"end_date"`
	AllowStacking      bool     `yaml:"allow_stacking"`
	Priority           int      `yaml:"priority"`
	MaxUsesPerCustomer *int     `yaml:"max_uses_per_customer"`
	MaxTotalUses       *int     `yaml:"max_total_uses"`
	MinPurchaseAmount  string   `yaml:"min_purchase_amount"`
}

// RuleCreator is the admin entry point seeds go through, so seeded rules get
// the same validation as API-created ones.
type RuleCreator interface {
	CreateRule(ctx context.Context, req *model.CreateRuleRequest) (*model.DiscountRule, error)
}

// Load parses a seed document into create requests
func Load(r io.Reader) ([]*model.CreateRuleRequest, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	reqs := make([]*model.CreateRuleRequest, 0, len(f.Rules))
	for i, entry := range f.Rules {
		req, err := entry.toRequest()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, entry.Name, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Apply creates every rule and stops at the first failure
func Apply(ctx context.Context, creator RuleCreator, reqs []*model.CreateRuleRequest) (int, error) {
	for i, req := range reqs {
		rule, err := creator.CreateRule(ctx, req)
		if err != nil {
			return i, fmt.Errorf("create rule %q: %w", req.Name, err)
		}
		logger.Info("Seeded discount rule", map[string]interface{}{
			"rule_id": rule.ID.String(),
			"name":    rule.Name,
			"status":  rule.Status,
		})
	}
	return len(reqs), nil
}

func (e RuleEntry) toRequest() (*model.CreateRuleRequest, error) {
	discountValue, err := parseAmount(e.DiscountValue, "discount_value")
	if err != nil {
		return nil, err
	}
	minPurchase, err := parseAmount(e.MinPurchaseAmount, "min_purchase_amount")
	if err != nil {
		return nil, err
	}

	var percentage *decimal.Decimal
	if e.PercentageValue != "" {
		p, err := parseAmount(e.PercentageValue, "percentage_value")
		if err != nil {
			return nil, err
		}
		percentage = &p
	}

	categories, err := parseIDs(e.CategoryIDs, "category_ids")
	if err != nil {
		return nil, err
	}
	products, err := parseIDs(e.ProductIDs, "product_ids")
	if err != nil {
		return nil, err
	}

	return &model.CreateRuleRequest{
		Name:               e.Name,
		Description:        e.Description,
		DiscountType:       e.DiscountType,
		DiscountValue:      discountValue,
		PercentageValue:    percentage,
		BuyQuantity:        e.BuyQuantity,
		GetQuantity:        e.GetQuantity,
		ApplicableTo:       e.ApplicableTo,
		CategoryIDs:        categories,
		ProductIDs:         products,
		StartDate:          e.StartDate,
		EndDate:            e.EndDate,
		AllowStacking:      e.AllowStacking,
		Priority:           e.Priority,
		MaxUsesPerCustomer: e.MaxUsesPerCustomer,
		MaxTotalUses:       e.MaxTotalUses,
		MinPurchaseAmount:  minPurchase,
	}, nil
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func parseIDs(raw []string, field string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
