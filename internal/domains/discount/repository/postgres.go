package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pricing-service/internal/domains/discount/model"
)

const ruleColumns = `
	id, name, description,
	discount_type, discount_value, percentage_value,
	buy_quantity, get_quantity,
	applicable_to, category_ids::text[], product_ids::text[],
	start_date, end_date, status,
	allow_stacking, priority,
	max_uses_per_customer, max_total_uses, current_total_uses, min_purchase_amount,
	created_at, updated_at`

// PostgresRepository implements RuleStore on PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a rule store backed by pool
func NewPostgresRepository(db *pgxpool.Pool) RuleStore {
	return &PostgresRepository{db: db}
}

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

// FindActiveRulesAt returns rules persisted as active whose window contains now.
// Ordered so that evaluation is deterministic across calls.
func (r *PostgresRepository) FindActiveRulesAt(ctx context.Context, now time.Time) ([]*model.DiscountRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM discount_rules
		WHERE status = 'active'
		  AND start_date <= $1
		  AND end_date > $1
		ORDER BY priority DESC, created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, storeErr("find active rules", err)
	}
	defer rows.Close()

	return collectRules(rows, "find active rules")
}

// FindByID finds one rule
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM discount_rules WHERE id = $1`

	rule, err := scanRule(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRuleNotFound
		}
		return nil, storeErr("find rule by id", err)
	}
	return rule, nil
}

// List returns one page of rules for the admin surface and the total count
func (r *PostgresRepository) List(ctx context.Context, filter *model.ListRulesFilter) ([]*model.DiscountRule, int, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Status != "" && filter.Status != "all" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(name) LIKE $%d", argIndex))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		argIndex++
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM discount_rules %s", whereSQL)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count rules", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM discount_rules
		%s
		ORDER BY created_at DESC, id ASC
		LIMIT $%d OFFSET $%d
	`, ruleColumns, whereSQL, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr("list rules", err)
	}
	defer rows.Close()

	rules, err := collectRules(rows, "list rules")
	if err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

// FindDriftCandidates returns rules whose persisted status disagrees with their dates:
// active or scheduled rules that have ended, and scheduled rules that have started.
func (r *PostgresRepository) FindDriftCandidates(ctx context.Context, now time.Time) ([]*model.DiscountRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM discount_rules
		WHERE (status IN ('active', 'scheduled') AND end_date <= $1)
		   OR (status = 'scheduled' AND start_date <= $1 AND end_date > $1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, storeErr("find drift candidates", err)
	}
	defer rows.Close()

	return collectRules(rows, "find drift candidates")
}

// -------------------------------------------------------------------
// WRITE OPERATIONS
// -------------------------------------------------------------------

// Insert stores a new rule
func (r *PostgresRepository) Insert(ctx context.Context, rule *model.DiscountRule) error {
	query := `
		INSERT INTO discount_rules (
			id, name, description,
			discount_type, discount_value, percentage_value,
			buy_quantity, get_quantity,
			applicable_to, category_ids, product_ids,
			start_date, end_date, status,
			allow_stacking, priority,
			max_uses_per_customer, max_total_uses, current_total_uses, min_purchase_amount,
			created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8,
			$9, $10::uuid[], $11::uuid[],
			$12, $13, $14,
			$15, $16,
			$17, $18, $19, $20,
			$21, $22
		)
	`

	_, err := r.db.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		string(rule.DiscountType),
		rule.DiscountValue,
		rule.PercentageValue,
		rule.BuyQuantity,
		rule.GetQuantity,
		string(rule.ApplicableTo),
		idsToStrings(rule.CategoryIDs),
		idsToStrings(rule.ProductIDs),
		rule.StartDate,
		rule.EndDate,
		string(rule.Status),
		rule.AllowStacking,
		rule.Priority,
		rule.MaxUsesPerCustomer,
		rule.MaxTotalUses,
		rule.CurrentTotalUses,
		rule.MinPurchaseAmount,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return storeErr("insert rule", err)
	}
	return nil
}

// Update overwrites every mutable column of an existing rule
func (r *PostgresRepository) Update(ctx context.Context, rule *model.DiscountRule) error {
	query := `
		UPDATE discount_rules SET
			name = $2,
			description = $3,
			discount_type = $4,
			discount_value = $5,
			percentage_value = $6,
			buy_quantity = $7,
			get_quantity = $8,
			applicable_to = $9,
			category_ids = $10::uuid[],
			product_ids = $11::uuid[],
			start_date = $12,
			end_date = $13,
			status = $14,
			allow_stacking = $15,
			priority = $16,
			max_uses_per_customer = $17,
			max_total_uses = $18,
			min_purchase_amount = $19,
			updated_at = $20
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		string(rule.DiscountType),
		rule.DiscountValue,
		rule.PercentageValue,
		rule.BuyQuantity,
		rule.GetQuantity,
		string(rule.ApplicableTo),
		idsToStrings(rule.CategoryIDs),
		idsToStrings(rule.ProductIDs),
		rule.StartDate,
		rule.EndDate,
		string(rule.Status),
		rule.AllowStacking,
		rule.Priority,
		rule.MaxUsesPerCustomer,
		rule.MaxTotalUses,
		rule.MinPurchaseAmount,
		rule.UpdatedAt,
	)
	if err != nil {
		return storeErr("update rule", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRuleNotFound
	}
	return nil
}

// Delete removes a rule. Rules referenced by audit records are protected by a
// foreign key and reported as model.ErrRuleReferenced.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM discount_rules WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return model.ErrRuleReferenced
		}
		return storeErr("delete rule", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRuleNotFound
	}
	return nil
}

// BulkUpdateStatus sets status on every listed rule and returns the rows changed
func (r *PostgresRepository) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status model.RuleStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE discount_rules
		SET status = $2, updated_at = NOW()
		WHERE id = ANY($1::uuid[])
		  AND status <> $2
	`

	tag, err := r.db.Exec(ctx, query, idsToStrings(ids), string(status))
	if err != nil {
		return 0, storeErr("bulk update status", err)
	}
	return tag.RowsAffected(), nil
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func scanRule(row pgx.Row) (*model.DiscountRule, error) {
	var (
		rule         model.DiscountRule
		discountType string
		applicableTo string
		status       string
		categoryIDs  []string
		productIDs   []string
	)

	err := row.Scan(
		&rule.ID,                 // id
		&rule.Name,               // name
		&rule.Description,        // description (nullable)
		&discountType,            // discount_type
		&rule.DiscountValue,      // discount_value
		&rule.PercentageValue,    // percentage_value (nullable)
		&rule.BuyQuantity,        // buy_quantity (nullable)
		&rule.GetQuantity,        // get_quantity (nullable)
		&applicableTo,            // applicable_to
		&categoryIDs,             // category_ids (array)
		&productIDs,              // product_ids (array)
		&rule.StartDate,          // start_date
		&rule.EndDate,            // end_date
		&status,                  // status
		&rule.AllowStacking,      // allow_stacking
		&rule.Priority,           // priority
		&rule.MaxUsesPerCustomer, // max_uses_per_customer (nullable)
		&rule.MaxTotalUses,       // max_total_uses (nullable)
		&rule.CurrentTotalUses,   // current_total_uses
		&rule.MinPurchaseAmount,  // min_purchase_amount
		&rule.CreatedAt,          // created_at
		&rule.UpdatedAt,          // updated_at
	)
	if err != nil {
		return nil, err
	}

	rule.DiscountType = model.DiscountType(discountType)
	rule.ApplicableTo = model.ApplicableTo(applicableTo)
	rule.Status = model.RuleStatus(status)

	if rule.CategoryIDs, err = parseIDs(categoryIDs); err != nil {
		return nil, fmt.Errorf("category_ids: %w", err)
	}
	if rule.ProductIDs, err = parseIDs(productIDs); err != nil {
		return nil, fmt.Errorf("product_ids: %w", err)
	}
	return &rule, nil
}

func collectRules(rows pgx.Rows, op string) ([]*model.DiscountRule, error) {
	var rules []*model.DiscountRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, storeErr(op+": scan", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return rules, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

func idsToStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
