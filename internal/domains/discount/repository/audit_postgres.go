package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/pkg/database"
)

// AuditPostgresRepository persists applied discounts in discount_audit_records
type AuditPostgresRepository struct {
	db *pgxpool.Pool
}

func NewAuditPostgresRepository(db *pgxpool.Pool) AuditRepository {
	return &AuditPostgresRepository{db: db}
}

// Record replaces the trail of every order in records, atomically. A retried
// checkout confirm therefore leaves exactly one trail per order.
func (r *AuditPostgresRepository) Record(ctx context.Context, records []*model.DiscountAuditRecord) error {
	if len(records) == 0 {
		return nil
	}

	deleteQuery := `DELETE FROM discount_audit_records WHERE order_id = ANY($1::uuid[])`

	query := `
		INSERT INTO discount_audit_records (
			id, order_id, customer_id, product_id, line_index, step_index,
			rule_id, rule_name, discount_type, discount_value,
			savings, price_before, price_after, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	err := database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(deleteQuery, idsToStrings(auditOrderIDs(records)))
		for _, rec := range records {
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			if rec.RecordedAt.IsZero() {
				rec.RecordedAt = time.Now().UTC()
			}
			batch.Queue(query,
				rec.ID,
				rec.OrderID,
				rec.CustomerID,
				rec.ProductID,
				rec.LineIndex,
				rec.StepIndex,
				rec.RuleID,
				rec.RuleName,
				string(rec.DiscountType),
				rec.DiscountValue,
				rec.Savings,
				rec.PriceBefore,
				rec.PriceAfter,
				rec.RecordedAt,
			)
		}
		return database.SendBatch(ctx, tx, batch)
	})
	if err != nil {
		return storeErr("record applied discounts", err)
	}
	return nil
}

// auditOrderIDs returns the distinct order IDs of records in first-seen order
func auditOrderIDs(records []*model.DiscountAuditRecord) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, 1)
	var ids []uuid.UUID
	for _, rec := range records {
		if _, ok := seen[rec.OrderID]; ok {
			continue
		}
		seen[rec.OrderID] = struct{}{}
		ids = append(ids, rec.OrderID)
	}
	return ids
}

// ListByOrder returns the applied discount trail of an order in application order
func (r *AuditPostgresRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.DiscountAuditRecord, error) {
	query := `
		SELECT
			id, order_id, customer_id, product_id, line_index, step_index,
			rule_id, rule_name, discount_type, discount_value,
			savings, price_before, price_after, recorded_at
		FROM discount_audit_records
		WHERE order_id = $1
		ORDER BY line_index, step_index
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, storeErr("list audit records", err)
	}
	defer rows.Close()

	var records []*model.DiscountAuditRecord
	for rows.Next() {
		var (
			rec          model.DiscountAuditRecord
			discountType string
		)
		err := rows.Scan(
			&rec.ID,            // id
			&rec.OrderID,       // order_id
			&rec.CustomerID,    // customer_id (nullable)
			&rec.ProductID,     // product_id
			&rec.LineIndex,     // line_index
			&rec.StepIndex,     // step_index
			&rec.RuleID,        // rule_id
			&rec.RuleName,      // rule_name
			&discountType,      // discount_type
			&rec.DiscountValue, // discount_value
			&rec.Savings,       // savings
			&rec.PriceBefore,   // price_before
			&rec.PriceAfter,    // price_after
			&rec.RecordedAt,    // recorded_at
		)
		if err != nil {
			return nil, storeErr("scan audit record", err)
		}
		rec.DiscountType = model.DiscountType(discountType)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list audit records", err)
	}
	return records, nil
}

// CountByRule counts audit rows that reference ruleID
func (r *AuditPostgresRepository) CountByRule(ctx context.Context, ruleID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM discount_audit_records WHERE rule_id = $1`, ruleID,
	).Scan(&count)
	if err != nil {
		return 0, storeErr("count audit records", err)
	}
	return count, nil
}
