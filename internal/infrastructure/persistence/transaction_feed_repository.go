package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finops/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionFeedRepository implements report.FeedRepository with a
// UNION ALL over the four source tables. The union, filtering, sorting and
// pagination all run in SQL: the feed is computed at query time from
// committed state and memory stays bounded regardless of history size.
type GormTransactionFeedRepository struct {
	db *gorm.DB
}

// NewGormTransactionFeedRepository creates a new GormTransactionFeedRepository
func NewGormTransactionFeedRepository(db *gorm.DB) *GormTransactionFeedRepository {
	return &GormTransactionFeedRepository{db: db}
}

// likeEscaper neutralizes LIKE metacharacters in user-supplied search text.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

// feedRow is the scan target for one unified row.
type feedRow struct {
	Type        string
	Date        time.Time
	Amount      decimal.Decimal
	Effect      string
	RefID       uuid.UUID
	RefNumber   string
	PartyID     *uuid.UUID
	Description string
}

// sourceSelects returns the per-type subqueries normalizing each table into
// the unified column set. Only completed payments appear: pending and failed
// payments never moved money, and reversals show up as ledger entries.
func sourceSelects(types []report.TransactionType) []string {
	bySource := map[report.TransactionType]string{
		report.TypeInvoice: `SELECT 'invoice' AS type, tenant_id, branch_id, invoice_date AS date,
			grand_total AS amount, 'debit' AS effect, id AS ref_id,
			invoice_number AS ref_number, customer_id AS party_id,
			invoice_number AS description
			FROM invoices`,
		report.TypePayment: `SELECT 'payment' AS type, tenant_id, branch_id, payment_date AS date,
			amount, CASE WHEN direction = 'INFLOW' THEN 'credit' ELSE 'debit' END AS effect,
			id AS ref_id, idempotency_key AS ref_number,
			CASE WHEN direction = 'INFLOW' THEN customer_id ELSE supplier_id END AS party_id,
			remarks AS description
			FROM payments WHERE status = 'COMPLETED'`,
		report.TypePurchase: `SELECT 'purchase' AS type, tenant_id, branch_id, purchase_date AS date,
			grand_total AS amount, 'credit' AS effect, id AS ref_id,
			purchase_number AS ref_number, supplier_id AS party_id,
			purchase_number AS description
			FROM purchases`,
		report.TypeLedgerEntry: `SELECT 'ledger_entry' AS type, tenant_id, branch_id, date,
			debit + credit AS amount,
			CASE WHEN debit > 0 THEN 'debit' ELSE 'credit' END AS effect,
			id AS ref_id, reference_type AS ref_number,
			COALESCE(customer_id, supplier_id) AS party_id,
			description
			FROM ledger_entries`,
	}

	wanted := types
	if len(wanted) == 0 {
		wanted = []report.TransactionType{
			report.TypeInvoice, report.TypePayment, report.TypePurchase, report.TypeLedgerEntry,
		}
	}
	selects := make([]string, 0, len(wanted))
	for _, t := range wanted {
		if s, ok := bySource[t]; ok {
			selects = append(selects, s)
		}
	}
	return selects
}

// Query runs the unified feed query for the given filter. The caller has
// already validated and normalized the filter.
func (r *GormTransactionFeedRepository) Query(ctx context.Context, filter report.FeedFilter) (*report.FeedPage, error) {
	union := strings.Join(sourceSelects(filter.Types), " UNION ALL ")

	conditions := []string{"tenant_id = ?", "branch_id = ?"}
	args := []interface{}{filter.TenantID, filter.BranchID}

	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.Effect != nil {
		conditions = append(conditions, "effect = ?")
		args = append(args, string(*filter.Effect))
	}
	if filter.PartyID != nil {
		conditions = append(conditions, "party_id = ?")
		args = append(args, *filter.PartyID)
	}
	if filter.Search != "" {
		// LOWER + LIKE instead of ILIKE keeps the query portable to sqlite.
		// The input is escaped so % and _ match literally.
		conditions = append(conditions,
			`(LOWER(ref_number) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\')`)
		pattern := "%" + escapeLikePattern(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}
	where := strings.Join(conditions, " AND ")

	var total int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS feed WHERE %s", union, where)
	if err := r.db.WithContext(ctx).Raw(countSQL, args...).Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transaction feed: %w", err)
	}

	order := "date ASC, ref_id ASC"
	if filter.SortDesc {
		order = "date DESC, ref_id DESC"
	}
	pageSQL := fmt.Sprintf(
		"SELECT type, date, amount, effect, ref_id, ref_number, party_id, description FROM (%s) AS feed WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		union, where, order,
	)
	pageArgs := append(append([]interface{}{}, args...), filter.Limit, (filter.Page-1)*filter.Limit)

	var rows []feedRow
	if err := r.db.WithContext(ctx).Raw(pageSQL, pageArgs...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query transaction feed: %w", err)
	}

	results := make([]report.TransactionRecord, len(rows))
	for i, row := range rows {
		results[i] = report.TransactionRecord{
			Type:        report.TransactionType(row.Type),
			Date:        row.Date,
			Amount:      row.Amount,
			Effect:      report.Effect(row.Effect),
			RefID:       row.RefID,
			RefNumber:   row.RefNumber,
			PartyID:     row.PartyID,
			Description: row.Description,
		}
	}

	return &report.FeedPage{
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
		Results: results,
	}, nil
}
