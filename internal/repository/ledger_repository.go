package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/scuolahub/finance-service/internal/finance"
	"github.com/scuolahub/finance-service/internal/model"
)

// ErrDuplicateKey reports a unique-constraint violation, e.g. a second
// spending limit for the same (project, category, base) triple.
var ErrDuplicateKey = errors.New("duplicate key")

// LedgerRepository owns the expense and spending-limit rows and is the only
// writer of projects.spent. Expense mutations run inside one transaction
// that locks the project row, applies the change, re-aggregates the
// authoritative expense set and writes the cached total back, so concurrent
// writes to one project serialize and the cache never drifts.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const expenseColumns = `
	id,
	project_id,
	date,
	vendor,
	category,
	amount,
	document,
	note,
	created_at
`

const limitColumns = `
	id,
	project_id,
	category,
	base,
	percentage,
	note,
	created_at
`

func (r *LedgerRepository) ListExpenses(ctx context.Context, projectID uuid.UUID) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE project_id = ?
		ORDER BY date DESC, id DESC
	`, projectID).Scan(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *LedgerRepository) GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&expense).Error
	if err != nil {
		return nil, err
	}
	if expense.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &expense, nil
}

func (r *LedgerRepository) CreateExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	var saved model.Expense
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, expense.ProjectID); err != nil {
			return err
		}

		err := tx.Raw(`
			INSERT INTO expenses (project_id, date, vendor, category, amount, document, note)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING `+expenseColumns+`
		`,
			expense.ProjectID,
			expense.Date,
			expense.Vendor,
			expense.Category,
			expense.Amount,
			expense.Document,
			expense.Note,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		return refreshSpent(tx, expense.ProjectID)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *LedgerRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var projectID uuid.UUID
		if err := tx.Raw(`
			SELECT project_id FROM expenses WHERE id = ? LIMIT 1
		`, id).Scan(&projectID).Error; err != nil {
			return err
		}
		if projectID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}

		if err := lockProject(tx, projectID); err != nil {
			return err
		}

		result := tx.Exec(`DELETE FROM expenses WHERE id = ?`, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return refreshSpent(tx, projectID)
	})
}

func (r *LedgerRepository) ListLimits(ctx context.Context, projectID uuid.UUID) ([]model.SpendingLimit, error) {
	var limits []model.SpendingLimit
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+limitColumns+`
		FROM spending_limits
		WHERE project_id = ?
		ORDER BY category ASC, base ASC
	`, projectID).Scan(&limits).Error
	if err != nil {
		return nil, err
	}
	return limits, nil
}

func (r *LedgerRepository) GetLimit(ctx context.Context, id uuid.UUID) (*model.SpendingLimit, error) {
	var limit model.SpendingLimit
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+limitColumns+`
		FROM spending_limits
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&limit).Error
	if err != nil {
		return nil, err
	}
	if limit.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &limit, nil
}

// CreateLimit inserts a new limit. The unique index on
// (project_id, category, base) rejects a second limit for the same triple;
// that surfaces as ErrDuplicateKey, never as a silent merge.
func (r *LedgerRepository) CreateLimit(ctx context.Context, limit model.SpendingLimit) (*model.SpendingLimit, error) {
	var saved model.SpendingLimit
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO spending_limits (project_id, category, base, percentage, note)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+limitColumns+`
	`,
		limit.ProjectID,
		limit.Category,
		limit.Base,
		limit.Percentage,
		limit.Note,
	).Scan(&saved).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &saved, nil
}

// UpsertLimit sets the cap for a (project, category, base) triple, creating
// the row if absent. The conflict clause makes concurrent upserts converge
// on one row instead of racing a lookup-then-insert.
func (r *LedgerRepository) UpsertLimit(ctx context.Context, limit model.SpendingLimit) (*model.SpendingLimit, error) {
	var saved model.SpendingLimit
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO spending_limits (project_id, category, base, percentage, note)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (project_id, category, base)
		DO UPDATE SET percentage = EXCLUDED.percentage, note = EXCLUDED.note
		RETURNING `+limitColumns+`
	`,
		limit.ProjectID,
		limit.Category,
		limit.Base,
		limit.Percentage,
		limit.Note,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *LedgerRepository) DeleteLimit(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM spending_limits WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// lockProject takes a row lock on the project so expense writes against it
// serialize. Missing project reports gorm.ErrRecordNotFound.
func lockProject(tx *gorm.DB, projectID uuid.UUID) error {
	var locked uuid.UUID
	if err := tx.Raw(`
		SELECT id FROM projects WHERE id = ? FOR UPDATE
	`, projectID).Scan(&locked).Error; err != nil {
		return err
	}
	if locked == uuid.Nil {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// refreshSpent recomputes the project's cached total from the authoritative
// expense rows inside the calling transaction and writes it back. Runs under
// the project row lock taken by the caller.
func refreshSpent(tx *gorm.DB, projectID uuid.UUID) error {
	var expenses []model.Expense
	if err := tx.Raw(`
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE project_id = ?
	`, projectID).Scan(&expenses).Error; err != nil {
		return err
	}

	totals := finance.Aggregate(expenses)

	result := tx.Exec(`
		UPDATE projects SET spent = ? WHERE id = ?
	`, totals.TotalSpent, projectID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
