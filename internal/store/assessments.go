package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"career-readiness/internal/common/database"
	"career-readiness/internal/common/errors"
	"career-readiness/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const assessmentColumns = `id, user_id, type, tier, status, review_status, price, manual_processing,
	clerk_id, review_notes, reviewed_at, data, created_at, updated_at`

// Repository persists assessments and their payment and referral rows.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *sql.DB { return r.db }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (*models.Assessment, error) {
	var (
		a          models.Assessment
		clerkID    sql.NullString
		reviewedAt sql.NullTime
		data       []byte
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Tier, &a.Status, &a.ReviewStatus, &a.Price,
		&a.ManualProcessing, &clerkID, &a.ReviewNotes, &reviewedAt, &data, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ClerkID = clerkID.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		a.ReviewedAt = &t
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &a.Data); err != nil {
			return nil, fmt.Errorf("decode data for %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create inserts a new assessment, assigning an id when empty.
func (r *Repository) Create(ctx context.Context, a *models.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	data, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO assessments (`+assessmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.UserID, a.Type, a.Tier, a.Status, a.ReviewStatus, a.Price, a.ManualProcessing,
		nullString(a.ClerkID), a.ReviewNotes, nullTime(a.ReviewedAt), data, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return errors.NewQueryExecutionFailedError("create assessment", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Assessment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id)
	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewAssessmentNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get assessment", err)
	}
	return a, nil
}

// GetDetail loads the assessment with its payment and referrals.
func (r *Repository) GetDetail(ctx context.Context, id string) (*models.Assessment, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var p models.Payment
	err = r.db.QueryRowContext(ctx, `
		SELECT id, assessment_id, amount, status, provider, created_at
		FROM payments WHERE assessment_id = $1`, id).
		Scan(&p.ID, &p.AssessmentID, &p.Amount, &p.Status, &p.Provider, &p.CreatedAt)
	switch {
	case err == nil:
		a.Payment = &p
	case err != sql.ErrNoRows:
		return nil, errors.NewQueryExecutionFailedError("get payment", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, assessment_id, referrer_id, commission, created_at
		FROM referrals WHERE assessment_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list referrals", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref models.Referral
		if err := rows.Scan(&ref.ID, &ref.AssessmentID, &ref.ReferrerID, &ref.Commission, &ref.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan referral", err)
		}
		a.Referrals = append(a.Referrals, ref)
	}
	return a, rows.Err()
}

// Update locks the row, applies fn and writes every mutable column back.
// Returning an error from fn aborts without writing.
func (r *Repository) Update(ctx context.Context, id string, fn func(a *models.Assessment) error) (*models.Assessment, error) {
	var updated *models.Assessment
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id = $1 FOR UPDATE`, id)
		a, err := scanAssessment(row)
		if err == sql.ErrNoRows {
			return errors.NewAssessmentNotFoundError(id)
		}
		if err != nil {
			return errors.NewQueryExecutionFailedError("lock assessment", err)
		}

		if err := fn(a); err != nil {
			return err
		}
		a.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(a.Data)
		if err != nil {
			return fmt.Errorf("encode data: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE assessments
			SET tier = $2, status = $3, review_status = $4, price = $5, manual_processing = $6,
			    clerk_id = $7, review_notes = $8, reviewed_at = $9, data = $10, updated_at = $11
			WHERE id = $1`,
			a.ID, a.Tier, a.Status, a.ReviewStatus, a.Price, a.ManualProcessing,
			nullString(a.ClerkID), a.ReviewNotes, nullTime(a.ReviewedAt), data, a.UpdatedAt)
		if err != nil {
			return errors.NewQueryExecutionFailedError("update assessment", err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the assessment with its payment and referrals in one transaction.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM referrals WHERE assessment_id = $1`, id); err != nil {
			return errors.NewQueryExecutionFailedError("delete referrals", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE assessment_id = $1`, id); err != nil {
			return errors.NewQueryExecutionFailedError("delete payment", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM assessments WHERE id = $1`, id)
		if err != nil {
			return errors.NewQueryExecutionFailedError("delete assessment", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NewAssessmentNotFoundError(id)
		}
		return nil
	})
}

// List applies the filter and returns one page ordered newest first.
func (r *Repository) List(ctx context.Context, f models.AssessmentFilter) (*models.AssessmentPage, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if f.Tier != "" {
		add("tier = ?", f.Tier)
	}
	if f.ClerkID != "" {
		add("clerk_id = ?", f.ClerkID)
	}
	if f.IDs != nil {
		add("id = ANY(?)", pq.Array(f.IDs))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	page := &models.AssessmentPage{Items: []models.Assessment{}, Page: f.Page, PerPage: f.Limit()}
	if page.Page < 1 {
		page.Page = 1
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments`+clause, args...).Scan(&page.Total); err != nil {
		return nil, errors.NewQueryExecutionFailedError("count assessments", err)
	}

	args = append(args, f.Limit(), f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM assessments%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		assessmentColumns, clause, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list assessments", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan assessment", err)
		}
		page.Items = append(page.Items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list assessments", err)
	}
	return page, nil
}

// ClerkWorkloads counts open manual reviews per clerk.
func (r *Repository) ClerkWorkloads(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT clerk_id, COUNT(*)
		FROM assessments
		WHERE clerk_id IS NOT NULL AND review_status IN ('pending_review', 'in_review')
		GROUP BY clerk_id`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("clerk workloads", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan workload", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}
