// Package storetest holds sqlmock helpers for code built on store.Repository.
package storetest

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"career-readiness/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var Columns = []string{"id", "user_id", "type", "tier", "status", "review_status", "price", "manual_processing",
	"clerk_id", "review_notes", "reviewed_at", "data", "created_at", "updated_at"}

func NewMock(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// Rows renders assessments the way the repository selects them.
func Rows(items ...*models.Assessment) *sqlmock.Rows {
	rows := sqlmock.NewRows(Columns)
	for _, a := range items {
		data, _ := json.Marshal(a.Data)
		created := a.CreatedAt
		if created.IsZero() {
			created = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		}
		var clerk, reviewed driver.Value
		if a.ClerkID != "" {
			clerk = a.ClerkID
		}
		if a.ReviewedAt != nil {
			reviewed = *a.ReviewedAt
		}
		rows.AddRow(a.ID, a.UserID, a.Type, a.Tier, a.Status, a.ReviewStatus, a.Price, a.ManualProcessing,
			clerk, a.ReviewNotes, reviewed, data, created, created)
	}
	return rows
}

// Written captures the columns of an UPDATE issued by Repository.Update.
type Written struct {
	Tier         string
	Status       string
	ReviewStatus string
	ClerkID      string
	ReviewNotes  string
	ReviewedAt   *time.Time
	Data         models.AssessmentData
}

type match func(driver.Value) bool

func (m match) Match(v driver.Value) bool { return m(v) }

func str(dst *string) match {
	return func(v driver.Value) bool {
		if v == nil {
			*dst = ""
			return true
		}
		s, ok := v.(string)
		*dst = s
		return ok
	}
}

// ExpectUpdate expects the lock, update and commit of one Repository.Update
// call on a. The returned value is filled in when the UPDATE executes.
func ExpectUpdate(mock sqlmock.Sqlmock, a *models.Assessment) *Written {
	w := &Written{}
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM assessments WHERE id = \$1 FOR UPDATE`).
		WithArgs(a.ID).
		WillReturnRows(Rows(a))
	mock.ExpectExec(`UPDATE assessments`).
		WithArgs(
			a.ID,
			str(&w.Tier),
			str(&w.Status),
			str(&w.ReviewStatus),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			str(&w.ClerkID),
			str(&w.ReviewNotes),
			match(func(v driver.Value) bool {
				if t, ok := v.(time.Time); ok {
					w.ReviewedAt = &t
				}
				return true
			}),
			match(func(v driver.Value) bool {
				b, ok := v.([]byte)
				return ok && json.Unmarshal(b, &w.Data) == nil
			}),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	return w
}

// ExpectAbortedUpdate expects a lock followed by a rollback, as when the
// update callback rejects the row.
func ExpectAbortedUpdate(mock sqlmock.Sqlmock, a *models.Assessment) {
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(a.ID).WillReturnRows(Rows(a))
	mock.ExpectRollback()
}

// ExpectMissing expects a lock query that finds nothing.
func ExpectMissing(mock sqlmock.Sqlmock, id string) {
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(id).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
}

// ExpectGet expects a plain Repository.Get of a.
func ExpectGet(mock sqlmock.Sqlmock, a *models.Assessment) {
	mock.ExpectQuery(`SELECT (.+) FROM assessments WHERE id = \$1$`).
		WithArgs(a.ID).
		WillReturnRows(Rows(a))
}
