// internal/workers/assessment/assign-clerk/handler_test.go
package assignclerk

import (
	"context"
	"errors"
	"testing"

	"career-readiness/internal/common/auth"
	"career-readiness/internal/common/config"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/models"
	"career-readiness/internal/store"
	"career-readiness/internal/store/storetest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	clerks []auth.Clerk
	err    error
}

func (f *fakeDirectory) ListClerks(ctx context.Context) ([]auth.Clerk, error) {
	return f.clerks, f.err
}

var clerks = []auth.Clerk{
	{ID: "c-3", Email: "sam@example.com", FirstName: "Sam", Enabled: true},
	{ID: "c-1", Email: "ana@example.com", FirstName: "Ana", LastName: "Ruiz", Enabled: true},
	{ID: "c-2", Email: "lee@example.com", FirstName: "Lee", Enabled: true},
	{ID: "c-0", Email: "off@example.com", Enabled: false},
}

func expectWorkloads(mock sqlmock.Sqlmock, loads map[string]int) {
	rows := sqlmock.NewRows([]string{"clerk_id", "count"})
	for id, n := range loads {
		rows.AddRow(id, n)
	}
	mock.ExpectQuery(`SELECT clerk_id, COUNT\(\*\) FROM assessments`).WillReturnRows(rows)
}

func TestLeastLoaded(t *testing.T) {
	tests := []struct {
		name      string
		workloads map[string]int
		expected  string
	}{
		{name: "no workload ties broken by id", workloads: nil, expected: "c-1"},
		{name: "fewest open reviews", workloads: map[string]int{"c-1": 4, "c-2": 1, "c-3": 2}, expected: "c-2"},
		{name: "tie between loaded clerks", workloads: map[string]int{"c-1": 2, "c-2": 1, "c-3": 1}, expected: "c-2"},
		{name: "disabled clerk ignored even when idle", workloads: map[string]int{"c-1": 1, "c-2": 1, "c-3": 1}, expected: "c-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := LeastLoaded(clerks, tt.workloads)
			require.True(t, ok)
			assert.Equal(t, tt.expected, c.ID)
		})
	}

	_, ok := LeastLoaded([]auth.Clerk{{ID: "c-9", Enabled: false}}, nil)
	assert.False(t, ok)
}

func TestExecute_AssignsLeastLoaded(t *testing.T) {
	db, mock := storetest.NewMock(t)
	h := NewHandler(LoadConfig(config.WorkerConfig{}), store.NewRepository(db), &fakeDirectory{clerks: clerks}, logger.NewTestLogger(t))

	expectWorkloads(mock, map[string]int{"c-1": 3, "c-2": 0, "c-3": 1})
	written := storetest.ExpectUpdate(mock, &models.Assessment{ID: "a-1", Type: models.TypeIRL, Tier: models.TierPremium})

	out, err := h.Execute(context.Background(), &Input{AssessmentID: "a-1"})
	require.NoError(t, err)

	assert.Equal(t, "c-2", out.ClerkID)
	assert.Equal(t, "Lee", out.ClerkName)
	assert.Equal(t, "lee@example.com", out.ClerkEmail)
	assert.False(t, out.AlreadyAssigned)
	assert.Equal(t, "c-2", written.ClerkID)
	assert.Equal(t, models.ReviewPending, written.ReviewStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_KeepsExistingAssignment(t *testing.T) {
	db, mock := storetest.NewMock(t)
	h := NewHandler(LoadConfig(config.WorkerConfig{}), store.NewRepository(db), &fakeDirectory{clerks: clerks}, logger.NewTestLogger(t))

	expectWorkloads(mock, map[string]int{"c-3": 5})
	written := storetest.ExpectUpdate(mock, &models.Assessment{ID: "a-2", Type: models.TypeIRL, Tier: models.TierStandard, ClerkID: "c-3", ReviewStatus: models.ReviewInReview})

	out, err := h.Execute(context.Background(), &Input{AssessmentID: "a-2"})
	require.NoError(t, err)
	assert.True(t, out.AlreadyAssigned)
	assert.Equal(t, "c-3", out.ClerkID)
	assert.Equal(t, 5, out.OpenReviews)
	assert.Equal(t, models.ReviewInReview, written.ReviewStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_NoClerkAvailable(t *testing.T) {
	tests := []struct {
		name      string
		directory Directory
		setup     func(mock sqlmock.Sqlmock)
	}{
		{
			name:      "directory not configured",
			directory: nil,
			setup:     func(mock sqlmock.Sqlmock) {},
		},
		{
			name:      "every clerk disabled",
			directory: &fakeDirectory{clerks: []auth.Clerk{{ID: "c-0", Enabled: false}}},
			setup: func(mock sqlmock.Sqlmock) {
				expectWorkloads(mock, nil)
				storetest.ExpectAbortedUpdate(mock, &models.Assessment{ID: "a-3", Type: models.TypeRRL, Tier: models.TierPremium})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := storetest.NewMock(t)
			h := NewHandler(LoadConfig(config.WorkerConfig{}), store.NewRepository(db), tt.directory, logger.NewTestLogger(t))
			tt.setup(mock)

			_, err := h.Execute(context.Background(), &Input{AssessmentID: "a-3"})
			assert.True(t, errors.Is(err, ErrNoClerk), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExecute_DirectoryFailureIsExternal(t *testing.T) {
	db, mock := storetest.NewMock(t)
	h := NewHandler(LoadConfig(config.WorkerConfig{}), store.NewRepository(db), &fakeDirectory{err: errors.New("connection refused")}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{AssessmentID: "a-4"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoClerk))
	assert.NoError(t, mock.ExpectationsWereMet())
}
