package camunda

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name          string
		failures      []error
		expectErr     bool
		expectedCalls int
		expectedCode  apperrors.ErrorCode
	}{
		{
			name:          "succeeds first time",
			expectedCalls: 1,
		},
		{
			name:          "recovers after transient failure",
			failures:      []error{errors.New("rpc error: code = Unavailable")},
			expectedCalls: 2,
		},
		{
			name:          "non retryable error returns immediately",
			failures:      []error{errors.New("process not found")},
			expectErr:     true,
			expectedCalls: 1,
			expectedCode:  "RESOURCE_NOT_FOUND",
		},
		{
			name: "exhausts retries",
			failures: []error{
				errors.New("deadline exceeded"),
				errors.New("deadline exceeded"),
				errors.New("deadline exceeded"),
			},
			expectErr:     true,
			expectedCalls: 3,
			expectedCode:  "TIMEOUT_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient()
			calls := 0
			result, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
				calls++
				if calls <= len(tt.failures) {
					return nil, tt.failures[calls-1]
				}
				return int64(42), nil
			}, "create-instance")

			assert.Equal(t, tt.expectedCalls, calls)
			if tt.expectErr {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, apperrors.AsStandard(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), result)
		})
	}
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("connection refused")
	}, "publish-message")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelay(t *testing.T) {
	rc := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoffDelay(rc, 0))
	assert.Equal(t, 4*time.Second, backoffDelay(rc, 2))
	assert.Equal(t, 5*time.Second, backoffDelay(rc, 5))
}

type recorder struct {
	mu        sync.Mutex
	processed []string
	durations int
}

func (r *recorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, taskType+":"+status)
}

func (r *recorder) RecordJobDuration(_ context.Context, _ string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations++
}

func TestChainAndInstrument(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next worker.JobHandler) worker.JobHandler {
			return func(client worker.JobClient, job entities.Job) {
				order = append(order, name)
				next(client, job)
			}
		}
	}

	rec := &recorder{}
	handled := false
	h := Chain(func(client worker.JobClient, job entities.Job) {
		handled = true
	}, tag("outer"), Instrument("score-assessment-form", rec), tag("inner"))

	h(nil, entities.Job{})

	assert.True(t, handled)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, []string{"score-assessment-form:handled"}, rec.processed)
	assert.Equal(t, 1, rec.durations)
}

func TestValidateInput_PassesValidJobs(t *testing.T) {
	var seen map[string]interface{}
	validate := func(vars map[string]interface{}) error {
		seen = vars
		return nil
	}

	handled := false
	h := ValidateInput("assign-clerk", validate, logger.NewNoOpLogger())(func(client worker.JobClient, job entities.Job) {
		handled = true
	})

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Variables: `{"assessmentId":"a-1"}`}}
	h(nil, job)

	assert.True(t, handled)
	assert.Equal(t, "a-1", seen["assessmentId"])
}
