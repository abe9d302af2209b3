package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name          string
		err           *StandardError
		expectedCode  string
		expectedRetry int
	}{
		{
			name:          "retryable ai failure",
			err:           NewAIAnalysisFailedError(fmt.Errorf("status 502")),
			expectedCode:  "AI_ANALYSIS_FAILED",
			expectedRetry: 3,
		},
		{
			name:          "timeout maps onto the ai failure boundary",
			err:           NewAIAnalysisTimeoutError(),
			expectedCode:  "AI_ANALYSIS_FAILED",
			expectedRetry: 2,
		},
		{
			name:          "business error is not retried",
			err:           NewClerkUnavailableError("group empty"),
			expectedCode:  "CLERK_UNAVAILABLE",
			expectedRetry: 0,
		},
		{
			name: "retryable code flagged non retryable",
			err: &StandardError{
				Code:      ErrCodeQueryExecutionFailed,
				Message:   "x",
				Retryable: false,
			},
			expectedCode:  "QUERY_EXECUTION_FAILED",
			expectedRetry: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmn.Code)
			assert.Equal(t, tt.expectedRetry, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.expectedCode, vars["errorCode"])
		})
	}
}

func TestResolve(t *testing.T) {
	retryable := NewQueryExecutionFailedError("update", fmt.Errorf("conn reset"))

	outcome := Resolve(3, retryable)
	assert.False(t, outcome.Throw)
	assert.Equal(t, int32(2), outcome.Retries)

	outcome = Resolve(1, retryable)
	assert.True(t, outcome.Throw)

	outcome = Resolve(3, fmt.Errorf("plain failure"))
	assert.True(t, outcome.Throw)
	assert.Equal(t, "INTERNAL_ERROR", outcome.BPMN.Code)
}

func TestAsStandard(t *testing.T) {
	assert.Nil(t, AsStandard(nil))

	wrapped := fmt.Errorf("load: %w", NewAssessmentNotFoundError("a-1"))
	stdErr := AsStandard(wrapped)
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodeAssessmentNotFound, stdErr.Code)

	other := AsStandard(New("boom"))
	assert.Equal(t, ErrCodeInternal, other.Code)
	assert.Equal(t, "boom", other.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeAIAnalysisTimeout))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexFailed))
	assert.Equal(t, "REVIEW", GetErrorCategory(ErrCodeClerkUnavailable))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeUnauthorized))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeResumeInvalid))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

func TestStandardError_WithMetadata(t *testing.T) {
	err := NewInvalidSubmissionError("resume missing").WithMetadata("field", "resume")
	assert.Equal(t, "resume", err.Metadata["field"])
	assert.Contains(t, err.Error(), "INVALID_SUBMISSION")
	assert.True(t, Is(fmt.Errorf("wrap: %w", err), err))
}
