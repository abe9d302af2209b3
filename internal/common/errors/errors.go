package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeAssessmentNotFound  ErrorCode = "ASSESSMENT_NOT_FOUND"
	ErrCodeInvalidSubmission   ErrorCode = "INVALID_SUBMISSION"
	ErrCodeUnknownAssessment   ErrorCode = "UNKNOWN_ASSESSMENT_TYPE"
	ErrCodeInvalidStatus       ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeScoringFailed       ErrorCode = "SCORING_FAILED"
	ErrCodeRoutingFailed       ErrorCode = "ROUTING_FAILED"
	ErrCodeAIAnalysisFailed    ErrorCode = "AI_ANALYSIS_FAILED"
	ErrCodeAIAnalysisTimeout   ErrorCode = "AI_ANALYSIS_TIMEOUT"
	ErrCodeClerkUnavailable    ErrorCode = "CLERK_UNAVAILABLE"
	ErrCodeFinalizeFailed      ErrorCode = "FINALIZE_FAILED"
	ErrCodeResumeInvalid       ErrorCode = "RESUME_INVALID"
	ErrCodeResumeExtractFailed ErrorCode = "RESUME_EXTRACT_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexFailed       ErrorCode = "SEARCH_INDEX_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error shape shared by workers and the HTTP API.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// BPMNError is what a worker throws into the process.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewAssessmentNotFoundError(assessmentID string) *StandardError {
	return newError(ErrCodeAssessmentNotFound, "Assessment not found", "assessmentId: "+assessmentID, false)
}

func NewInvalidSubmissionError(details string) *StandardError {
	return newError(ErrCodeInvalidSubmission, "Submission failed validation", details, false)
}

func NewUnknownAssessmentTypeError(assessmentType string) *StandardError {
	return newError(ErrCodeUnknownAssessment, "Unknown assessment type", "type: "+assessmentType, false)
}

func NewInvalidStatusError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStatus, "Status transition not allowed", fmt.Sprintf("%s -> %s", from, to), false)
}

func NewScoringFailedError(details string) *StandardError {
	return newError(ErrCodeScoringFailed, "Form scoring failed", details, false)
}

func NewAIAnalysisFailedError(err error) *StandardError {
	return newError(ErrCodeAIAnalysisFailed, "AI analysis service error", err.Error(), true)
}

func NewAIAnalysisTimeoutError() *StandardError {
	return newError(ErrCodeAIAnalysisTimeout, "AI analysis service timeout", "request exceeded the configured timeout", true)
}

func NewClerkUnavailableError(details string) *StandardError {
	return newError(ErrCodeClerkUnavailable, "No clerk available for review", details, false)
}

func NewResumeInvalidError(details string) *StandardError {
	return newError(ErrCodeResumeInvalid, "Resume file rejected", details, false)
}

func NewResumeExtractFailedError(err error) *StandardError {
	return newError(ErrCodeResumeExtractFailed, "Resume text extraction failed", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewQueryTimeoutError(operation string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", "operation: "+operation, true)
}

func NewSearchQueryFailedError(err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error", err.Error(), true)
}

func NewIndexFailedError(documentID string, err error) *StandardError {
	return newError(ErrCodeIndexFailed, "Elasticsearch index error",
		fmt.Sprintf("documentId: %s, error: %s", documentID, err.Error()), true)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewUnauthorizedError(details string) *StandardError {
	return newError(ErrCodeUnauthorized, "Authentication required", details, false)
}

func NewForbiddenError(details string) *StandardError {
	return newError(ErrCodeForbidden, "Access denied", details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError("AUTHENTICATION_ERROR", "Authentication failed", details, false)
}

// BPMNErrorMapping lists codes whose BPMN error code differs from the internal one.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeAIAnalysisTimeout: "AI_ANALYSIS_FAILED",
	ErrCodeQueryTimeout:      "QUERY_EXECUTION_FAILED",
	ErrCodeInternal:          "INTERNAL_ERROR",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeIndexFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeAIAnalysisFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeAIAnalysisTimeout,
		ErrCodeResumeExtractFailed:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "AI_"):
		return "AI"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CLERK"):
		return "REVIEW"
	case strings.Contains(codeStr, "AUTH") || codeStr == string(ErrCodeForbidden):
		return "AUTH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "RESUME") ||
		strings.Contains(codeStr, "UNKNOWN") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// AsStandard extracts a StandardError from err, wrapping anything else as internal.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}
