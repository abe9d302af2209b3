package aiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"career-readiness/internal/common/config"
	httpclient "career-readiness/internal/common/http"
	"career-readiness/internal/common/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const analyzePath = "/v1/assessments/analyze"

var (
	// ErrAnalysisTimeout is returned when the deadline expires before a response arrives.
	ErrAnalysisTimeout = errors.New("AI_ANALYSIS_TIMEOUT")
	// ErrAnalysisFailed covers transport errors and 5xx/429 after retries.
	ErrAnalysisFailed = errors.New("AI_ANALYSIS_FAILED")
	// ErrAnalysisRejected is a 4xx: the request itself is wrong and retrying will not help.
	ErrAnalysisRejected = errors.New("AI_ANALYSIS_REJECTED")
)

type FormScore struct {
	CategoryWeights  map[string]int `json:"categoryWeights"`
	RawTotalScore    int            `json:"rawTotalScore"`
	MaxPossibleScore int            `json:"maxPossibleScore"`
	FormPercentage   int            `json:"formPercentage"`
}

type Request struct {
	AssessmentID   string                 `json:"assessmentId"`
	AssessmentType string                 `json:"assessmentType"`
	Tier           string                 `json:"tier"`
	Answers        map[string]string      `json:"answers"`
	Categories     []string               `json:"categories"`
	FormScore      *FormScore             `json:"formScore,omitempty"`
	ResumeText     string                 `json:"resumeText,omitempty"`
	Qualification  map[string]interface{} `json:"qualification,omitempty"`
}

// Analysis is the service reply. Scores and Recommendations stay loosely
// typed; they go through the bundle parser and the recommendation
// normalizer before anyone reads them.
type Analysis struct {
	Success          bool                   `json:"success"`
	Message          string                 `json:"message,omitempty"`
	Scores           interface{}            `json:"scores"`
	Recommendations  interface{}            `json:"recommendations"`
	Summary          string                 `json:"summary"`
	Strengths        []string               `json:"strengths"`
	Improvements     []string               `json:"improvements"`
	CategoryAnalysis interface{}            `json:"categoryAnalysis"`
	ResumeAnalysis   interface{}            `json:"resumeAnalysis"`
	ResumeScore      *int                   `json:"resumeScore"`
	CareerFit        map[string]interface{} `json:"careerFit"`
}

// Analyzer is what the request-ai-analysis worker depends on.
type Analyzer interface {
	Analyze(ctx context.Context, req *Request) (*Analysis, error)
}

type Client struct {
	baseURL string
	http    *httpclient.Client
	tracer  trace.Tracer
}

func New(cfg config.AIServiceConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts := []httpclient.Option{httpclient.WithRetries(cfg.MaxRetries, 500*time.Millisecond)}
	if cfg.APIKey != "" {
		opts = append(opts, httpclient.WithHeader("Authorization", "Bearer "+cfg.APIKey))
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpclient.NewClient(timeout, opts...),
		tracer:  otel.Tracer("career-readiness/aiclient"),
	}
}

func (c *Client) Analyze(ctx context.Context, req *Request) (*Analysis, error) {
	ctx, span := c.tracer.Start(ctx, "ai.analyze", trace.WithAttributes(
		attribute.String("assessment.id", req.AssessmentID),
		attribute.String("assessment.type", req.AssessmentType),
		attribute.Bool("resume.present", req.ResumeText != ""),
	))
	defer span.End()

	var out Analysis
	err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+analyzePath, req, &out)
	if err == nil && !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "service reported failure"
		}
		err = fmt.Errorf("%w: %s", ErrAnalysisFailed, msg)
	}
	if err != nil {
		err = classify(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.AIAnalysisRequests.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	metrics.AIAnalysisRequests.WithLabelValues("ok").Inc()
	return &out, nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrAnalysisFailed):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrAnalysisTimeout
	}
	var se *httpclient.StatusError
	if errors.As(err, &se) && !se.Retryable() {
		return fmt.Errorf("%w: status %d", ErrAnalysisRejected, se.StatusCode)
	}
	return fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrAnalysisTimeout):
		return "timeout"
	case errors.Is(err, ErrAnalysisRejected):
		return "rejected"
	default:
		return "failed"
	}
}
