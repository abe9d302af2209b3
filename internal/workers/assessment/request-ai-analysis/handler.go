package requestaianalysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"career-readiness/internal/aiclient"
	"career-readiness/internal/common/camunda"
	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/models"
	"career-readiness/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "request-ai-analysis"
)

type Assessments interface {
	Update(ctx context.Context, id string, fn func(a *models.Assessment) error) (*models.Assessment, error)
}

type Handler struct {
	config   *Config
	repo     Assessments
	analyzer aiclient.Analyzer
	logger   logger.Logger
}

func NewHandler(config *Config, repo Assessments, analyzer aiclient.Analyzer, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		repo:     repo,
		analyzer: analyzer,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Handle retries transient AI failures through the job's retry budget. Once
// that is spent, or the service rejected the request, the failure is stored
// on the assessment and the job completes so finalize can fall back to
// default scores.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
		"retries":     job.Retries,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		camunda.FailJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0, h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil && Retryable(err) && job.Retries > 1 {
		camunda.FailJob(client, job, code(err), err.Error(), h.config.MaxRetries, h.logger)
		return
	}
	if err != nil && isAnalysisError(err) {
		output, err = h.degrade(ctx, &input, err)
	}
	if err != nil {
		c, retries := camunda.StandardFailure(err)
		camunda.FailJob(client, job, c, err.Error(), retries, h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

// Retryable reports whether another attempt at the AI service may succeed.
func Retryable(err error) bool {
	return errors.Is(err, aiclient.ErrAnalysisFailed) || errors.Is(err, aiclient.ErrAnalysisTimeout)
}

func isAnalysisError(err error) bool {
	return Retryable(err) || errors.Is(err, aiclient.ErrAnalysisRejected)
}

func code(err error) string {
	if errors.Is(err, aiclient.ErrAnalysisTimeout) {
		return "AI_ANALYSIS_TIMEOUT"
	}
	return "AI_ANALYSIS_FAILED"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// Degrade records err on the assessment and reports the analysis as failed.
func (h *Handler) Degrade(ctx context.Context, input *Input, cause error) (*Output, error) {
	return h.degrade(ctx, input, cause)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := otel.Tracer(TaskType).Start(ctx, "worker.request-ai-analysis")
	defer span.End()
	span.SetAttributes(attribute.String("assessment.id", input.AssessmentID))

	var req *aiclient.Request
	_, err := h.repo.Update(ctx, input.AssessmentID, func(a *models.Assessment) error {
		rubric, err := scoring.RubricFor(a.Type)
		if err != nil {
			return apperrors.NewUnknownAssessmentTypeError(a.Type)
		}
		a.Data.AIAnalysisStarted = true
		a.Data.AIError = ""
		req = buildRequest(a, rubric)
		return nil
	})
	if err != nil {
		return nil, err
	}

	analysis, err := h.analyzer.Analyze(ctx, req)
	if err != nil {
		h.logger.Warn("ai analysis failed", map[string]interface{}{
			"assessmentId": input.AssessmentID,
			"error":        err,
		})
		return nil, err
	}

	output := &Output{}
	_, err = h.repo.Update(ctx, input.AssessmentID, func(a *models.Assessment) error {
		applyAnalysis(a, analysis)
		if b, ok := scoring.ParseBundle(a.Data.Scores); ok {
			overall := b.OverallScore
			output.OverallScore = &overall
		}
		output.ResumeScore = analysis.ResumeScore
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("ai analysis stored", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"hasScores":    output.OverallScore != nil,
		"hasResume":    output.ResumeScore != nil,
	})
	return output, nil
}

func (h *Handler) degrade(ctx context.Context, input *Input, cause error) (*Output, error) {
	message := fmt.Sprintf("AI analysis failed: %v", cause)
	_, err := h.repo.Update(ctx, input.AssessmentID, func(a *models.Assessment) error {
		a.Data.AIError = message
		a.Data.AIProcessed = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Warn("ai analysis abandoned, results will use defaults", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"error":        cause,
	})
	return &Output{AIFailed: true, AIError: message}, nil
}

func buildRequest(a *models.Assessment, rubric *scoring.Rubric) *aiclient.Request {
	req := &aiclient.Request{
		AssessmentID:   a.ID,
		AssessmentType: a.Type,
		Tier:           a.Tier,
		Answers:        a.Data.Answers,
		Categories:     rubric.CategoryKeys(),
		ResumeText:     a.Data.ResumeText,
		Qualification:  a.Data.Qualification,
	}
	fs := a.Data.FormScore
	if fs == nil {
		s := scoring.Score(rubric, a.Data.Answers)
		req.FormScore = &aiclient.FormScore{
			CategoryWeights:  s.CategoryWeights,
			RawTotalScore:    s.RawTotalScore,
			MaxPossibleScore: s.MaxPossibleScore,
			FormPercentage:   s.FormPercentage,
		}
		return req
	}
	req.FormScore = &aiclient.FormScore{
		CategoryWeights:  fs.CategoryWeights,
		RawTotalScore:    fs.RawTotalScore,
		MaxPossibleScore: fs.MaxPossibleScore,
		FormPercentage:   fs.FormPercentage,
	}
	return req
}

// applyAnalysis copies the reply onto the assessment. A flat score map is taken to
// be category scores.
func applyAnalysis(a *models.Assessment, an *aiclient.Analysis) {
	d := &a.Data
	if m, ok := an.Scores.(map[string]interface{}); ok && len(m) > 0 {
		_, nested := m["categoryScores"]
		_, overall := m["overallScore"]
		if !nested && !overall {
			m = map[string]interface{}{"categoryScores": m}
		}
		d.Scores = m
	}
	d.Recommendations = an.Recommendations
	d.Summary = an.Summary
	d.Strengths = an.Strengths
	d.Improvements = an.Improvements
	if m, ok := an.CategoryAnalysis.(map[string]interface{}); ok {
		d.CategoryAnalysis = m
	}
	d.CareerFit = an.CareerFit

	resume, _ := an.ResumeAnalysis.(map[string]interface{})
	if an.ResumeScore != nil {
		if resume == nil {
			resume = map[string]interface{}{}
		}
		resume["score"] = *an.ResumeScore
	}
	if resume != nil {
		d.ResumeAnalysis = resume
	}
	d.AIError = ""
}
