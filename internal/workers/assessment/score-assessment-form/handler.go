package scoreassessmentform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"career-readiness/internal/common/camunda"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/common/metrics"
	"career-readiness/internal/models"
	"career-readiness/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-assessment-form"
)

var (
	ErrUnknownAssessmentType = errors.New("UNKNOWN_ASSESSMENT_TYPE")
	ErrTypeMismatch          = errors.New("ASSESSMENT_TYPE_MISMATCH")
	ErrNoAnswers             = errors.New("NO_ANSWERS")
)

// Assessments is the slice of the repository this worker writes through.
type Assessments interface {
	Update(ctx context.Context, id string, fn func(a *models.Assessment) error) (*models.Assessment, error)
}

type Handler struct {
	config *Config
	repo   Assessments
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, repo Assessments, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		repo:   repo,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		camunda.FailJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0, h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		code, retries := classify(err)
		camunda.FailJob(client, job, code, err.Error(), retries, h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func classify(err error) (string, int32) {
	switch {
	case errors.Is(err, ErrUnknownAssessmentType):
		return "UNKNOWN_ASSESSMENT_TYPE", 0
	case errors.Is(err, ErrTypeMismatch):
		return "ASSESSMENT_TYPE_MISMATCH", 0
	case errors.Is(err, ErrNoAnswers):
		return "NO_ANSWERS", 0
	default:
		return camunda.StandardFailure(err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var output *Output

	_, err := h.repo.Update(ctx, input.AssessmentID, func(a *models.Assessment) error {
		if input.AssessmentType != "" && input.AssessmentType != a.Type {
			return fmt.Errorf("%w: job says %s, assessment is %s", ErrTypeMismatch, input.AssessmentType, a.Type)
		}
		rubric, err := scoring.RubricFor(a.Type)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownAssessmentType, a.Type)
		}
		if len(a.Data.Answers) == 0 {
			return fmt.Errorf("%w: assessment %s has no submitted answers", ErrNoAnswers, a.ID)
		}

		fs := scoring.Score(rubric, a.Data.Answers)
		estimated := rubric.FinalScore(fs.FormPercentage, nil)
		level := rubric.Readiness(estimated)

		if len(fs.Unmatched) > 0 {
			h.logger.Warn("answers did not match any rubric option", map[string]interface{}{
				"assessmentId":   a.ID,
				"assessmentType": a.Type,
				"categories":     fs.Unmatched,
			})
			metrics.ScoringUnmatchedAnswers.WithLabelValues(a.Type).Add(float64(len(fs.Unmatched)))
		}

		a.Data.FormScore = &models.FormScoreRecord{
			CategoryWeights:     fs.CategoryWeights,
			RawTotalScore:       fs.RawTotalScore,
			MaxPossibleScore:    fs.MaxPossibleScore,
			FormPercentage:      fs.FormPercentage,
			EstimatedFinalScore: estimated,
			ReadinessLevel:      level,
			Unmatched:           fs.Unmatched,
			ScoredAt:            h.now().UTC(),
		}
		if a.Status == models.StatusPending {
			a.Status = models.StatusInProgress
		}

		output = &Output{
			FormPercentage:      fs.FormPercentage,
			RawTotalScore:       fs.RawTotalScore,
			MaxPossibleScore:    fs.MaxPossibleScore,
			EstimatedFinalScore: estimated,
			ReadinessLevel:      level,
			UnmatchedCount:      len(fs.Unmatched),
			Unmatched:           fs.Unmatched,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("assessment form scored", map[string]interface{}{
		"assessmentId":        input.AssessmentID,
		"formPercentage":      output.FormPercentage,
		"estimatedFinalScore": output.EstimatedFinalScore,
		"readinessLevel":      output.ReadinessLevel,
	})
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
