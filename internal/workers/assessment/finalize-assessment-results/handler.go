package finalizeassessmentresults

import (
	"context"
	"encoding/json"
	"fmt"

	"career-readiness/internal/common/camunda"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/common/metrics"
	"career-readiness/internal/models"
	"career-readiness/internal/reconcile"
	"career-readiness/internal/results"
	"career-readiness/internal/search"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "finalize-assessment-results"
)

type Assessments interface {
	Update(ctx context.Context, id string, fn func(a *models.Assessment) error) (*models.Assessment, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context, id string) error
}

type Indexer interface {
	Upsert(ctx context.Context, doc search.Document) error
}

type Handler struct {
	config  *Config
	repo    Assessments
	cache   Invalidator
	indexer Indexer
	logger  logger.Logger
}

// NewHandler accepts a nil indexer when search is not configured.
func NewHandler(config *Config, repo Assessments, cache Invalidator, indexer Indexer, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		repo:    repo,
		cache:   cache,
		indexer: indexer,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		code, retries := camunda.StandardFailure(err)
		camunda.FailJob(client, job, code, err.Error(), retries, h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var outcome *results.Outcome
	updated, err := h.repo.Update(ctx, input.AssessmentID, func(a *models.Assessment) error {
		var err error
		if outcome, err = results.Finalize(a, h.config.DefaultScore); err != nil {
			return err
		}
		a.Status = models.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := h.cache.Invalidate(ctx, updated.ID); err != nil {
		h.logger.Warn("failed to invalidate results cache", map[string]interface{}{
			"assessmentId": updated.ID,
			"error":        err,
		})
	}
	if h.indexer != nil {
		if err := h.indexer.Upsert(ctx, search.DocumentFrom(updated)); err != nil {
			h.logger.Warn("failed to index assessment", map[string]interface{}{
				"assessmentId": updated.ID,
				"error":        err,
			})
		}
	}
	metrics.AssessmentsFinalized.WithLabelValues(updated.Type, outcome.ReadinessLevel).Inc()

	output := &Output{
		FinalScore:     outcome.FinalScore,
		ReadinessLevel: outcome.ReadinessLevel,
		UsedDefaults:   outcome.UsedDefaults,
		ResultsPath:    reconcile.ResultsPath(updated.Type, updated.ID),
	}
	if reconcile.RequiresManualReview(updated.Tier, updated.ManualProcessing, updated.Data.ManualProcessingOnly) {
		output.ResultsPath = reconcile.TierResultsPath(updated.Type, updated.ID, updated.Tier)
	}
	if p := updated.Data.PersonalInfo; p != nil {
		output.RecipientName = p.FullName
		output.RecipientEmail = p.Email
		output.RecipientPhone = p.Phone
	}

	h.logger.Info("assessment finalized", map[string]interface{}{
		"assessmentId":   updated.ID,
		"finalScore":     output.FinalScore,
		"readinessLevel": output.ReadinessLevel,
		"usedDefaults":   output.UsedDefaults,
	})
	return output, nil
}
