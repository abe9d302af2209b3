// internal/workers/assessment/route-assessment-processing/handler.go
package routeassessmentprocessing

import (
	"context"
	"encoding/json"
	"fmt"

	"career-readiness/internal/common/camunda"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/models"
	"career-readiness/internal/reconcile"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "route-assessment-processing"
)

type Assessments interface {
	Update(ctx context.Context, id string, fn func(a *models.Assessment) error) (*models.Assessment, error)
}

// RouteCache remembers the branch taken for an assessment so a re-run
// instance follows the same one until the entry is invalidated.
type RouteCache interface {
	GetRoute(ctx context.Context, id string) (string, bool)
	SetRoute(ctx context.Context, id, mode string) error
}

type Handler struct {
	config *Config
	repo   Assessments
	cache  RouteCache
	logger logger.Logger
}

func NewHandler(config *Config, repo Assessments, cache RouteCache, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		repo:   repo,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		camunda.FailJob(client, job, "ROUTING_FAILED", fmt.Sprintf("%s: %v", code, err), retries, h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	cachedMode, cached := h.cache.GetRoute(ctx, input.AssessmentID)
	if cached && cachedMode != models.ModeAI && cachedMode != models.ModeManual {
		cached = false
	}

	output := &Output{Cached: cached}
	_, err := h.repo.Update(ctx, input.AssessmentID, func(a *models.Assessment) error {
		mode := models.ProcessingMode(a.Tier, a.ManualProcessing)
		if cached {
			if cachedMode != mode {
				h.logger.Warn("keeping cached route that no longer matches tier", map[string]interface{}{
					"assessmentId": a.ID,
					"cachedMode":   cachedMode,
					"currentMode":  mode,
				})
			}
			mode = cachedMode
		}

		route(a, mode)
		output.ProcessingMode = mode
		output.ManualProcessingOnly = a.Data.ManualProcessingOnly
		if mode == models.ModeManual {
			output.ResultsPath = reconcile.TierResultsPath(a.Type, a.ID, a.Tier)
		} else {
			output.ResultsPath = reconcile.ResultsPath(a.Type, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !cached {
		if err := h.cache.SetRoute(ctx, input.AssessmentID, output.ProcessingMode); err != nil {
			h.logger.Warn("failed to cache route", map[string]interface{}{
				"assessmentId": input.AssessmentID,
				"error":        err,
			})
		}
	}

	h.logger.Info("assessment routed", map[string]interface{}{
		"assessmentId":   input.AssessmentID,
		"processingMode": output.ProcessingMode,
		"cached":         cached,
	})
	return output, nil
}

// route sets the flags the results page reads to pick its screen.
func route(a *models.Assessment, mode string) {
	if a.Status == models.StatusPending {
		a.Status = models.StatusInProgress
	}

	d := &a.Data
	if mode == models.ModeManual {
		d.ManualProcessingOnly = true
		d.RedirectRequired = true
		d.ShowProcessingScreen = false
		d.ProcessingMessage = ""
		if a.ReviewStatus == "" {
			a.ReviewStatus = models.ReviewPending
		}
		return
	}

	d.ManualProcessingOnly = false
	d.RedirectRequired = false
	d.ShowProcessingScreen = true
	d.ProcessingMessage = reconcile.DefaultProcessingMessage
}
