// internal/workers/assessment/assign-clerk/handler.go
package assignclerk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"career-readiness/internal/common/auth"
	"career-readiness/internal/common/camunda"
	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "assign-clerk"
)

var (
	ErrNoClerk = errors.New("CLERK_UNAVAILABLE")
)

type Directory interface {
	ListClerks(ctx context.Context) ([]auth.Clerk, error)
}

type Assessments interface {
	Update(ctx context.Context, id string, fn func(a *models.Assessment) error) (*models.Assessment, error)
	ClerkWorkloads(ctx context.Context) (map[string]int, error)
}

type Handler struct {
	config    *Config
	repo      Assessments
	directory Directory
	logger    logger.Logger
}

// NewHandler accepts a nil directory; every assignment then fails with
// CLERK_UNAVAILABLE.
func NewHandler(config *Config, repo Assessments, directory Directory, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		repo:      repo,
		directory: directory,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		if errors.Is(err, ErrNoClerk) {
			camunda.FailJob(client, job, ErrNoClerk.Error(), err.Error(), 0, h.logger)
			return
		}
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
	if h.directory == nil {
		return nil, fmt.Errorf("%w: clerk directory not configured", ErrNoClerk)
	}

	clerks, err := h.directory.ListClerks(ctx)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("keycloak", err)
	}
	byID := make(map[string]auth.Clerk, len(clerks))
	for _, c := range clerks {
		byID[c.ID] = c
	}

	workloads, err := h.repo.ClerkWorkloads(ctx)
	if err != nil {
		return nil, err
	}

	var output *Output
	_, err = h.repo.Update(ctx, input.AssessmentID, func(a *models.Assessment) error {
		if current, ok := byID[a.ClerkID]; ok && a.ClerkID != "" {
			output = &Output{
				ClerkID:         current.ID,
				ClerkName:       current.DisplayName(),
				ClerkEmail:      current.Email,
				OpenReviews:     workloads[current.ID],
				AlreadyAssigned: true,
			}
			return nil
		}

		clerk, ok := LeastLoaded(clerks, workloads)
		if !ok {
			return fmt.Errorf("%w: no enabled clerk among %d", ErrNoClerk, len(clerks))
		}
		a.ClerkID = clerk.ID
		if a.ReviewStatus == "" {
			a.ReviewStatus = models.ReviewPending
		}
		output = &Output{
			ClerkID:     clerk.ID,
			ClerkName:   clerk.DisplayName(),
			ClerkEmail:  clerk.Email,
			OpenReviews: workloads[clerk.ID],
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("clerk assigned", map[string]interface{}{
		"assessmentId":    input.AssessmentID,
		"clerkId":         output.ClerkID,
		"openReviews":     output.OpenReviews,
		"alreadyAssigned": output.AlreadyAssigned,
	})
	return output, nil
}

// LeastLoaded picks the enabled clerk with the fewest open reviews, lowest
// id first on ties.
func LeastLoaded(clerks []auth.Clerk, workloads map[string]int) (auth.Clerk, bool) {
	enabled := make([]auth.Clerk, 0, len(clerks))
	for _, c := range clerks {
		if c.Enabled && c.ID != "" {
			enabled = append(enabled, c)
		}
	}
	if len(enabled) == 0 {
		return auth.Clerk{}, false
	}
	sort.Slice(enabled, func(i, j int) bool {
		wi, wj := workloads[enabled[i].ID], workloads[enabled[j].ID]
		if wi != wj {
			return wi < wj
		}
		return enabled[i].ID < enabled[j].ID
	})
	return enabled[0], true
}
