// internal/workers/assessment/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"career-readiness/internal/common/camunda"
	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/models"
	"career-readiness/internal/reconcile"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

var (
	ErrUnknownNotification = errors.New("UNKNOWN_NOTIFICATION_TYPE")
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, text, html string) (string, error)
}

type SMSSender interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

type Assessments interface {
	Get(ctx context.Context, id string) (*models.Assessment, error)
}

type Handler struct {
	config *Config
	repo   Assessments
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
	now    func() time.Time
}

// NewHandler takes nil senders for channels that are not configured.
func NewHandler(config *Config, repo Assessments, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		repo:   repo,
		email:  email,
		sms:    sms,
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
		if errors.Is(err, ErrUnknownNotification) {
			camunda.FailJob(client, job, ErrUnknownNotification.Error(), err.Error(), 0, h.logger)
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
	tmpl, ok := templates[input.NotificationType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotification, input.NotificationType)
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         models.NotificationDisabled,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	recipient, err := h.recipient(ctx, input)
	if err != nil {
		return nil, err
	}
	if recipient.Email == "" && recipient.Phone == "" {
		h.logger.Warn("no contact for notification", map[string]interface{}{
			"assessmentId":     input.AssessmentID,
			"notificationType": input.NotificationType,
		})
		return output, nil
	}

	data := h.templateData(input, recipient)
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)

	if h.config.EmailEnabled && h.email != nil && recipient.Email != "" {
		id, err := h.email.Send(ctx, recipient.Email, subject, body, htmlBody(body))
		if err != nil {
			return nil, apperrors.NewNotificationSendFailedError(input.NotificationType, err)
		}
		output.EmailID = id
		output.Status = models.NotificationSent
	}

	if tmpl.SMS != "" && h.config.SMSEnabled && h.sms != nil && recipient.Phone != "" {
		id, err := h.sms.Send(ctx, recipient.Phone, renderTemplate(tmpl.SMS, data))
		if err != nil {
			// sms is best effort and never retried
			h.logger.Error("sms send failed", map[string]interface{}{
				"assessmentId": input.AssessmentID,
				"error":        err,
			})
			if output.Status != models.NotificationSent {
				output.Status = models.NotificationFailed
			}
		} else {
			output.SMSID = id
			output.Status = models.NotificationSent
		}
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"assessmentId":     input.AssessmentID,
		"notificationType": input.NotificationType,
		"status":           output.Status,
	})
	return output, nil
}

// recipient is the clerk for assignment notices and the assessment owner
// otherwise. Missing owner contact details are read from the assessment.
func (h *Handler) recipient(ctx context.Context, input *Input) (models.Recipient, error) {
	if input.NotificationType == models.NotifyClerkAssigned {
		return models.Recipient{Name: input.ClerkName, Email: input.ClerkEmail}, nil
	}

	r := models.Recipient{Name: input.RecipientName, Email: input.RecipientEmail, Phone: input.RecipientPhone}
	if r.Email != "" || h.repo == nil {
		return r, nil
	}

	a, err := h.repo.Get(ctx, input.AssessmentID)
	if err != nil {
		return r, err
	}
	r.UserID = a.UserID
	if p := a.Data.PersonalInfo; p != nil {
		r.Name, r.Email, r.Phone = p.FullName, p.Email, p.Phone
	}
	if input.AssessmentType == "" {
		input.AssessmentType = a.Type
	}
	if input.ReadinessLevel == "" {
		input.ReadinessLevel = a.Data.ReadinessLevel
	}
	if input.ResultsPath == "" {
		input.ResultsPath = reconcile.ResultsPath(a.Type, a.ID)
		if reconcile.RequiresManualReview(a.Tier, a.ManualProcessing, a.Data.ManualProcessingOnly) {
			input.ResultsPath = reconcile.TierResultsPath(a.Type, a.ID, a.Tier)
		}
	}
	return r, nil
}

func (h *Handler) templateData(input *Input, r models.Recipient) map[string]interface{} {
	name := r.Name
	if name == "" {
		name = "there"
	}
	data := map[string]interface{}{
		"brand":          h.config.BrandName,
		"name":           name,
		"clerkName":      input.ClerkName,
		"assessmentId":   input.AssessmentID,
		"assessmentType": strings.ToUpper(input.AssessmentType),
		"readinessLevel": input.ReadinessLevel,
		"resultsUrl":     h.config.PublicURL + input.ResultsPath,
		"adminUrl":       h.config.PublicURL + "/admin/assessments/" + input.AssessmentID,
	}
	if input.FinalScore != nil {
		data["finalScore"] = *input.FinalScore
	}
	return data
}

func htmlBody(text string) string {
	paragraphs := strings.Split(strings.TrimSpace(text), "\n\n")
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(p), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
