package camunda

import (
	"context"

	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// CompleteJob completes job with output as its variables.
func CompleteJob(client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
	log.Info("job completed successfully", map[string]interface{}{"jobKey": job.Key})
}

// FailJob hands the job back to the broker with fewer retries while retries
// is positive and the job has attempts left; otherwise errorCode is thrown as
// a BPMN error for the process to catch.
func FailJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32, log logger.Logger) {
	remaining := job.Retries - 1
	if retries < remaining {
		remaining = retries
	}

	log.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      remaining,
	})
	metrics.WorkerJobsFailed.WithLabelValues(job.Type, errorCode).Inc()

	if remaining > 0 {
		_, err := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(remaining).
			ErrorMessage(errorCode + ": " + errorMessage).
			Send(context.Background())
		if err != nil {
			log.Error("failed to send fail job command", map[string]interface{}{"error": err})
		}
		return
	}

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		log.Error("failed to throw error", map[string]interface{}{"error": err})
	}
}

// StandardFailure maps a StandardError (or anything else, as INTERNAL_ERROR)
// to a BPMN code and its retry budget.
func StandardFailure(err error) (string, int32) {
	std := apperrors.AsStandard(err)
	if !std.Retryable {
		return string(std.Code), 0
	}
	return string(std.Code), int32(apperrors.GetRetryCount(std.Code))
}
