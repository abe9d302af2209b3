package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler turns a worker error into either a failed job with retries or a thrown BPMN error.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// JobFailure is the resolved outcome for a failing job.
type JobFailure struct {
	BPMN    *BPMNError
	Throw   bool
	Retries int32
}

// Resolve decides what to do with err for a job that still has remaining retries.
func Resolve(remaining int32, err error) JobFailure {
	stdErr := AsStandard(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	if bpmnErr.Retries > 0 && remaining > 1 {
		return JobFailure{BPMN: bpmnErr, Retries: remaining - 1}
	}
	return JobFailure{BPMN: bpmnErr, Throw: true}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	outcome := Resolve(job.Retries, err)

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"bpmnErrorCode":    outcome.BPMN.Code,
		"message":          outcome.BPMN.Message,
		"details":          outcome.BPMN.Details,
		"retryable":        outcome.BPMN.Retryable,
		"remainingRetries": outcome.Retries,
		"throw":            outcome.Throw,
		"errorCategory":    GetErrorCategory(ErrorCode(outcome.BPMN.Code)),
		"workflowInstance": job.ProcessInstanceKey,
	})

	varsJSON, _ := json.Marshal(outcome.BPMN.ToErrorVariables())

	if !outcome.Throw {
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(outcome.Retries).
			ErrorMessage(outcome.BPMN.Message)
		if withVars, verr := cmd.VariablesFromString(string(varsJSON)); verr == nil {
			_, _ = withVars.Send(ctx)
			return
		}
		_, _ = cmd.Send(ctx)
		return
	}

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(outcome.BPMN.Code).
		ErrorMessage(outcome.BPMN.Message)
	if withVars, verr := cmd.VariablesFromString(string(varsJSON)); verr == nil {
		_, _ = withVars.Send(ctx)
		return
	}
	_, _ = cmd.Send(ctx)
}
