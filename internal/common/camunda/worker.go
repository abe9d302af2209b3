package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"career-readiness/internal/common/config"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Middleware decorates a job handler.
type Middleware func(worker.JobHandler) worker.JobHandler

// JobRecorder receives per-job telemetry.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration)
}

// InputValidator checks decoded job variables before the handler sees them.
type InputValidator func(variables map[string]interface{}) error

func Chain(handler worker.JobHandler, mws ...Middleware) worker.JobHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// Instrument tracks active jobs and handling time for taskType.
func Instrument(taskType string, rec JobRecorder) Middleware {
	return func(next worker.JobHandler) worker.JobHandler {
		return func(client worker.JobClient, job entities.Job) {
			start := time.Now()
			metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
			defer func() {
				metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
				elapsed := time.Since(start)
				metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
				if rec != nil {
					rec.RecordJobDuration(context.Background(), taskType, elapsed)
					rec.RecordJobProcessed(context.Background(), taskType, "handled")
				}
			}()
			next(client, job)
		}
	}
}

// ValidateInput throws INVALID_JOB_VARIABLES instead of invoking the handler when validate rejects the job.
func ValidateInput(taskType string, validate InputValidator, log logger.Logger) Middleware {
	return func(next worker.JobHandler) worker.JobHandler {
		if validate == nil {
			return next
		}
		return func(client worker.JobClient, job entities.Job) {
			var vars map[string]interface{}
			if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
				vars = map[string]interface{}{}
			}
			if err := validate(vars); err != nil {
				log.Warn("job variables rejected", map[string]interface{}{
					"taskType": taskType,
					"jobKey":   job.Key,
					"error":    err.Error(),
				})
				metrics.WorkerJobsFailed.WithLabelValues(taskType, "INVALID_JOB_VARIABLES").Inc()
				_, sendErr := client.NewThrowErrorCommand().
					JobKey(job.Key).
					ErrorCode("INVALID_JOB_VARIABLES").
					ErrorMessage(err.Error()).
					Send(context.Background())
				if sendErr != nil {
					log.Error("failed to throw error", map[string]interface{}{"error": sendErr})
				}
				return
			}
			next(client, job)
		}
	}
}

// Open starts a job worker for taskType. Disabled workers return nil.
func Open(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(fmt.Sprintf("career-readiness-%s", taskType)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})
	return jw
}
