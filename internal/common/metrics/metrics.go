package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "HTTP requests served by the assessment API",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AIAnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_analysis_requests_total",
			Help: "Calls made to the AI analysis service by outcome",
		},
		[]string{"outcome"},
	)

	ScoringUnmatchedAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_unmatched_answers_total",
			Help: "Selected answers that matched no rubric option",
		},
		[]string{"assessment_type"},
	)

	AssessmentsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_finalized_total",
			Help: "Assessments finalized by type and readiness level",
		},
		[]string{"assessment_type", "readiness_level"},
	)
)
