package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
)

const reportTimeout = 10 * time.Second

// Executor runs one job against its raw variables and returns the completion variables.
type Executor func(ctx context.Context, variables string) (interface{}, error)

// JobRunner owns the lifecycle every worker shares: timeout, metrics, completion and
// failure reporting.
type JobRunner struct {
	taskType   string
	timeout    time.Duration
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewJobRunner(taskType string, timeout time.Duration, log logger.Logger) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobRunner{
		taskType:   taskType,
		timeout:    timeout,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
	}
}

func (r *JobRunner) Run(client worker.JobClient, job entities.Job, exec Executor) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(start).Seconds())
	}()

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	output, err := exec(ctx, job.Variables)

	// the job context may already be past its deadline
	reportCtx, reportCancel := context.WithTimeout(context.Background(), reportTimeout)
	defer reportCancel()

	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(stdErr.Code)).Inc()
		r.errHandler.HandleJobError(reportCtx, client, job, stdErr)
		return
	}

	r.completeJob(reportCtx, client, job, output)
}

func (r *JobRunner) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"error":  err,
			"jobKey": job.Key,
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"error":  err,
			"jobKey": job.Key,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	r.logger.Info("job completed successfully", map[string]interface{}{"jobKey": job.Key})
}
