package camunda

import (
	"context"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"loan-intake/internal/common/config"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
)

// Job outcomes recorded per handled job.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeThrown    = "error_thrown"
	OutcomeUnknown   = "unreported"
)

type jobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// Registry opens job workers on one Zeebe client and closes them together.
type Registry struct {
	client  zbc.Client
	obs     jobRecorder
	logger  logger.Logger
	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewRegistry(client zbc.Client, obs *observability.Observability, log logger.Logger) *Registry {
	return &Registry{
		client:  client,
		obs:     obs,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled in wcfg.
func (r *Registry) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	jobWorker := r.client.NewJobWorker().
		JobType(taskType).
		Handler(r.instrument(taskType, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	r.mu.Lock()
	r.workers[taskType] = jobWorker
	r.mu.Unlock()

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
}

func (r *Registry) instrument(taskType string, handler worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		tracked := &outcomeClient{JobClient: client, outcome: OutcomeUnknown}
		handler(tracked, job)
		ctx := context.Background()
		r.obs.RecordJobProcessed(ctx, taskType, tracked.outcome)
		r.obs.RecordJobDuration(ctx, taskType, time.Since(start), tracked.outcome)
	}
}

// outcomeClient remembers the last command a handler built for its job.
type outcomeClient struct {
	worker.JobClient
	outcome string
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.outcome = OutcomeCompleted
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.outcome = OutcomeFailed
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.outcome = OutcomeThrown
	return c.JobClient.NewThrowErrorCommand()
}

// Running lists the task types with an open worker.
func (r *Registry) Running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.workers))
	for taskType := range r.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops polling and waits for in-flight jobs to finish.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for taskType, w := range r.workers {
		r.logger.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		w.Close()
		w.AwaitClose()
	}
	r.workers = make(map[string]worker.JobWorker)
}
