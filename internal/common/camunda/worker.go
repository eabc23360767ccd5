// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"marketplace-discovery/internal/common/config"
)

// JobHandler is implemented by every discovery job worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRecorder receives per-job telemetry.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration)
}

type instrumentedHandler struct {
	next     JobHandler
	recorder JobRecorder
	logger   *zap.Logger
	taskType string
}

// Instrument wraps h so every job it handles is counted and timed. A panic
// in h is logged and recorded; the job is left to time out and be retried
// by the broker.
func Instrument(taskType string, h JobHandler, rec JobRecorder, log *zap.Logger) JobHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &instrumentedHandler{next: h, recorder: rec, logger: log, taskType: taskType}
}

func (h *instrumentedHandler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	status := "handled"
	defer func() {
		if r := recover(); r != nil {
			status = "panicked"
			h.logger.Error("job handler panicked",
				zap.String("taskType", h.taskType),
				zap.Int64("jobKey", job.GetKey()),
				zap.Any("panic", r),
			)
		}
		if h.recorder != nil {
			ctx := context.Background()
			h.recorder.RecordJobProcessed(ctx, h.taskType, status)
			h.recorder.RecordJobDuration(ctx, h.taskType, time.Since(start))
		}
	}()

	h.next.Handle(client, job)
}

// Worker is one opened job subscription.
type Worker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// StartWorker opens a job worker for taskType unless it is disabled.
func (c *Client) StartWorker(taskType string, wcfg config.WorkerConfig, handler JobHandler, log *zap.Logger) *Worker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	jobWorker := c.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)

	w := &Worker{worker: jobWorker, logger: log, taskType: taskType}
	c.workers = append(c.workers, w)
	return w
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}
