// internal/workers/discovery/check-listing-eligibility/handler.go
package checklistingeligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"marketplace-discovery/internal/common/errors"
	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/common/metrics"
	"marketplace-discovery/internal/common/validation"
	"marketplace-discovery/internal/discovery/eligibility"
	"marketplace-discovery/internal/models"
)

const (
	TaskType = "check-listing-eligibility"
)

var schema = validation.MustCompile(inputSchema)

// SupplierReader loads one listing regardless of its publish state.
type SupplierReader interface {
	Supplier(ctx context.Context, id string) (*models.Supplier, error)
	SupplierImages(ctx context.Context, id string) ([]models.SupplierImage, error)
}

type Handler struct {
	config       *Config
	suppliers    SupplierReader
	gate         *eligibility.Gate
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, suppliers SupplierReader, gate *eligibility.Gate, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		suppliers:    suppliers,
		gate:         gate,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}
	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.AsStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func parseInput(variables string) (*Input, error) {
	result, err := schema.Validate(variables)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(result.Summary())
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	supplier, err := h.suppliers.Supplier(ctx, input.SupplierID)
	if err != nil {
		return nil, errors.NewUpstreamReadError("supplier", err)
	}
	if supplier == nil {
		return nil, errors.NewResourceNotFoundError("Supplier", "supplierId: "+input.SupplierID)
	}

	images, err := h.suppliers.SupplierImages(ctx, input.SupplierID)
	if err != nil {
		return nil, errors.NewUpstreamReadError("supplier images", err)
	}

	verdict := h.gate.Evaluate(*supplier, images)
	h.logger.Debug("listing evaluated", map[string]interface{}{
		"supplierId": input.SupplierID,
		"canPublish": verdict.CanPublish,
		"failed":     len(verdict.Reasons),
	})
	return &Output{
		CanPublish: verdict.CanPublish,
		Checks:     verdict.Checks,
		Reasons:    verdict.Reasons,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
