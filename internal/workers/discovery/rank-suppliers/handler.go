// internal/workers/discovery/rank-suppliers/handler.go
package ranksuppliers

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
	"marketplace-discovery/internal/discovery/pipeline"
	"marketplace-discovery/internal/models"
)

const (
	TaskType = "rank-suppliers"
)

var schema = validation.MustCompile(inputSchema)

// Discoverer runs listing queries.
type Discoverer interface {
	Discover(ctx context.Context, q pipeline.Query) (*models.ListingPage, error)
	DiscoverLanding(ctx context.Context, slug string, page, pageSize int) (*models.ListingPage, error)
}

type Handler struct {
	config       *Config
	discovery    Discoverer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, discovery Discoverer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		discovery:    discovery,
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

	input, err := parseInput(job.Variables)
	if err == nil {
		var output *Output
		if output, err = h.execute(ctx, input); err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			return
		}
	}

	stdErr := errors.AsStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

// parseInput validates raw job variables against the input schema before decoding.
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
	if input.LandingSlug != "" {
		if input.CategorySlug != "" || input.LocationSlug != "" || input.Term != "" {
			return nil, errors.NewInvalidInputError("landingSlug cannot be combined with other selectors")
		}
		page, err := h.discovery.DiscoverLanding(ctx, input.LandingSlug, input.Page, input.PageSize)
		if err != nil {
			return nil, err
		}
		return &Output{Result: page}, nil
	}

	page, err := h.discovery.Discover(ctx, pipeline.Query{
		CategorySlug: input.CategorySlug,
		LocationSlug: input.LocationSlug,
		Term:         input.Term,
		Page:         input.Page,
		PageSize:     input.PageSize,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("listing ranked", map[string]interface{}{
		"kind":  string(page.Kind),
		"total": page.Total,
		"page":  page.Page,
	})
	return &Output{Result: page}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
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
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
