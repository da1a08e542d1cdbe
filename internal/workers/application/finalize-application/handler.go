package finalizeapplication

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loan-intake/internal/common/camunda"
	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/intake/engine"
	"loan-intake/internal/models"
)

const TaskType = "finalize-application"

type Engine interface {
	Finalize(ctx context.Context, id string) (*models.Application, error)
}

type Handler struct {
	config *Config
	engine Engine
	logger logger.Logger
	runner *camunda.JobRunner
}

func NewHandler(config *Config, engine Engine, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: engine,
		logger: log,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, variables string) (interface{}, error) {
		var input Input
		if err := json.Unmarshal([]byte(variables), &input); err != nil {
			return nil, apperrors.NewInputParsingFailedError(err)
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.ApplicationID) == "" {
		return nil, apperrors.NewValidationFailedError([]apperrors.Violation{
			{Field: "applicationId", Reason: "is required"},
		})
	}

	app, err := h.engine.Finalize(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	out := &Output{
		ApplicationID: app.ID,
		Finalized:     app.Finalized,
		Application:   app,
	}
	if app.LoanInfo != nil && app.FinancialInfo != nil {
		assessment := engine.Assess(*app.LoanInfo, *app.FinancialInfo)
		out.NetMonthlyIncome = assessment.NetMonthlyIncome.Round(2).InexactFloat64()
		out.MaxAffordableLoan = assessment.MaxAffordableLoan.Round(2).InexactFloat64()
	}

	h.logger.Info("application finalized", map[string]interface{}{
		"applicationId":     app.ID,
		"maxAffordableLoan": out.MaxAffordableLoan,
	})
	return out, nil
}
