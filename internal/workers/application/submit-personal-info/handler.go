package submitpersonalinfo

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loan-intake/internal/common/camunda"
	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/validation"
	"loan-intake/internal/intake/rules"
	"loan-intake/internal/models"
)

const TaskType = "submit-personal-info"

type Engine interface {
	SubmitPersonal(ctx context.Context, in rules.PersonalInput, id string) (*models.Application, error)
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

// Execute creates a new application, or replaces the personal information of an
// existing one when ApplicationID is set.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var personal rules.PersonalInput
	if err := validation.DecodeCategory(input.PersonalInfo, "personalInfo", validation.PersonalInfoSchema, &personal); err != nil {
		return nil, err
	}

	app, err := h.engine.SubmitPersonal(ctx, personal, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("personal info stored", map[string]interface{}{
		"applicationId": app.ID,
		"created":       input.ApplicationID == "",
	})

	return &Output{ApplicationID: app.ID, Application: app}, nil
}
