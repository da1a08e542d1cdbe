// Package engine owns the lifecycle of an application record: it merges validated
// category submissions and gates finalization on the affordability check.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/intake/repository"
	"loan-intake/internal/intake/rules"
	"loan-intake/internal/models"
)

// Category names used in logs and metrics.
const (
	CategoryPersonal  = "personal"
	CategoryContact   = "contact"
	CategoryLoan      = "loan"
	CategoryFinancial = "financial"
)

const (
	msgIncomplete       = "Loan and financial information must be provided before finalizing"
	msgAlreadyFinalized = "application already finalized"
)

// Engine runs every operation as a find, mutate, upsert sequence against the repository.
// It holds no per-record state and does no locking.
type Engine struct {
	repo   repository.Repository
	rules  *rules.Rules
	newID  func() string
	now    func() time.Time
	logger logger.Logger
	obs    *observability.Observability
}

type Option func(*Engine)

func WithRules(r *rules.Rules) Option {
	return func(e *Engine) { e.rules = r }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithClock sets the clock used for record timestamps. It does not affect the rules.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(log logger.Logger) Option {
	return func(e *Engine) { e.logger = log }
}

func WithObservability(obs *observability.Observability) Option {
	return func(e *Engine) { e.obs = obs }
}

func New(repo repository.Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		rules:  rules.New(),
		newID:  uuid.NewString,
		now:    time.Now,
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitPersonal creates a record when id is empty, otherwise replaces the personal
// information of the existing record. An existing record is looked up before the
// payload is validated.
func (e *Engine) SubmitPersonal(ctx context.Context, in rules.PersonalInput, id string) (*models.Application, error) {
	if id != "" {
		return e.update(ctx, id, CategoryPersonal, func(app *models.Application) error {
			info, err := e.rules.Personal(in)
			if err != nil {
				return err
			}
			app.PersonalInfo = &info
			return nil
		})
	}

	info, err := e.rules.Personal(in)
	if err != nil {
		e.recordSubmission(CategoryPersonal, id, err)
		return nil, err
	}

	now := e.now().UTC()
	app := &models.Application{
		ID:           e.newID(),
		PersonalInfo: &info,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.repo.Upsert(ctx, app); err != nil {
		e.recordSubmission(CategoryPersonal, app.ID, err)
		return nil, err
	}

	e.logger.Info("application created", map[string]interface{}{"applicationId": app.ID})
	e.recordSubmission(CategoryPersonal, app.ID, nil)
	return app, nil
}

func (e *Engine) SubmitContact(ctx context.Context, id string, in rules.ContactInput) (*models.Application, error) {
	return e.update(ctx, id, CategoryContact, func(app *models.Application) error {
		info, err := e.rules.Contact(in)
		if err != nil {
			return err
		}
		app.ContactInfo = &info
		return nil
	})
}

// SubmitLoan checks the loan terms against the date of birth already on record.
func (e *Engine) SubmitLoan(ctx context.Context, id string, in rules.LoanInput) (*models.Application, error) {
	return e.update(ctx, id, CategoryLoan, func(app *models.Application) error {
		var birthDate *time.Time
		if d, ok := app.PersonalInfo.BirthDate(); ok {
			birthDate = &d
		}
		info, err := e.rules.Loan(in, birthDate)
		if err != nil {
			return err
		}
		app.LoanInfo = &info
		return nil
	})
}

func (e *Engine) SubmitFinancial(ctx context.Context, id string, in rules.FinancialInput) (*models.Application, error) {
	return e.update(ctx, id, CategoryFinancial, func(app *models.Application) error {
		info, err := e.rules.Financial(in)
		if err != nil {
			return err
		}
		app.FinancialInfo = &info
		return nil
	})
}

// Finalize runs the affordability check and marks the record finalized. Finalizing an
// already finalized record returns it unchanged.
func (e *Engine) Finalize(ctx context.Context, id string) (*models.Application, error) {
	log := e.logger.WithFields(map[string]interface{}{"applicationId": id})

	app, err := e.load(ctx, id)
	if err != nil {
		e.recordDecision(ctx, outcomeOf(err), 0)
		return nil, err
	}

	if app.Finalized {
		log.Info("application already finalized", nil)
		amount := 0
		if app.LoanInfo != nil {
			amount = app.LoanInfo.Amount
		}
		e.recordDecision(ctx, metrics.OutcomeRepeated, amount)
		return app, nil
	}

	if missing := app.MissingForFinalize(); len(missing) > 0 {
		e.recordDecision(ctx, metrics.OutcomeIncomplete, 0)
		return nil, apperrors.NewPreconditionFailedError(msgIncomplete, missing...)
	}

	assessment := Assess(*app.LoanInfo, *app.FinancialInfo)
	if !assessment.Affordable {
		log.Info("loan rejected as unaffordable", map[string]interface{}{
			"netMonthlyIncome":  assessment.NetMonthlyIncome.String(),
			"maxAffordableLoan": assessment.MaxAffordableLoan.String(),
			"requestedAmount":   assessment.RequestedAmount,
		})
		e.recordDecision(ctx, metrics.OutcomeUnaffordable, assessment.RequestedAmount)
		return nil, apperrors.NewLoanUnaffordableError(
			assessment.NetMonthlyIncome.InexactFloat64(),
			assessment.MaxAffordableLoan.InexactFloat64(),
			assessment.RequestedAmount,
		)
	}

	app.Finalized = true
	app.UpdatedAt = e.now().UTC()
	if err := e.repo.Upsert(ctx, app); err != nil {
		e.recordDecision(ctx, metrics.OutcomeError, assessment.RequestedAmount)
		return nil, err
	}

	log.Info("application finalized", map[string]interface{}{
		"maxAffordableLoan": assessment.MaxAffordableLoan.String(),
		"requestedAmount":   assessment.RequestedAmount,
	})
	e.recordDecision(ctx, metrics.OutcomeFinalized, assessment.RequestedAmount)
	return app, nil
}

func (e *Engine) Get(ctx context.Context, id string) (*models.Application, error) {
	return e.load(ctx, id)
}

func (e *Engine) ListAll(ctx context.Context) ([]*models.Application, error) {
	return e.repo.LoadAll(ctx)
}

// update applies one category change to an existing, unfinalized record. Nothing is
// written when mutate fails.
func (e *Engine) update(ctx context.Context, id, category string, mutate func(*models.Application) error) (*models.Application, error) {
	app, err := e.load(ctx, id)
	if err != nil {
		e.recordSubmission(category, id, err)
		return nil, err
	}

	if app.Finalized {
		err := apperrors.NewPreconditionFailedError(msgAlreadyFinalized)
		e.recordSubmission(category, id, err)
		return nil, err
	}

	if err := mutate(app); err != nil {
		e.recordSubmission(category, id, err)
		return nil, err
	}

	app.UpdatedAt = e.now().UTC()
	if err := e.repo.Upsert(ctx, app); err != nil {
		e.recordSubmission(category, id, err)
		return nil, err
	}

	e.recordSubmission(category, id, nil)
	return app, nil
}

func (e *Engine) load(ctx context.Context, id string) (*models.Application, error) {
	app, err := e.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (e *Engine) recordSubmission(category, id string, err error) {
	outcome := outcomeOf(err)
	metrics.IntakeSubmissions.WithLabelValues(category, outcome).Inc()

	fields := map[string]interface{}{
		"applicationId": id,
		"category":      category,
		"outcome":       outcome,
	}
	switch {
	case err == nil:
		e.logger.Debug("category accepted", fields)
	case outcome == metrics.OutcomeError:
		e.logger.Error("category submission failed", withError(fields, err))
	default:
		e.logger.Info("category rejected", withError(fields, err))
	}
}

func (e *Engine) recordDecision(ctx context.Context, outcome string, amount int) {
	metrics.IntakeFinalizeDecisions.WithLabelValues(outcome).Inc()
	e.obs.RecordDecision(ctx, outcome, amount)
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeAccepted
	}
	stdErr, ok := apperrors.AsStandard(err)
	if !ok {
		return metrics.OutcomeError
	}
	switch stdErr.Code {
	case apperrors.ErrCodeValidationFailed:
		return metrics.OutcomeRejected
	case apperrors.ErrCodeApplicationNotFound:
		return metrics.OutcomeNotFound
	case apperrors.ErrCodePreconditionFailed:
		return metrics.OutcomeLocked
	default:
		return metrics.OutcomeError
	}
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	fields["error"] = err.Error()
	return fields
}
