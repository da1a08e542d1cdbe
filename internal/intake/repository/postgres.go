package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"loan-intake/internal/common/database"
	apperrors "loan-intake/internal/common/errors"
	"loan-intake/internal/models"
)

const (
	schemaQuery = `CREATE TABLE IF NOT EXISTS loan_applications (
	id             TEXT PRIMARY KEY,
	personal_info  JSONB,
	contact_info   JSONB,
	loan_info      JSONB,
	financial_info JSONB,
	is_finalized   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
)`

	selectColumns = `SELECT id, personal_info, contact_info, loan_info, financial_info, is_finalized, created_at, updated_at FROM loan_applications`

	findQuery = selectColumns + ` WHERE id = $1`

	loadAllQuery = selectColumns + ` ORDER BY created_at, id`

	upsertQuery = `INSERT INTO loan_applications
	(id, personal_info, contact_info, loan_info, financial_info, is_finalized, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	personal_info = EXCLUDED.personal_info,
	contact_info = EXCLUDED.contact_info,
	loan_info = EXCLUDED.loan_info,
	financial_info = EXCLUDED.financial_info,
	is_finalized = EXCLUDED.is_finalized,
	updated_at = EXCLUDED.updated_at`
)

// Postgres stores each record as one row with a JSONB column per category.
type Postgres struct {
	db *database.PostgresClient
}

func NewPostgres(db *database.PostgresClient) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the applications table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaQuery); err != nil {
		return apperrors.NewDatabaseWriteFailedError("ensure_schema", err)
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, id string) (*models.Application, error) {
	app, err := scanApplication(p.db.QueryRow(ctx, findQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("find_application", err)
	}
	return app, nil
}

func (p *Postgres) Upsert(ctx context.Context, app *models.Application) error {
	personal, err := jsonColumn(app.PersonalInfo)
	if err != nil {
		return apperrors.NewDatabaseWriteFailedError("encode_personal_info", err)
	}
	contact, err := jsonColumn(app.ContactInfo)
	if err != nil {
		return apperrors.NewDatabaseWriteFailedError("encode_contact_info", err)
	}
	loan, err := jsonColumn(app.LoanInfo)
	if err != nil {
		return apperrors.NewDatabaseWriteFailedError("encode_loan_info", err)
	}
	financial, err := jsonColumn(app.FinancialInfo)
	if err != nil {
		return apperrors.NewDatabaseWriteFailedError("encode_financial_info", err)
	}

	_, err = p.db.Exec(ctx, upsertQuery,
		app.ID, personal, contact, loan, financial, app.Finalized, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return apperrors.NewDatabaseWriteFailedError("upsert_application", err)
	}
	return nil
}

func (p *Postgres) LoadAll(ctx context.Context) ([]*models.Application, error) {
	rows, err := p.db.Query(ctx, loadAllQuery)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("load_applications", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError("scan_application", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("load_applications", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app                                models.Application
		personal, contact, loan, financial []byte
	)
	if err := row.Scan(&app.ID, &personal, &contact, &loan, &financial,
		&app.Finalized, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}

	if err := decodeColumn(personal, &app.PersonalInfo); err != nil {
		return nil, fmt.Errorf("personal_info: %w", err)
	}
	if err := decodeColumn(contact, &app.ContactInfo); err != nil {
		return nil, fmt.Errorf("contact_info: %w", err)
	}
	if err := decodeColumn(loan, &app.LoanInfo); err != nil {
		return nil, fmt.Errorf("loan_info: %w", err)
	}
	if err := decodeColumn(financial, &app.FinancialInfo); err != nil {
		return nil, fmt.Errorf("financial_info: %w", err)
	}
	return &app, nil
}

// jsonColumn encodes a category for a JSONB column; a nil category becomes SQL NULL.
func jsonColumn[T any](v *T) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func decodeColumn[T any](raw []byte, dst **T) error {
	if len(raw) == 0 {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}
