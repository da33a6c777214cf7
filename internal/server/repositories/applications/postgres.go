// Package applications provides PostgreSQL-backed persistence for IPO
// application records.
package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dberezin/ipotrack/internal/common"
	"github.com/dberezin/ipotrack/internal/dbx"
	"github.com/dberezin/ipotrack/internal/server/models"
)

// PostgresRepository implements application storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query := `
		INSERT INTO ipo_applications
			(user_id, company_name, company_symbol, issue_size, price_per_share, total_shares, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		app.UserID, app.CompanyName, app.CompanySymbol,
		app.IssueSize, app.PricePerShare, app.TotalShares, app.Status,
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return app, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Application, error) {
	query := `
		SELECT id, user_id, company_name, company_symbol, issue_size, price_per_share,
		       total_shares, status, document_key, created_at
		FROM ipo_applications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select applications: %w", err)
	}
	defer rows.Close()

	var result []*models.Application
	for rows.Next() {
		var item models.Application
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.CompanyName, &item.CompanySymbol,
			&item.IssueSize, &item.PricePerShare, &item.TotalShares,
			&item.Status, &item.DocumentKey, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Application, error) {
	query := `
		SELECT id, user_id, company_name, company_symbol, issue_size, price_per_share,
		       total_shares, status, document_key, created_at
		FROM ipo_applications
		WHERE id = $1 AND user_id = $2
	`
	app := &models.Application{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&app.ID, &app.UserID, &app.CompanyName, &app.CompanySymbol,
		&app.IssueSize, &app.PricePerShare, &app.TotalShares,
		&app.Status, &app.DocumentKey, &app.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return app, nil
}

// SetDocumentKey records the object storage key of the supporting document.
// Returns common.ErrorNotFound when the application does not exist or is
// owned by another user.
func (r *PostgresRepository) SetDocumentKey(ctx context.Context, userID, id, key string) error {
	query := `
		UPDATE ipo_applications SET document_key = $1
		WHERE id = $2 AND user_id = $3
	`
	res, err := r.db.ExecContext(ctx, query, key, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
