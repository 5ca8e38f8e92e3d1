package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finwatch/dividend-backend/models"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// CompanyStore is the Postgres-backed CompanyRepository.
type CompanyStore struct {
	DB *sql.DB
}

func NewCompanyStore(db *sql.DB) *CompanyStore {
	return &CompanyStore{DB: db}
}

func (s *CompanyStore) Save(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now

	query := `INSERT INTO company (id, ticker, name, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5)`

	_, err := s.DB.ExecContext(ctx, query, company.ID, company.Ticker, company.Name, company.CreatedAt, company.UpdatedAt)
	if err != nil {
		// Two racing creates for one ticker both pass the existence check;
		// the unique constraint catches the loser, which must still surface
		// as a conflict rather than a generic storage error
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return &shared.TickerConflictError{Ticker: company.Ticker}
		}
		return fmt.Errorf("failed to insert company %s: %w", company.Ticker, err)
	}

	logrus.WithFields(logrus.Fields{
		"company_id": company.ID,
		"ticker":     company.Ticker,
		"name":       company.Name,
	}).Debug("Saved company")

	return nil
}

func (s *CompanyStore) ExistsByTicker(ctx context.Context, ticker string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM company WHERE ticker = $1)`

	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, ticker).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ticker existence: %w", err)
	}
	return exists, nil
}

func (s *CompanyStore) FindByTicker(ctx context.Context, ticker string) (*models.Company, error) {
	query := `SELECT id, ticker, name, created_at, updated_at FROM company WHERE ticker = $1`
	return s.scanCompany(s.DB.QueryRowContext(ctx, query, ticker))
}

func (s *CompanyStore) FindByName(ctx context.Context, name string) (*models.Company, error) {
	query := `SELECT id, ticker, name, created_at, updated_at FROM company WHERE name = $1`
	return s.scanCompany(s.DB.QueryRowContext(ctx, query, name))
}

func (s *CompanyStore) scanCompany(row *sql.Row) (*models.Company, error) {
	var company models.Company
	err := row.Scan(&company.ID, &company.Ticker, &company.Name, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan company: %w", err)
	}
	return &company, nil
}

// likeSpecials neutralizes LIKE metacharacters in user-supplied prefixes so a
// literal "%" or "_" in a query matches itself instead of acting as a wildcard.
var likeSpecials = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLikePattern(prefix string) string {
	return likeSpecials.Replace(prefix)
}

func (s *CompanyStore) FindNamesByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	query := `SELECT name FROM company
              WHERE LOWER(name) LIKE LOWER($1) || '%'
              ORDER BY name ASC
              LIMIT $2`

	rows, err := s.DB.QueryContext(ctx, query, escapeLikePattern(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies by name prefix: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan company name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *CompanyStore) List(ctx context.Context, page, perPage int) (*models.CompanyPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM company`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}

	query := `SELECT id, ticker, name, created_at, updated_at FROM company
              ORDER BY name ASC
              LIMIT $1 OFFSET $2`

	rows, err := s.DB.QueryContext(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	companies, err := scanCompanies(rows)
	if err != nil {
		return nil, err
	}

	return &models.CompanyPage{
		Companies:  companies,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

func (s *CompanyStore) ListAll(ctx context.Context) ([]models.Company, error) {
	// created_at then id keeps listing order stable across cycles
	query := `SELECT id, ticker, name, created_at, updated_at FROM company
              ORDER BY created_at ASC, id ASC`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list all companies: %w", err)
	}
	defer rows.Close()

	return scanCompanies(rows)
}

func scanCompanies(rows *sql.Rows) ([]models.Company, error) {
	companies := []models.Company{}
	for rows.Next() {
		var company models.Company
		if err := rows.Scan(&company.ID, &company.Ticker, &company.Name, &company.CreatedAt, &company.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

// DeleteWithDividends removes the company row and every dividend record that
// references it in a single transaction.
func (s *CompanyStore) DeleteWithDividends(ctx context.Context, companyID uuid.UUID) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dividend WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("failed to delete dividend records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM company WHERE id = $1`, companyID); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete transaction: %w", err)
	}

	logrus.WithField("company_id", companyID).Debug("Deleted company with dividend records")
	return nil
}
