package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/finwatch/dividend-backend/models"
	"github.com/google/uuid"
)

// DividendStore is the Postgres-backed DividendRepository. Dedup relies on
// the dividend_company_date_unique constraint rather than a read-then-write
// existence check, so concurrent inserters cannot race past each other.
type DividendStore struct {
	DB *sql.DB
}

func NewDividendStore(db *sql.DB) *DividendStore {
	return &DividendStore{DB: db}
}

func (s *DividendStore) InsertIfNew(ctx context.Context, companyID uuid.UUID, event models.DividendEvent) (bool, error) {
	query := `INSERT INTO dividend (id, company_id, date, amount)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (company_id, date) DO NOTHING`

	result, err := s.DB.ExecContext(ctx, query, uuid.New(), companyID, event.Date, event.Amount)
	if err != nil {
		return false, fmt.Errorf("failed to insert dividend record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *DividendStore) SaveAll(ctx context.Context, companyID uuid.UUID, events []models.DividendEvent) error {
	for _, event := range events {
		if _, err := s.InsertIfNew(ctx, companyID, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *DividendStore) ExistsByCompanyAndDate(ctx context.Context, companyID uuid.UUID, date time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM dividend WHERE company_id = $1 AND date = $2)`

	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, companyID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check dividend existence: %w", err)
	}
	return exists, nil
}

func (s *DividendStore) FindAllByCompanyID(ctx context.Context, companyID uuid.UUID) ([]models.DividendRecord, error) {
	query := `SELECT id, company_id, date, amount, created_at FROM dividend
              WHERE company_id = $1
              ORDER BY date ASC`

	rows, err := s.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend records: %w", err)
	}
	defer rows.Close()

	records := []models.DividendRecord{}
	for rows.Next() {
		var record models.DividendRecord
		if err := rows.Scan(&record.ID, &record.CompanyID, &record.Date, &record.Amount, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dividend record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *DividendStore) DeleteAllByCompanyID(ctx context.Context, companyID uuid.UUID) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM dividend WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("failed to delete dividend records: %w", err)
	}
	return nil
}
