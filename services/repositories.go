package services

import (
	"context"
	"time"

	"github.com/finwatch/dividend-backend/models"
	"github.com/google/uuid"
)

// CompanyRepository is the persistence contract for tracked companies. The
// Postgres implementation is CompanyStore.
type CompanyRepository interface {
	Save(ctx context.Context, company *models.Company) error
	ExistsByTicker(ctx context.Context, ticker string) (bool, error)
	FindByTicker(ctx context.Context, ticker string) (*models.Company, error)
	FindByName(ctx context.Context, name string) (*models.Company, error)
	// FindNamesByPrefix is the store-backed prefix search: case-insensitive,
	// ordered by name, capped at limit. It is a separate code path from the
	// in-memory autocomplete index and the two need not agree at any instant.
	FindNamesByPrefix(ctx context.Context, prefix string, limit int) ([]string, error)
	List(ctx context.Context, page, perPage int) (*models.CompanyPage, error)
	// ListAll returns every tracked company in stable listing order; the
	// ingestion scheduler iterates this.
	ListAll(ctx context.Context) ([]models.Company, error)
	// DeleteWithDividends removes the company and all its dividend records as
	// one transaction.
	DeleteWithDividends(ctx context.Context, companyID uuid.UUID) error
}

// DividendRepository is the persistence contract for dividend records. The
// Postgres implementation is DividendStore.
type DividendRepository interface {
	// InsertIfNew persists the event unless a record with the same
	// (companyID, date) already exists, and reports whether an insert
	// occurred. The dedup contract: at most one record per company per date.
	InsertIfNew(ctx context.Context, companyID uuid.UUID, event models.DividendEvent) (bool, error)
	SaveAll(ctx context.Context, companyID uuid.UUID, events []models.DividendEvent) error
	ExistsByCompanyAndDate(ctx context.Context, companyID uuid.UUID, date time.Time) (bool, error)
	FindAllByCompanyID(ctx context.Context, companyID uuid.UUID) ([]models.DividendRecord, error)
	DeleteAllByCompanyID(ctx context.Context, companyID uuid.UUID) error
}
