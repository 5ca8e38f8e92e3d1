package services

import (
	"context"

	"github.com/finwatch/dividend-backend/models"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/sirupsen/logrus"
)

// FinanceService serves dividend reads through the cache. Cache population
// and invalidation are explicit calls, not interceptors, so the ordering
// between store reads and cache writes stays visible and testable.
type FinanceService struct {
	companies CompanyRepository
	dividends DividendRepository
	cache     *DividendCache
}

func NewFinanceService(companies CompanyRepository, dividends DividendRepository, cache *DividendCache) *FinanceService {
	return &FinanceService{
		companies: companies,
		dividends: dividends,
		cache:     cache,
	}
}

// GetDividendsByCompanyName returns the company and its full dividend list,
// read through the cache: on a miss it materializes from the store, caches
// the result under the company name, and returns it. An unknown name is a
// typed not-found condition.
func (s *FinanceService) GetDividendsByCompanyName(ctx context.Context, companyName string) (*models.ScrapedResult, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "FinanceService",
		"company":   companyName,
	})

	if cached, found := s.cache.Get(companyName); found {
		logger.Debug("Serving dividends from cache")
		return cached, nil
	}

	company, err := s.companies.FindByName(ctx, companyName)
	if err != nil {
		return nil, err
	}
	if company == nil {
		logger.Warn("Company lookup by name failed")
		return nil, &shared.CompanyNotFoundError{Key: companyName}
	}

	records, err := s.dividends.FindAllByCompanyID(ctx, company.ID)
	if err != nil {
		return nil, err
	}

	events := make([]models.DividendEvent, 0, len(records))
	for _, record := range records {
		events = append(events, record.Event())
	}

	result := &models.ScrapedResult{
		Company:   *company,
		Dividends: events,
	}
	s.cache.Put(companyName, result)

	logger.WithField("dividend_count", len(events)).Debug("Materialized dividends from store")
	return result, nil
}
