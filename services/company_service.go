package services

import (
	"context"
	"strings"

	"github.com/finwatch/dividend-backend/models"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/sirupsen/logrus"
)

// autocompleteResultLimit caps the store-backed prefix search.
const autocompleteResultLimit = 10

// CompanyService owns the company lifecycle and keeps the derived structures
// (read cache, autocomplete index) consistent with the store. Ordering is the
// point: on create, the index entry is only added after the store writes
// succeed, so the index never advertises a name the store cannot resolve; on
// delete, the store is cleaned first and the cache/index follow best-effort.
type CompanyService struct {
	scraper   Scraper
	companies CompanyRepository
	dividends DividendRepository
	index     *CompanyNameIndex
	cache     *DividendCache
}

func NewCompanyService(scraper Scraper, companies CompanyRepository, dividends DividendRepository, index *CompanyNameIndex, cache *DividendCache) *CompanyService {
	return &CompanyService{
		scraper:   scraper,
		companies: companies,
		dividends: dividends,
		index:     index,
		cache:     cache,
	}
}

// Create tracks a new company: resolve the ticker to a canonical name, scrape
// its initial dividend history, persist both, then publish the name to the
// autocomplete index. A scraping failure aborts creation.
func (s *CompanyService) Create(ctx context.Context, ticker string) (*models.Company, error) {
	ticker = strings.TrimSpace(ticker)
	logger := logrus.WithFields(logrus.Fields{
		"component": "CompanyService",
		"ticker":    ticker,
	})
	logger.Info("Creating company")

	exists, err := s.companies.ExistsByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Warn("Ticker already tracked, refusing to create")
		return nil, &shared.TickerConflictError{Ticker: ticker}
	}

	company, err := s.scraper.ResolveCompany(ctx, ticker)
	if err != nil {
		logger.WithError(err).Error("Failed to resolve company, aborting creation")
		return nil, err
	}

	scraped, err := s.scraper.ScrapeHistory(ctx, *company)
	if err != nil {
		logger.WithError(err).Error("Failed to scrape initial dividend history, aborting creation")
		return nil, err
	}

	if err := s.companies.Save(ctx, company); err != nil {
		return nil, err
	}
	if err := s.dividends.SaveAll(ctx, company.ID, scraped.Dividends); err != nil {
		return nil, err
	}

	// Index only after the store writes succeed
	s.index.Put(company.Name)

	logger.WithFields(logrus.Fields{
		"company_name":   company.Name,
		"dividend_count": len(scraped.Dividends),
	}).Info("Company created")

	return company, nil
}

// Delete untracks a company by ticker: remove its dividend records and the
// company row as one unit, then evict its cache entry and index name. Returns
// the deleted company's name.
func (s *CompanyService) Delete(ctx context.Context, ticker string) (string, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "CompanyService",
		"ticker":    ticker,
	})
	logger.Info("Deleting company")

	company, err := s.companies.FindByTicker(ctx, ticker)
	if err != nil {
		return "", err
	}
	if company == nil {
		logger.Warn("Delete requested for unknown ticker")
		return "", &shared.CompanyNotFoundError{Key: ticker}
	}

	if err := s.companies.DeleteWithDividends(ctx, company.ID); err != nil {
		return "", err
	}

	// Best-effort from here: a stale cache or index entry falls through to an
	// empty store lookup
	s.cache.Evict(company.Name)
	s.index.Remove(company.Name)

	logger.WithField("company_name", company.Name).Info("Company deleted")
	return company.Name, nil
}

// List returns one page of tracked companies ordered by name.
func (s *CompanyService) List(ctx context.Context, page, perPage int) (*models.CompanyPage, error) {
	return s.companies.List(ctx, page, perPage)
}

// Autocomplete answers a prefix query from the in-memory index. The index is
// a fast front door, not the source of truth; lookups on its results still go
// through the store.
func (s *CompanyService) Autocomplete(prefix string) []string {
	return s.index.SearchByPrefix(prefix)
}

// SearchNamesByPrefix is the store-backed prefix search: case-insensitive,
// ordered by name, capped. Independent of the in-memory index.
func (s *CompanyService) SearchNamesByPrefix(ctx context.Context, prefix string) ([]string, error) {
	return s.companies.FindNamesByPrefix(ctx, prefix, autocompleteResultLimit)
}

// WarmIndex rebuilds the autocomplete index from the store, used at startup.
func (s *CompanyService) WarmIndex(ctx context.Context) error {
	companies, err := s.companies.ListAll(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(companies))
	for _, company := range companies {
		names = append(names, company.Name)
	}
	s.index.Rebuild(names)

	logrus.WithFields(logrus.Fields{
		"component":     "CompanyService",
		"indexed_names": len(names),
	}).Info("Autocomplete index warmed from store")

	return nil
}
