package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/finwatch/dividend-backend/models"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CompanyLister yields the companies a refresh cycle iterates, in stable
// listing order.
type CompanyLister interface {
	ListAll(ctx context.Context) ([]models.Company, error)
}

// HistoryScraper fetches one company's current dividend history.
type HistoryScraper interface {
	ScrapeHistory(ctx context.Context, company models.Company) (*models.ScrapedResult, error)
}

// DividendInserter persists a dividend event unless it already exists.
type DividendInserter interface {
	InsertIfNew(ctx context.Context, companyID uuid.UUID, event models.DividendEvent) (bool, error)
}

// CacheInvalidator drops every cached dividend materialization.
type CacheInvalidator interface {
	EvictAll()
}

// DividendRefreshJob drives one full refresh cycle: scrape every tracked
// company, insert only new dividend records, pace requests between companies,
// and invalidate the read cache once the cycle completes.
//
// One failing company does not stall the rest: scraping failures are logged
// and counted and the loop continues. Cancellation (shutdown) during the
// pacing delay aborts the remainder of the cycle; an aborted cycle does not
// invalidate the cache, since the store was only partially refreshed.
type DividendRefreshJob struct {
	Companies   CompanyLister
	Scraper     HistoryScraper
	Dividends   DividendInserter
	Cache       CacheInvalidator
	Metrics     *shared.IngestionMetrics
	PacingDelay time.Duration

	running atomic.Bool
}

func NewDividendRefreshJob(companies CompanyLister, scraper HistoryScraper, dividends DividendInserter, cache CacheInvalidator, metrics *shared.IngestionMetrics, pacingDelay time.Duration) *DividendRefreshJob {
	return &DividendRefreshJob{
		Companies:   companies,
		Scraper:     scraper,
		Dividends:   dividends,
		Cache:       cache,
		Metrics:     metrics,
		PacingDelay: pacingDelay,
	}
}

// Run executes one refresh cycle. Overlapping triggers are skipped while a
// cycle is in flight: two concurrent cycles racing InsertIfNew for the same
// company would be harmless with the storage constraint but would double the
// load on the upstream site.
func (j *DividendRefreshJob) Run(ctx context.Context) {
	if !j.running.CompareAndSwap(false, true) {
		logrus.Warn("Dividend refresh cycle already running, skipping trigger")
		return
	}
	defer j.running.Store(false)

	logrus.Info("Starting dividend refresh cycle")
	j.Metrics.RecordCycleStart()

	companies, err := j.Companies.ListAll(ctx)
	if err != nil {
		logrus.Errorf("Failed to run dividend refresh cycle: failed to list companies: %v", err)
		j.Metrics.RecordCycleEnd(false, 0, 0, 0)
		return
	}

	scrapedCount := 0
	failedCount := 0
	insertedCount := 0

	for i, company := range companies {
		if ctx.Err() != nil {
			logrus.Warn("Dividend refresh cycle cancelled, aborting remaining companies")
			j.Metrics.RecordCycleEnd(false, scrapedCount, failedCount, insertedCount)
			return
		}

		logger := logrus.WithFields(logrus.Fields{
			"company_index":   i + 1,
			"total_companies": len(companies),
			"ticker":          company.Ticker,
			"company":         company.Name,
		})
		logger.Infof("Refreshing dividends %d/%d: %s", i+1, len(companies), company.Name)

		result, err := j.Scraper.ScrapeHistory(ctx, company)
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("Dividend refresh cycle cancelled mid-scrape, aborting")
				j.Metrics.RecordCycleEnd(false, scrapedCount, failedCount, insertedCount)
				return
			}
			// One unreachable company must not stall ingestion for the rest
			logger.WithError(err).Error("Failed to scrape company, continuing with next")
			failedCount++
		} else {
			inserted, persistErr := j.persistNewEvents(ctx, logger, company, result.Dividends)
			insertedCount += inserted
			if persistErr != nil {
				// A company whose records did not all land is a failed
				// company, even though its scrape succeeded
				failedCount++
			} else {
				scrapedCount++
			}
		}

		if i < len(companies)-1 {
			if err := j.sleepPacing(ctx); err != nil {
				logger.Warn("Dividend refresh cycle cancelled during pacing delay, aborting")
				j.Metrics.RecordCycleEnd(false, scrapedCount, failedCount, insertedCount)
				return
			}
		}
	}

	// The store is fresh across the board: every cached materialization is
	// stale and the next read must repopulate
	j.Cache.EvictAll()
	j.Metrics.RecordCycleEnd(true, scrapedCount, failedCount, insertedCount)

	logrus.WithFields(logrus.Fields{
		"companies_scraped":  scrapedCount,
		"companies_failed":   failedCount,
		"dividends_inserted": insertedCount,
	}).Info("Dividend refresh cycle completed")
}

// persistNewEvents inserts each scraped event in extractor order, logging
// every actual insert. Returns the number of records inserted and the first
// insert error, which abandons the rest of the company's events.
func (j *DividendRefreshJob) persistNewEvents(ctx context.Context, logger *logrus.Entry, company models.Company, events []models.DividendEvent) (int, error) {
	inserted := 0
	for _, event := range events {
		wasInserted, err := j.Dividends.InsertIfNew(ctx, company.ID, event)
		if err != nil {
			logger.WithError(err).Error("Failed to persist dividend event, abandoning company")
			return inserted, err
		}
		if wasInserted {
			logger.WithFields(logrus.Fields{
				"date":   event.Date.Format("2006-01-02"),
				"amount": event.Amount,
			}).Info("Inserted new dividend record")
			inserted++
		}
	}
	return inserted, nil
}

// sleepPacing waits the inter-company delay, returning early with ctx.Err()
// on cancellation.
func (j *DividendRefreshJob) sleepPacing(ctx context.Context) error {
	if j.PacingDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(j.PacingDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRunning reports whether a cycle is currently in flight.
func (j *DividendRefreshJob) IsRunning() bool {
	return j.running.Load()
}
