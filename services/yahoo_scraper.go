package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/finwatch/dividend-backend/models"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// ScraperConfiguration holds configuration parameters for the dividend scraper
type ScraperConfiguration struct {
	BaseURL            string        // Target website base URL
	HTTPRequestTimeout time.Duration // Maximum time to wait for HTTP responses
	RequestRateLimit   time.Duration // Minimum delay between consecutive requests
	MaxRetryAttempts   int           // Maximum number of retry attempts for failed requests
}

// NewDefaultScraperConfiguration returns production-ready default configuration
func NewDefaultScraperConfiguration() *ScraperConfiguration {
	return &ScraperConfiguration{
		BaseURL:            "https://finance.yahoo.com",
		HTTPRequestTimeout: 30 * time.Second,
		RequestRateLimit:   1 * time.Second,
		MaxRetryAttempts:   3,
	}
}

// historyStartEpochSeconds is one day after the epoch. Using the full range up
// to "now" retrieves the complete dividend history in one page.
const historyStartEpochSeconds = 86400

// summaryTitleSelector locates the company title heading on the summary page.
const summaryTitleSelector = "h1.yf-4vbjci"

// trailingParenthetical matches a parenthesized suffix such as " (AAPL)" at
// the end of the summary-page title.
var trailingParenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// Scraper resolves tickers to companies and fetches their dividend history.
// YahooFinanceScraper is the production implementation.
type Scraper interface {
	ResolveCompany(ctx context.Context, ticker string) (*models.Company, error)
	ScrapeHistory(ctx context.Context, company models.Company) (*models.ScrapedResult, error)
}

// YahooFinanceScraper fetches summary and history pages and delegates table
// parsing to the DividendExtractor.
type YahooFinanceScraper struct {
	config        *ScraperConfiguration
	extractor     *DividendExtractor
	clientFactory *shared.HTTPClientFactory
	rateLimiter   *shared.HTTPRequestRateLimiter
}

// NewYahooFinanceScraper creates a scraper; a nil config selects the defaults.
func NewYahooFinanceScraper(config *ScraperConfiguration) *YahooFinanceScraper {
	if config == nil {
		config = NewDefaultScraperConfiguration()
	}
	return &YahooFinanceScraper{
		config:        config,
		extractor:     NewDividendExtractor(),
		clientFactory: shared.NewHTTPClientFactory(config.HTTPRequestTimeout),
		rateLimiter:   shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
	}
}

// ResolveCompany fetches the summary page for ticker and derives the display
// name from the title heading, stripping any trailing parenthetical suffix.
// A transport failure aborts company creation, so it propagates as a typed,
// ticker-carrying error.
func (s *YahooFinanceScraper) ResolveCompany(ctx context.Context, ticker string) (*models.Company, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "YahooFinanceScraper",
		"ticker":    ticker,
	})
	logger.Debug("Resolving company name from summary page")

	if err := s.rateLimiter.EnforceRateLimitContext(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/quote/%s?p=%s", s.config.BaseURL, ticker, ticker)

	collector := colly.NewCollector()
	collector.SetRequestTimeout(s.config.HTTPRequestTimeout)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var title string
	collector.OnHTML(summaryTitleSelector, func(e *colly.HTMLElement) {
		if title == "" {
			title = strings.TrimSpace(e.Text)
		}
	})

	if err := collector.Visit(url); err != nil {
		logger.WithError(err).Error("Failed to fetch summary page")
		return nil, &shared.ScrapingFailedError{Ticker: ticker, Cause: err}
	}
	collector.Wait()

	if title == "" {
		logger.Error("Summary page carried no title heading")
		return nil, &shared.ScrapingFailedError{Ticker: ticker, Cause: errors.New("summary page title not found")}
	}

	name := strings.TrimSpace(trailingParenthetical.ReplaceAllString(title, ""))
	logger.WithField("company_name", name).Debug("Resolved company name")

	return &models.Company{Ticker: ticker, Name: name}, nil
}

// ScrapeHistory fetches the time-ranged dividend-history page for company and
// parses it into a ScrapedResult. A company without a dividend table yields an
// empty event list, not an error; only the network fetch failing is an error.
func (s *YahooFinanceScraper) ScrapeHistory(ctx context.Context, company models.Company) (*models.ScrapedResult, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "YahooFinanceScraper",
		"ticker":    company.Ticker,
		"company":   company.Name,
	})
	logger.Info("Scraping dividend history")

	result := &models.ScrapedResult{
		Company:   company,
		Dividends: []models.DividendEvent{},
	}

	if err := s.rateLimiter.EnforceRateLimitContext(ctx); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	url := fmt.Sprintf("%s/quote/%s/history/?frequency=1mo&period1=%d&period2=%d",
		s.config.BaseURL, company.Ticker, historyStartEpochSeconds, now)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &shared.ScrapingFailedError{Ticker: company.Ticker, Cause: err}
	}
	shared.SetBrowserLikeHeaders(request, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := s.clientFactory.CreateOptimizedHTTPClient(s.config.HTTPRequestTimeout)
	response, err := shared.ExecuteHTTPRequestWithRetry(client, request, s.config.MaxRetryAttempts)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch dividend history page")
		return nil, &shared.ScrapingFailedError{Ticker: company.Ticker, Cause: err}
	}
	defer response.Body.Close()

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return nil, &shared.ScrapingFailedError{Ticker: company.Ticker, Cause: err}
	}

	events, err := s.extractor.ExtractDividendHistory(document, company.Name)
	if err != nil {
		// Format-drift errors surface as-is so operators see the real cause
		return nil, err
	}

	result.Dividends = events
	logger.WithField("event_count", len(events)).Info("Scraped dividend history")
	return result, nil
}
