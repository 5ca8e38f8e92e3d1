package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finwatch/dividend-backend/models"
	"github.com/finwatch/dividend-backend/services"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// handlerScraper resolves every ticker to "<ticker> Corp" with no history,
// unless told to fail.
type handlerScraper struct {
	resolveErr error
}

func (s *handlerScraper) ResolveCompany(ctx context.Context, ticker string) (*models.Company, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return &models.Company{Ticker: ticker, Name: ticker + " Corp"}, nil
}

func (s *handlerScraper) ScrapeHistory(ctx context.Context, company models.Company) (*models.ScrapedResult, error) {
	return &models.ScrapedResult{Company: company, Dividends: []models.DividendEvent{}}, nil
}

// handlerCompanyRepo keeps companies in a slice, enough for routing tests.
type handlerCompanyRepo struct {
	companies []models.Company
}

func (r *handlerCompanyRepo) Save(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	r.companies = append(r.companies, *company)
	return nil
}

func (r *handlerCompanyRepo) ExistsByTicker(ctx context.Context, ticker string) (bool, error) {
	company, _ := r.FindByTicker(ctx, ticker)
	return company != nil, nil
}

func (r *handlerCompanyRepo) FindByTicker(ctx context.Context, ticker string) (*models.Company, error) {
	for i := range r.companies {
		if r.companies[i].Ticker == ticker {
			return &r.companies[i], nil
		}
	}
	return nil, nil
}

func (r *handlerCompanyRepo) FindByName(ctx context.Context, name string) (*models.Company, error) {
	for i := range r.companies {
		if r.companies[i].Name == name {
			return &r.companies[i], nil
		}
	}
	return nil, nil
}

func (r *handlerCompanyRepo) FindNamesByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	names := []string{}
	for _, company := range r.companies {
		if strings.HasPrefix(strings.ToLower(company.Name), strings.ToLower(prefix)) && len(names) < limit {
			names = append(names, company.Name)
		}
	}
	return names, nil
}

func (r *handlerCompanyRepo) List(ctx context.Context, page, perPage int) (*models.CompanyPage, error) {
	return &models.CompanyPage{Companies: r.companies, TotalCount: len(r.companies), Page: page, PerPage: perPage}, nil
}

func (r *handlerCompanyRepo) ListAll(ctx context.Context) ([]models.Company, error) {
	return r.companies, nil
}

func (r *handlerCompanyRepo) DeleteWithDividends(ctx context.Context, companyID uuid.UUID) error {
	kept := r.companies[:0]
	for _, company := range r.companies {
		if company.ID != companyID {
			kept = append(kept, company)
		}
	}
	r.companies = kept
	return nil
}

type handlerDividendRepo struct{}

func (r *handlerDividendRepo) InsertIfNew(ctx context.Context, companyID uuid.UUID, event models.DividendEvent) (bool, error) {
	return true, nil
}

func (r *handlerDividendRepo) SaveAll(ctx context.Context, companyID uuid.UUID, events []models.DividendEvent) error {
	return nil
}

func (r *handlerDividendRepo) ExistsByCompanyAndDate(ctx context.Context, companyID uuid.UUID, date time.Time) (bool, error) {
	return false, nil
}

func (r *handlerDividendRepo) FindAllByCompanyID(ctx context.Context, companyID uuid.UUID) ([]models.DividendRecord, error) {
	return []models.DividendRecord{}, nil
}

func (r *handlerDividendRepo) DeleteAllByCompanyID(ctx context.Context, companyID uuid.UUID) error {
	return nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestApp(scraper services.Scraper) (*fiber.App, *handlerCompanyRepo) {
	repo := &handlerCompanyRepo{}
	service := services.NewCompanyService(scraper, repo, &handlerDividendRepo{}, services.NewCompanyNameIndex(), services.NewDividendCache(time.Minute, 100))
	handler := NewCompanyHandler(service)

	app := fiber.New()
	app.Get("/company/autocomplete", handler.Autocomplete)
	app.Get("/company/autocomplete/index", handler.IndexSearch)
	app.Post("/company/", handler.AddCompany)
	app.Delete("/company/:ticker", handler.DeleteCompany)
	return app, repo
}

func TestAddCompanyReturnsCreatedCompany(t *testing.T) {
	app, repo := newTestApp(&handlerScraper{})

	req := httptest.NewRequest("POST", "/company/", strings.NewReader(`{"ticker":"AAPL"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.Success {
		t.Errorf("Expected success response, got error %q", body.Error)
	}

	if stored, _ := repo.FindByTicker(context.Background(), "AAPL"); stored == nil {
		t.Error("Expected the company persisted")
	}
}

func TestAddCompanyEmptyTicker(t *testing.T) {
	app, _ := newTestApp(&handlerScraper{})

	req := httptest.NewRequest("POST", "/company/", strings.NewReader(`{"ticker":"  "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for empty ticker, got %d", resp.StatusCode)
	}
}

func TestAddCompanyDuplicateTickerConflicts(t *testing.T) {
	app, _ := newTestApp(&handlerScraper{})

	first := httptest.NewRequest("POST", "/company/", strings.NewReader(`{"ticker":"AAPL"}`))
	first.Header.Set("Content-Type", "application/json")
	if _, err := app.Test(first); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	second := httptest.NewRequest("POST", "/company/", strings.NewReader(`{"ticker":"AAPL"}`))
	second.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(second)
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("Expected 409 for duplicate ticker, got %d", resp.StatusCode)
	}
}

func TestAddCompanyScrapingFailureMapsToBadGateway(t *testing.T) {
	scraper := &handlerScraper{
		resolveErr: &shared.ScrapingFailedError{Ticker: "AAPL", Cause: errors.New("upstream down")},
	}
	app, _ := newTestApp(scraper)

	req := httptest.NewRequest("POST", "/company/", strings.NewReader(`{"ticker":"AAPL"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Errorf("Expected 502 when scraping fails, got %d", resp.StatusCode)
	}
}

func TestDeleteCompanyUnknownTicker(t *testing.T) {
	app, _ := newTestApp(&handlerScraper{})

	resp, err := app.Test(httptest.NewRequest("DELETE", "/company/NOPE", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404 for unknown ticker, got %d", resp.StatusCode)
	}
}

func TestAutocompleteEndpoints(t *testing.T) {
	app, _ := newTestApp(&handlerScraper{})

	create := httptest.NewRequest("POST", "/company/", strings.NewReader(`{"ticker":"AAPL"}`))
	create.Header.Set("Content-Type", "application/json")
	if _, err := app.Test(create); err != nil {
		t.Fatalf("Create request failed: %v", err)
	}

	for _, path := range []string{
		"/company/autocomplete?keyword=AAPL",
		"/company/autocomplete/index?keyword=AAPL",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("Request %s failed: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("Expected 200 from %s, got %d", path, resp.StatusCode)
			continue
		}

		var body apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode %s response: %v", path, err)
		}
		var names []string
		if err := json.Unmarshal(body.Data, &names); err != nil {
			t.Fatalf("Failed to decode %s data: %v", path, err)
		}
		if len(names) != 1 || names[0] != "AAPL Corp" {
			t.Errorf("Expected [\"AAPL Corp\"] from %s, got %v", path, names)
		}
	}
}
