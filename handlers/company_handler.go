package handlers

import (
	"strings"

	"github.com/finwatch/dividend-backend/services"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type CompanyHandler struct {
	Service *services.CompanyService
}

func NewCompanyHandler(service *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{Service: service}
}

// Autocomplete answers prefix queries from the store-backed search path.
func (h *CompanyHandler) Autocomplete(c *fiber.Ctx) error {
	keyword := c.Query("keyword")
	names, err := h.Service.SearchNamesByPrefix(c.Context(), keyword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    names,
	})
}

// IndexSearch answers prefix queries from the in-memory autocomplete index.
func (h *CompanyHandler) IndexSearch(c *fiber.Ctx) error {
	keyword := c.Query("keyword")
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Service.Autocomplete(keyword),
	})
}

func (h *CompanyHandler) ListCompanies(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)

	companies, err := h.Service.List(c.Context(), page, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    companies,
	})
}

type addCompanyRequest struct {
	Ticker string `json:"ticker"`
}

func (h *CompanyHandler) AddCompany(c *fiber.Ctx) error {
	var req addCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if strings.TrimSpace(req.Ticker) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "ticker is empty",
		})
	}

	company, err := h.Service.Create(c.Context(), req.Ticker)
	if err != nil {
		return companyErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    company,
	})
}

func (h *CompanyHandler) DeleteCompany(c *fiber.Ctx) error {
	ticker := c.Params("ticker")

	name, err := h.Service.Delete(c.Context(), ticker)
	if err != nil {
		return companyErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    name,
	})
}

// companyErrorResponse maps the typed domain errors to HTTP statuses.
func companyErrorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case shared.IsTickerConflict(err):
		status = fiber.StatusConflict
	case shared.IsCompanyNotFound(err):
		status = fiber.StatusNotFound
	case shared.IsScrapingFailed(err):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
