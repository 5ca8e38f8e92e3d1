package handlers

import (
	"github.com/finwatch/dividend-backend/services"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type FinanceHandler struct {
	Service *services.FinanceService
}

func NewFinanceHandler(service *services.FinanceService) *FinanceHandler {
	return &FinanceHandler{Service: service}
}

func (h *FinanceHandler) GetDividendsByCompanyName(c *fiber.Ctx) error {
	companyName := c.Params("companyName")

	result, err := h.Service.GetDividendsByCompanyName(c.Context(), companyName)
	if err != nil {
		if shared.IsCompanyNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}
