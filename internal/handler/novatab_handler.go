package handler

import (
	"errors"

	"migration-web/internal/middleware"
	"migration-web/internal/models"
	"migration-web/internal/service"
	"migration-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type NovaTabHandler struct {
	configService *service.ConfigService
}

func NewNovaTabHandler(configService *service.ConfigService) *NovaTabHandler {
	return &NovaTabHandler{configService: configService}
}

func (h *NovaTabHandler) CreateConfig(c *fiber.Ctx) error {
	var req models.ConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	config, err := h.configService.Create(middleware.UserID(c), &req)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	return utils.CreatedResponse(c, "NovaTab configuration created", fiber.Map{
		"config_id": config.ID,
	})
}

func (h *NovaTabHandler) GetConfigs(c *fiber.Ctx) error {
	configs, err := h.configService.List(middleware.UserID(c))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve configurations", err)
	}

	return utils.SuccessResponse(c, "Configurations retrieved successfully", fiber.Map{
		"configs": configs,
	})
}

func (h *NovaTabHandler) GetConfig(c *fiber.Ctx) error {
	config, err := h.configService.Get(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.serviceError(c, err, "Failed to retrieve configuration")
	}

	return utils.SuccessResponse(c, "Configuration retrieved successfully", config)
}

func (h *NovaTabHandler) UpdateConfig(c *fiber.Ctx) error {
	var req models.ConfigUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := h.configService.Update(middleware.UserID(c), c.Params("id"), &req); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Configuration not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	return utils.SuccessResponse(c, "Configuration updated successfully", nil)
}

func (h *NovaTabHandler) DeleteConfig(c *fiber.Ctx) error {
	if err := h.configService.Delete(middleware.UserID(c), c.Params("id")); err != nil {
		return h.serviceError(c, err, "Failed to delete configuration")
	}

	return utils.SuccessResponse(c, "Configuration deleted successfully", nil)
}

func (h *NovaTabHandler) TestConfig(c *fiber.Ctx) error {
	endpoint, err := h.configService.Test(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.serviceError(c, err, "Connection test failed")
	}

	return utils.SuccessResponse(c, "Connection test successful", fiber.Map{
		"endpoint": endpoint,
	})
}

func (h *NovaTabHandler) serviceError(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, service.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Configuration not found", nil)
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, fallback, err)
}
