package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/middleware"
	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/response"
)

// CatalogHandler serves the public car and part reference data.
type CatalogHandler struct {
	catalog    *services.CatalogService
	moderation *services.ModerationService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService, moderation *services.ModerationService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, moderation: moderation}
}

type carRequest struct {
	Brand string      `json:"brand" validate:"required,notblank,max=120"`
	Model string      `json:"model" validate:"required,notblank,max=120"`
	Year  looseString `json:"year"`
	Color string      `json:"color" validate:"required,notblank,max=64"`
}

// GET /api/cars
func (h *CatalogHandler) ListCars(c *gin.Context) {
	cars, err := h.catalog.ListCars(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, cars)
}

// GET /api/cars/models?brand=
func (h *CatalogHandler) ListCarModels(c *gin.Context) {
	rows, err := h.catalog.ListCarModels(requestContext(c), c.Query("brand"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// POST /api/cars/request
func (h *CatalogHandler) RequestCar(c *gin.Context) {
	var body carRequest
	if !bindAndValidate(c, &body) {
		return
	}

	submission := services.CarSubmission{
		Brand: body.Brand,
		Model: body.Model,
		Year:  parseOptionalInt(body.Year.String()),
		Color: body.Color,
	}
	if principal, ok := middleware.PrincipalFromContext(c); ok {
		submission.RequestedBy = principal.Email
	}

	pending, err := h.moderation.SubmitCar(requestContext(c), submission)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"id":      pending.ID,
		"message": "Request received. We will review and add it.",
	})
}

// GET /api/parts
func (h *CatalogHandler) ListParts(c *gin.Context) {
	parts, err := h.catalog.ListParts(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, parts)
}

func parseOptionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}
