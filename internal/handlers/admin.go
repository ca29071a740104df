package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/response"
)

// AdminHandler groups the administrator-only management endpoints.
type AdminHandler struct {
	accounts   *services.AccountService
	listings   *services.ListingService
	catalog    *services.CatalogService
	moderation *services.ModerationService
	gate       *services.Gate
}

// AdminServices bundles the services the admin endpoints operate on.
type AdminServices struct {
	Accounts   *services.AccountService
	Listings   *services.ListingService
	Catalog    *services.CatalogService
	Moderation *services.ModerationService
	Gate       *services.Gate
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc AdminServices) *AdminHandler {
	return &AdminHandler{
		accounts:   svc.Accounts,
		listings:   svc.Listings,
		catalog:    svc.Catalog,
		moderation: svc.Moderation,
		gate:       svc.Gate,
	}
}

type adminUpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
	Role  *string `json:"role" validate:"omitempty,oneof=user admin"`
}

type carModelRequest struct {
	Brand string `json:"brand" validate:"required,notblank,max=120"`
	Model string `json:"model" validate:"required,notblank,max=120"`
}

type partRequest struct {
	Name        string  `json:"name" validate:"required,notblank,max=120"`
	Category    *string `json:"category" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	accounts, err := h.accounts.List(requestContext(c), admin)
	if err != nil {
		response.Error(c, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	response.Success(c, http.StatusOK, accounts)
}

// PUT /api/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	var body adminUpdateUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	account, err := h.accounts.Update(requestContext(c), admin, c.Param("id"), services.AdminUpdateAccountInput{
		Name:  body.Name,
		Phone: body.Phone,
		Role:  body.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, account)
}

// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	if err := h.accounts.Delete(requestContext(c), admin, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/admin/posts
func (h *AdminHandler) ListPosts(c *gin.Context) {
	if _, ok := currentAdmin(c, h.gate); !ok {
		return
	}

	page, perPage := pageParams(c)
	listings, total, err := h.listings.List(requestContext(c), services.ListListingsOptions{
		Page:     page,
		PageSize: perPage,
		Filters: services.ListingFilters{
			OwnerID: c.Query("owner_id"),
			Query:   c.Query("q"),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	response.SuccessWithMeta(c, http.StatusOK, listings, response.NewMeta(page, perPage, total))
}

// PUT /api/admin/posts/:id
func (h *AdminHandler) UpdatePost(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	var body listingRequest
	if !bindFormOrJSON(c, &body) {
		return
	}

	if _, err := h.listings.Update(requestContext(c), admin, c.Param("id"), body.input()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// DELETE /api/admin/posts/:id
func (h *AdminHandler) DeletePost(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	if err := h.listings.Delete(requestContext(c), admin, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/admin/cars
func (h *AdminHandler) ListCars(c *gin.Context) {
	if _, ok := currentAdmin(c, h.gate); !ok {
		return
	}

	cars, err := h.catalog.ListCars(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, cars)
}

// POST /api/admin/cars
func (h *AdminHandler) CreateCar(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	var body carRequest
	if !bindAndValidate(c, &body) {
		return
	}

	car, err := h.catalog.AddCar(requestContext(c), admin, services.CarInput{
		Brand: body.Brand,
		Model: body.Model,
		Year:  parseOptionalInt(body.Year.String()),
		Color: body.Color,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, car)
}

// DELETE /api/admin/cars/:id
func (h *AdminHandler) DeleteCar(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	if err := h.catalog.DeleteCar(requestContext(c), admin, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/admin/car-models
func (h *AdminHandler) ListCarModels(c *gin.Context) {
	if _, ok := currentAdmin(c, h.gate); !ok {
		return
	}

	rows, err := h.catalog.ListCarModels(requestContext(c), c.Query("brand"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// POST /api/admin/car-models
func (h *AdminHandler) CreateCarModel(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	var body carModelRequest
	if !bindAndValidate(c, &body) {
		return
	}

	row, err := h.catalog.AddCarModel(requestContext(c), admin, body.Brand, body.Model)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, row)
}

// DELETE /api/admin/car-models/:id
func (h *AdminHandler) DeleteCarModel(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	if err := h.catalog.DeleteCarModel(requestContext(c), admin, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/admin/parts
func (h *AdminHandler) ListParts(c *gin.Context) {
	if _, ok := currentAdmin(c, h.gate); !ok {
		return
	}

	parts, err := h.catalog.ListParts(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, parts)
}

// POST /api/admin/parts
func (h *AdminHandler) CreatePart(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	var body partRequest
	if !bindAndValidate(c, &body) {
		return
	}

	part, err := h.catalog.AddPart(requestContext(c), admin, services.PartInput{
		Name:        body.Name,
		Category:    body.Category,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, part)
}

// DELETE /api/admin/parts/:id
func (h *AdminHandler) DeletePart(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	if err := h.catalog.DeletePart(requestContext(c), admin, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/admin/pending-users
func (h *AdminHandler) ListPendingUsers(c *gin.Context) {
	if _, ok := currentAdmin(c, h.gate); !ok {
		return
	}

	rows, err := h.moderation.ListPendingUsers(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.PendingRegistration{}
	}
	response.Success(c, http.StatusOK, rows)
}

// DELETE /api/admin/pending-users/:id
func (h *AdminHandler) DeletePendingUser(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	if err := h.moderation.DeletePendingUser(requestContext(c), admin, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/admin/pending-cars
func (h *AdminHandler) ListPendingCars(c *gin.Context) {
	if _, ok := currentAdmin(c, h.gate); !ok {
		return
	}

	rows, err := h.moderation.ListPendingCars(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.PendingCar{}
	}
	response.Success(c, http.StatusOK, rows)
}

// POST /api/admin/pending-cars/:id/approve
func (h *AdminHandler) ApprovePendingCar(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	car, err := h.moderation.ApproveCar(requestContext(c), admin, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, car)
}

// DELETE /api/admin/pending-cars/:id
func (h *AdminHandler) RejectPendingCar(c *gin.Context) {
	admin, ok := currentAdmin(c, h.gate)
	if !ok {
		return
	}

	if err := h.moderation.RejectCar(requestContext(c), admin, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
