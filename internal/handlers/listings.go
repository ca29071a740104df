package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/response"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ListingHandler exposes the marketplace post endpoints.
type ListingHandler struct {
	listings *services.ListingService
	gate     *services.Gate
	limits   UploadLimits
}

// NewListingHandler constructs a ListingHandler.
func NewListingHandler(listings *services.ListingService, gate *services.Gate, limits UploadLimits) *ListingHandler {
	return &ListingHandler{listings: listings, gate: gate, limits: limits.withDefaults()}
}

type listingRequest struct {
	Title       string      `form:"title" json:"title" validate:"required,notblank,max=200"`
	Description *string     `form:"description" json:"description" validate:"omitempty,max=5000"`
	PartType    string      `form:"part_type" json:"part_type" validate:"required,notblank,max=120"`
	CarBrand    string      `form:"car_brand" json:"car_brand" validate:"required,notblank,max=120"`
	CarModel    string      `form:"car_model" json:"car_model" validate:"required,notblank,max=120"`
	CarYear     looseString `form:"car_year" json:"car_year"`
	CarColor    string      `form:"car_color" json:"car_color" validate:"required,notblank,max=64"`
	Price       looseString `form:"price" json:"price"`
	Currency    *string     `form:"price_currency" json:"price_currency" validate:"omitempty,max=8"`
}

func (r listingRequest) input() services.ListingInput {
	return services.ListingInput{
		Title:       r.Title,
		Description: r.Description,
		PartType:    r.PartType,
		CarBrand:    r.CarBrand,
		CarModel:    r.CarModel,
		CarYear:     r.CarYear.String(),
		CarColor:    r.CarColor,
		Price:       r.Price.String(),
		Currency:    r.Currency,
	}
}

type removeImageRequest struct {
	ImageURL string `json:"image_url" validate:"required"`
}

// pageParams reads page and per_page with the same bounds the services apply.
func pageParams(c *gin.Context) (int, int) {
	page := parseIntQuery(c, "page", 1)
	if page <= 0 {
		page = 1
	}
	perPage := parseIntQuery(c, "per_page", defaultPerPage)
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// GET /api/posts
func (h *ListingHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)
	listings, total, err := h.listings.List(requestContext(c), services.ListListingsOptions{
		Page:     page,
		PageSize: perPage,
		Filters: services.ListingFilters{
			Brand:    c.Query("brand"),
			Model:    c.Query("model"),
			PartType: c.Query("part_type"),
			OwnerID:  c.Query("owner_id"),
			Query:    c.Query("q"),
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

// GET /api/posts/:id
func (h *ListingHandler) Get(c *gin.Context) {
	listing, err := h.listings.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// GET /api/posts/:id/price-history
func (h *ListingHandler) PriceHistory(c *gin.Context) {
	entries, err := h.listings.PriceHistory(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

// POST /api/posts
func (h *ListingHandler) Create(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	var body listingRequest
	if !bindFormOrJSON(c, &body) {
		return
	}
	uploads, err := readImageFiles(c, h.limits)
	if err != nil {
		response.Error(c, err)
		return
	}

	listing, err := h.listings.Create(requestContext(c), account, body.input(), uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": listing.ID})
}

// PUT /api/posts/:id
func (h *ListingHandler) Update(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	var body listingRequest
	if !bindFormOrJSON(c, &body) {
		return
	}

	if _, err := h.listings.Update(requestContext(c), account, c.Param("id"), body.input()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// DELETE /api/posts/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	if err := h.listings.Delete(requestContext(c), account, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/posts/:id/images
func (h *ListingHandler) AddImages(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	uploads, err := readImageFiles(c, h.limits)
	if err != nil {
		response.Error(c, err)
		return
	}

	urls, err := h.listings.AddImages(requestContext(c), account, c.Param("id"), uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"images": urls})
}

// DELETE /api/posts/:id/images
func (h *ListingHandler) RemoveImage(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	var body removeImageRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.listings.RemoveImage(requestContext(c), account, c.Param("id"), body.ImageURL); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
