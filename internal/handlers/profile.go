package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/response"
)

// ProfileHandler exposes current-account management endpoints.
type ProfileHandler struct {
	profiles *services.ProfileService
	gate     *services.Gate
	limits   UploadLimits
}

// NewProfileHandler configures a profile handler with required services.
func NewProfileHandler(profiles *services.ProfileService, gate *services.Gate, limits UploadLimits) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, gate: gate, limits: limits.withDefaults()}
}

type updateProfileRequest struct {
	Name  string  `json:"name" validate:"required,notblank,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(requestContext(c), account)
	if err != nil {
		response.Error(c, err)
		return
	}
	listings := profile.Listings
	if listings == nil {
		listings = []models.Listing{}
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":  profile.Account,
		"posts": listings,
	})
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	var body updateProfileRequest
	if !bindAndValidate(c, &body) {
		return
	}

	updated, err := h.profiles.Update(requestContext(c), account, services.UpdateProfileInput{
		Name:  body.Name,
		Phone: body.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// POST /api/profile/image
func (h *ProfileHandler) UploadImage(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	data, err := readSingleImage(c, "image", h.limits.MaxProfileBytes)
	if err != nil {
		response.Error(c, err)
		return
	}

	url, err := h.profiles.SetImage(requestContext(c), account, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile_image_url": url})
}

// DELETE /api/profile/image
func (h *ProfileHandler) DeleteImage(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	if err := h.profiles.RemoveImage(requestContext(c), account); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
