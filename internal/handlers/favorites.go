package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/response"
)

// FavoriteHandler manages the bookmarks of the authenticated account.
type FavoriteHandler struct {
	favorites *services.FavoriteService
	gate      *services.Gate
}

// NewFavoriteHandler constructs a FavoriteHandler.
func NewFavoriteHandler(favorites *services.FavoriteService, gate *services.Gate) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, gate: gate}
}

type favoriteRequest struct {
	PostID string `json:"post_id" validate:"required"`
}

// GET /api/favorites
func (h *FavoriteHandler) List(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	listings, err := h.favorites.List(requestContext(c), account)
	if err != nil {
		response.Error(c, err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	response.Success(c, http.StatusOK, listings)
}

// POST /api/favorites
func (h *FavoriteHandler) Add(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	var body favoriteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.favorites.Add(requestContext(c), account, body.PostID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"post_id": body.PostID})
}

// DELETE /api/favorites/:post_id
func (h *FavoriteHandler) Remove(c *gin.Context) {
	account, ok := currentAccount(c, h.gate)
	if !ok {
		return
	}

	if err := h.favorites.Remove(requestContext(c), account, c.Param("post_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
