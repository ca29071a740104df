package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/response"
)

// ContactHandler forwards the public contact form.
type ContactHandler struct {
	contact *services.ContactService
}

// NewContactHandler constructs a ContactHandler.
func NewContactHandler(contact *services.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

type contactRequest struct {
	Message      string `json:"message" validate:"required,notblank,max=5000"`
	EmailOrPhone string `json:"emailOrPhone" validate:"max=255"`
}

// POST /api/contact
func (h *ContactHandler) Send(c *gin.Context) {
	var body contactRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.contact.Send(requestContext(c), body.Message, body.EmailOrPhone); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Message sent."})
}
