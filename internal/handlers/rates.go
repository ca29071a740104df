package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/rates"
	"github.com/charlesng35/autodetail/pkg/response"
)

// RatesHandler proxies currency exchange rates.
type RatesHandler struct {
	rates *rates.Service
}

// NewRatesHandler constructs a RatesHandler.
func NewRatesHandler(svc *rates.Service) *RatesHandler {
	return &RatesHandler{rates: svc}
}

// GET /api/rates?base=&target=
func (h *RatesHandler) Get(c *gin.Context) {
	quote, err := h.rates.GetRate(requestContext(c), c.Query("base"), c.Query("target"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, quote)
}
