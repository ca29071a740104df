package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/errors"
	"github.com/charlesng35/autodetail/pkg/response"
)

type AuditHandler struct {
	svc  *services.AuditService
	gate *services.Gate
}

func NewAuditHandler(svc *services.AuditService, gate *services.Gate) *AuditHandler {
	return &AuditHandler{svc: svc, gate: gate}
}

// GET /api/admin/audit-logs
func (h *AuditHandler) List(c *gin.Context) {
	if _, ok := currentAdmin(c, h.gate); !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	per, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))

	var filters services.AuditFilters
	filters.AccountID = c.Query("user_id")
	filters.Email = c.Query("email")
	filters.Action = c.Query("action")
	filters.Result = c.Query("result")
	filters.Resource = c.Query("resource")

	if s := c.Query("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filters.Since = &t
		}
	}
	if u := c.Query("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			filters.Until = &t
		}
	}

	logs, total, err := h.svc.List(requestContext(c), services.AuditListOptions{Page: page, PageSize: per, Filters: filters})
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{Page: page, PerPage: per, Total: int(total)})
}
