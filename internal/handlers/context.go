package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/middleware"
	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/services"
	appErrors "github.com/charlesng35/autodetail/pkg/errors"
	"github.com/charlesng35/autodetail/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentAccount resolves the authenticated principal into its stored account.
// On failure an error response is written and false is returned.
func currentAccount(c *gin.Context, gate *services.Gate) (*models.Account, bool) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	account, err := gate.ResolveActor(requestContext(c), principal)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return account, true
}

// currentAdmin is currentAccount restricted to administrators.
func currentAdmin(c *gin.Context, gate *services.Gate) (*models.Account, bool) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	account, err := gate.ResolveAdmin(requestContext(c), principal)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return account, true
}
