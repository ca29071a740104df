package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/pkg/response"
)

// Health returns a simple status payload useful for readiness checks.
func Health(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"status":      "ok",
			"environment": environment,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Banner answers the API root.
func Banner() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"message": "Autodetail API"})
	}
}
