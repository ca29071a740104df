package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/app"
	"github.com/charlesng35/autodetail/internal/handlers"
	"github.com/charlesng35/autodetail/internal/storage"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config) {
	health := handlers.Health(cfg.Server.Environment)
	r.GET("/health", health)
	r.GET("/api/health", health)
	r.GET("/api", handlers.Banner())
}

// registerUploadRoutes serves stored images when blobs live on local disk.
// Remote stores hand out absolute URLs and need no route.
func registerUploadRoutes(r *gin.Engine, blobs storage.BlobStore) {
	local, ok := blobs.(*storage.LocalStore)
	if !ok {
		return
	}
	r.Static(local.PublicPrefix(), local.Dir())
}
