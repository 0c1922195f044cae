package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/georgesgallery/gallery-go/env"
	"github.com/georgesgallery/gallery-go/service/persist"
	"github.com/georgesgallery/gallery-go/service/store"
)

func healthcheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "gallery operational",
			"env":     env.GetString("ENV"),
		})
	}
}

// debugInfo reports configuration status and record counts so a deployment
// can be inspected without credentials ever appearing in a response.
func debugInfo(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		diag := s.Diagnostics()

		storageType := persist.StorageTypeLocal
		if diag.RemoteConfigured {
			storageType = persist.StorageTypeRemote
		}

		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"remote_configured": diag.RemoteConfigured,
			"environment_variables": gin.H{
				"CLOUDINARY_CLOUD_NAME": env.IsSet("CLOUDINARY_CLOUD_NAME"),
				"CLOUDINARY_API_KEY":    env.IsSet("CLOUDINARY_API_KEY"),
				"CLOUDINARY_API_SECRET": env.IsSet("CLOUDINARY_API_SECRET"),
			},
			"photo_cache_exists":      diag.PhotoCacheExists,
			"collection_cache_exists": diag.CollectionCacheExists,
			"empty_remote_fallback":   diag.EmptyRemoteFallback,
			"photos_count":            len(s.LoadPhotos(c)),
			"collections_count":       len(s.LoadCollections(c)),
			"storage_type":            storageType,
		})
	}
}
