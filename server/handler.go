package server

import (
	"github.com/gin-gonic/gin"

	"github.com/georgesgallery/gallery-go/middleware"
	"github.com/georgesgallery/gallery-go/service/store"
)

func handlersInit(router *gin.Engine, s *store.Store) *gin.Engine {
	api := router.Group("/api")

	// HEALTH
	api.GET("/health", healthcheck())
	api.GET("/debug", debugInfo(s))

	// COLLECTIONS

	collectionsGroup := api.Group("/collections")

	collectionsGroup.GET("", getCollections(s))
	collectionsGroup.POST("", middleware.AdminRequired(), createCollection(s))
	collectionsGroup.PUT("/:id", middleware.AdminRequired(), updateCollection(s))
	collectionsGroup.GET("/:id/photos", getCollectionPhotos(s))

	// PHOTOS

	photosGroup := api.Group("/photos")

	photosGroup.GET("", getPhotos(s))
	photosGroup.POST("", middleware.AdminRequired(), uploadPhoto(s))
	photosGroup.DELETE("/:id", middleware.AdminRequired(), deletePhoto(s))
	photosGroup.PUT("/:id/collection", middleware.AdminRequired(), updatePhotoCollection(s))

	return router
}
