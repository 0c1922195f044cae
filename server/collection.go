package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/georgesgallery/gallery-go/service/persist"
	"github.com/georgesgallery/gallery-go/service/store"
	"github.com/georgesgallery/gallery-go/util"
)

type collectionInput struct {
	Name string `json:"name" binding:"required,collection_name"`
}

// collectionWithCount enriches a collection with its photo count for reads;
// the count is computed per request and never persisted.
type collectionWithCount struct {
	persist.Collection
	PhotoCount int `json:"photo_count"`
}

func getCollections(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		collections := s.LoadCollections(c)
		photos := s.LoadPhotos(c)

		out := make([]collectionWithCount, 0, len(collections))
		for _, coll := range collections {
			out = append(out, collectionWithCount{
				Collection: coll,
				PhotoCount: persist.PhotoCount(photos, coll.ID),
			})
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "collections": out})
	}
}

func createCollection(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input collectionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}

		name := strings.TrimSpace(input.Name)
		if name == "" {
			util.ErrResponse(c, http.StatusBadRequest, util.ErrInvalidInput{Reason: "collection name is required"})
			return
		}

		collections := s.LoadCollections(c)
		if persist.CollectionNameTaken(collections, name, 0) {
			util.ErrResponse(c, http.StatusBadRequest, persist.ErrCollectionNameTaken{Name: name})
			return
		}

		collection := persist.Collection{
			ID:          persist.NextID(collections),
			Name:        name,
			CreatedDate: time.Now().Format(time.RFC3339),
		}
		collections = append(collections, collection)

		if err := s.SaveCollections(c, collections); err != nil {
			util.ErrResponse(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "collection": collection})
	}
}

func updateCollection(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}

		var input collectionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}

		name := strings.TrimSpace(input.Name)
		if name == "" {
			util.ErrResponse(c, http.StatusBadRequest, util.ErrInvalidInput{Reason: "collection name is required"})
			return
		}

		collections := s.LoadCollections(c)
		if _, ok := persist.FindCollection(collections, id); !ok {
			util.ErrResponse(c, http.StatusNotFound, persist.ErrCollectionNotFoundByID{ID: id})
			return
		}

		if persist.CollectionNameTaken(collections, name, id) {
			util.ErrResponse(c, http.StatusBadRequest, persist.ErrCollectionNameTaken{Name: name})
			return
		}

		var updated persist.Collection
		for i := range collections {
			if collections[i].ID == id {
				collections[i].Name = name
				updated = collections[i]
			}
		}

		if err := s.SaveCollections(c, collections); err != nil {
			util.ErrResponse(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "collection": updated})
	}
}

func getCollectionPhotos(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}

		collections := s.LoadCollections(c)
		collection, ok := persist.FindCollection(collections, id)
		if !ok {
			util.ErrResponse(c, http.StatusNotFound, persist.ErrCollectionNotFoundByID{ID: id})
			return
		}

		photos := persist.PhotosInCollection(s.LoadPhotos(c), id)

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"photos":      photos,
			"collection":  collection,
			"total_count": len(photos),
		})
	}
}
