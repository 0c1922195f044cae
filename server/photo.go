package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/georgesgallery/gallery-go/service/persist"
	"github.com/georgesgallery/gallery-go/service/store"
	"github.com/georgesgallery/gallery-go/util"
)

// photoWithCollection enriches a photo with its collection's name for reads.
type photoWithCollection struct {
	persist.Photo
	CollectionName string `json:"collection_name,omitempty"`
}

type photoReassignInput struct {
	CollectionID persist.CollectionRef `json:"collection_id"`
}

func getPhotos(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		photos := s.LoadPhotos(c)
		collections := s.LoadCollections(c)

		out := make([]photoWithCollection, 0, len(photos))
		for _, p := range photos {
			out = append(out, photoWithCollection{
				Photo:          p,
				CollectionName: persist.CollectionName(collections, p.CollectionID),
			})
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "photos": out})
	}
}

func uploadPhoto(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		title := strings.TrimSpace(c.PostForm("title"))
		if title == "" {
			title = "Untitled"
		}
		description := c.PostForm("description")

		ref, err := persist.ParseCollectionRef(c.PostForm("collection_id"))
		if err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}
		if ref.Valid() {
			collections := s.LoadCollections(c)
			if _, ok := persist.FindCollection(collections, ref.ID()); !ok {
				util.ErrResponse(c, http.StatusBadRequest, persist.ErrCollectionNotFoundByID{ID: ref.ID()})
				return
			}
		}

		fileHeader, err := c.FormFile("photo")
		if err != nil {
			util.ErrResponse(c, http.StatusBadRequest, util.ErrInvalidInput{Reason: "no photo file provided"})
			return
		}
		if fileHeader.Filename == "" || fileHeader.Size == 0 {
			util.ErrResponse(c, http.StatusBadRequest, util.ErrInvalidInput{Reason: "no photo file selected"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			util.ErrResponse(c, http.StatusInternalServerError, err)
			return
		}
		defer file.Close()

		photos := s.LoadPhotos(c)
		photo := persist.Photo{
			ID:           persist.NextID(photos),
			Filename:     fileHeader.Filename,
			Title:        title,
			Description:  description,
			CollectionID: ref,
			UploadDate:   time.Now().Format(time.RFC3339),
		}

		created, err := s.AddPhoto(c, photo, file)
		if err != nil {
			util.ErrResponse(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "photo": created})
	}
}

func updatePhotoCollection(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}

		var input photoReassignInput
		if err := c.ShouldBindJSON(&input); err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}

		if input.CollectionID.Valid() {
			collections := s.LoadCollections(c)
			if _, ok := persist.FindCollection(collections, input.CollectionID.ID()); !ok {
				util.ErrResponse(c, http.StatusBadRequest, persist.ErrCollectionNotFoundByID{ID: input.CollectionID.ID()})
				return
			}
		}

		photo, err := s.ReassignPhoto(c, id, input.CollectionID)
		if err != nil {
			var notFound persist.ErrPhotoNotFoundByID
			if errors.As(err, &notFound) {
				util.ErrResponse(c, http.StatusNotFound, err)
				return
			}
			util.ErrResponse(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "photo": photo})
	}
}

func deletePhoto(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			util.ErrResponse(c, http.StatusBadRequest, err)
			return
		}

		if err := s.DeletePhoto(c, id); err != nil {
			var notFound persist.ErrPhotoNotFoundByID
			if errors.As(err, &notFound) {
				util.ErrResponse(c, http.StatusNotFound, err)
				return
			}
			util.ErrResponse(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, util.SuccessResponse{Success: true})
	}
}

func pathID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, util.ErrInvalidInput{Reason: fmt.Sprintf("malformed id: %s", raw)}
	}
	return id, nil
}
