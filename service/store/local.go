package store

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/georgesgallery/gallery-go/service/persist"
)

// localCache holds the last-known-good snapshots of the photo and collection
// lists as two whole-file JSON documents. Files are read and written
// wholesale; a missing file is an empty snapshot, not an error.
type localCache struct {
	photosPath      string
	collectionsPath string
}

func (l localCache) readPhotos() ([]persist.Photo, error) {
	return readSnapshot[persist.Photo](l.photosPath)
}

func (l localCache) writePhotos(photos []persist.Photo) error {
	return writeSnapshot(l.photosPath, photos)
}

func (l localCache) readCollections() ([]persist.Collection, error) {
	return readSnapshot[persist.Collection](l.collectionsPath)
}

func (l localCache) writeCollections(collections []persist.Collection) error {
	return writeSnapshot(l.collectionsPath, collections)
}

func readSnapshot[E any](path string) ([]E, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []E{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entities []E
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

func writeSnapshot[E any](path string, entities []E) error {
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
