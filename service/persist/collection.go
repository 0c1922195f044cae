package persist

import (
	"fmt"
)

// Collection represents a named set of photos. Photos reference collections
// by ID; the reference is weak and deleting a photo never touches the
// collection list. Collections are created and renamed but never deleted.
type Collection struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CreatedDate string `json:"created_date"`
}

// EntityID implements Identified
func (c Collection) EntityID() int64 {
	return c.ID
}

// ErrCollectionNotFoundByID is returned when a collection is not found by its ID
type ErrCollectionNotFoundByID struct {
	ID int64
}

func (e ErrCollectionNotFoundByID) Error() string {
	return fmt.Sprintf("collection not found by id: %d", e.ID)
}

// ErrCollectionNameTaken is returned when another collection already uses a
// name, compared case-insensitively
type ErrCollectionNameTaken struct {
	Name string
}

func (e ErrCollectionNameTaken) Error() string {
	return fmt.Sprintf("collection name already exists: %s", e.Name)
}
