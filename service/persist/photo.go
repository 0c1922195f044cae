package persist

import (
	"fmt"
)

// StorageType tells where the authoritative copy of a photo lives
type StorageType string

const (
	// StorageTypeRemote means the photo came from the remote media host
	StorageTypeRemote StorageType = "remote"
	// StorageTypeLocal means the photo was read back from the local snapshot
	StorageTypeLocal StorageType = "local"
)

// Photo represents a single gallery image. The image bytes live on the
// remote media host; the struct carries the metadata mirrored into the
// local snapshot file. CollectionID is the weak reference to the owning
// collection and is null for unsorted photos.
type Photo struct {
	ID            int64         `json:"id"`
	Filename      string        `json:"filename"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	CollectionID  CollectionRef `json:"collection_id"`
	RemoteURL     string        `json:"remote_url,omitempty"`
	RemoteAssetID string        `json:"remote_asset_id,omitempty"`
	UploadDate    string        `json:"upload_date"`
	StorageType   StorageType   `json:"storage_type,omitempty"`
}

// EntityID implements Identified
func (p Photo) EntityID() int64 {
	return p.ID
}

// ErrPhotoNotFoundByID is returned when a photo is not found by its ID
type ErrPhotoNotFoundByID struct {
	ID int64
}

func (e ErrPhotoNotFoundByID) Error() string {
	return fmt.Sprintf("photo not found by id: %d", e.ID)
}

// ErrRemoteNotConfigured is returned when an operation needs the remote
// media host but no credentials were supplied
type ErrRemoteNotConfigured struct{}

func (e ErrRemoteNotConfigured) Error() string {
	return "remote media host is not configured"
}
