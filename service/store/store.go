package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/georgesgallery/gallery-go/env"
	"github.com/georgesgallery/gallery-go/service/cloudinary"
	"github.com/georgesgallery/gallery-go/service/logger"
	"github.com/georgesgallery/gallery-go/service/persist"
	"github.com/georgesgallery/gallery-go/util"
)

// collectionsDocumentID is the fixed public ID of the raw document holding
// the serialized collection list on the remote host.
const collectionsDocumentID = "collections_metadata"

// Remote is the surface of the remote media host the store needs. A nil
// Remote means no credentials were configured at startup and every read
// serves the local snapshot.
type Remote interface {
	ListAssets(ctx context.Context) ([]cloudinary.Asset, error)
	Upload(ctx context.Context, file io.Reader, publicID string, metadata map[string]string) (cloudinary.Asset, error)
	UploadRaw(ctx context.Context, publicID string, blob []byte) (cloudinary.Asset, error)
	DownloadRaw(ctx context.Context, publicID string) ([]byte, error)
	UpdateContext(ctx context.Context, publicID string, metadata map[string]string) error
	Destroy(ctx context.Context, publicID string) error
}

// Config carries the store's local file locations and reconciliation policy.
type Config struct {
	PhotosPath      string
	CollectionsPath string

	// EmptyRemoteFallback makes an empty-but-reachable remote result fall
	// back to the local snapshot, the same as a remote failure. That can
	// resurrect locally cached entities the remote no longer has; disabling
	// it instead trusts the empty result and clears the cache.
	EmptyRemoteFallback bool
}

// ConfigFromEnv reads the store configuration.
func ConfigFromEnv() Config {
	return Config{
		PhotosPath:          env.GetString("PHOTOS_CACHE_FILE"),
		CollectionsPath:     env.GetString("COLLECTIONS_CACHE_FILE"),
		EmptyRemoteFallback: env.GetBool("EMPTY_REMOTE_FALLBACK"),
	}
}

// Store reconciles photo and collection metadata between the remote media
// host (source of truth when reachable) and the local snapshot files
// (fallback when not). Every read re-derives the full entity list; there is
// no in-process state between requests.
type Store struct {
	remote              Remote
	local               localCache
	emptyRemoteFallback bool
}

// Diagnostics reports the store's effective configuration and is served by
// the debug endpoint.
type Diagnostics struct {
	RemoteConfigured      bool `json:"remote_configured"`
	PhotoCacheExists      bool `json:"photo_cache_exists"`
	CollectionCacheExists bool `json:"collection_cache_exists"`
	EmptyRemoteFallback   bool `json:"empty_remote_fallback"`
}

// New returns a store backed by remote and the local snapshot files in cfg.
// Pass a nil remote when the media host is unconfigured.
func New(remote Remote, cfg Config) *Store {
	return &Store{
		remote: remote,
		local: localCache{
			photosPath:      cfg.PhotosPath,
			collectionsPath: cfg.CollectionsPath,
		},
		emptyRemoteFallback: cfg.EmptyRemoteFallback,
	}
}

// RemoteAvailable reports whether the remote media host is configured.
func (s *Store) RemoteAvailable() bool {
	return s.remote != nil
}

// Diagnostics reports the store's configuration status.
func (s *Store) Diagnostics() Diagnostics {
	return Diagnostics{
		RemoteConfigured:      s.remote != nil,
		PhotoCacheExists:      util.FileExists(s.local.photosPath),
		CollectionCacheExists: util.FileExists(s.local.collectionsPath),
		EmptyRemoteFallback:   s.emptyRemoteFallback,
	}
}

// LoadPhotos returns the full photo list, remote-first. A usable remote
// result overwrites the local snapshot best-effort; on remote failure (or an
// empty result under the fallback policy) the local snapshot is served, and
// a missing or unreadable snapshot degrades to an empty list.
func (s *Store) LoadPhotos(ctx context.Context) []persist.Photo {
	if s.remote != nil {
		assets, err := s.remote.ListAssets(ctx)
		if err != nil {
			logger.For(ctx).Warnf("loading photos from remote: %s", err)
		} else if len(assets) > 0 || !s.emptyRemoteFallback {
			photos := photosFromAssets(assets)
			if err := s.local.writePhotos(photos); err != nil {
				logger.For(ctx).Warnf("caching photos locally: %s", err)
			}
			return photos
		}
	}

	photos, err := s.local.readPhotos()
	if err != nil {
		logger.For(ctx).Warnf("reading local photo snapshot: %s", err)
		return []persist.Photo{}
	}
	return photos
}

// LoadCollections returns the full collection list with the same remote-first,
// local-fallback semantics as LoadPhotos. The remote representation is a
// single raw JSON document at a fixed public ID.
func (s *Store) LoadCollections(ctx context.Context) []persist.Collection {
	if s.remote != nil {
		collections, err := s.loadRemoteCollections(ctx)
		if err != nil {
			logger.For(ctx).Warnf("loading collections from remote: %s", err)
		} else if len(collections) > 0 || !s.emptyRemoteFallback {
			if err := s.local.writeCollections(collections); err != nil {
				logger.For(ctx).Warnf("caching collections locally: %s", err)
			}
			return collections
		}
	}

	collections, err := s.local.readCollections()
	if err != nil {
		logger.For(ctx).Warnf("reading local collection snapshot: %s", err)
		return []persist.Collection{}
	}
	return collections
}

func (s *Store) loadRemoteCollections(ctx context.Context) ([]persist.Collection, error) {
	blob, err := s.remote.DownloadRaw(ctx, collectionsDocumentID)
	if err != nil {
		return nil, err
	}
	var collections []persist.Collection
	if err := json.Unmarshal(blob, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// SaveCollections persists the full collection list to both stores. The two
// writes are independent: a local failure never rolls back a remote success
// and vice versa. Overall success follows the remote outcome when the remote
// is configured, else the local outcome.
func (s *Store) SaveCollections(ctx context.Context, collections []persist.Collection) error {
	var remoteErr error
	if s.remote != nil {
		blob, err := json.MarshalIndent(collections, "", "  ")
		if err != nil {
			remoteErr = err
		} else if _, err := s.remote.UploadRaw(ctx, collectionsDocumentID, blob); err != nil {
			remoteErr = err
		}
		if remoteErr != nil {
			logger.For(ctx).Errorf("saving collections to remote: %s", remoteErr)
		}
	}

	localErr := s.local.writeCollections(collections)
	if localErr != nil {
		logger.For(ctx).Errorf("saving collections locally: %s", localErr)
	}

	if s.remote != nil {
		return remoteErr
	}
	return localErr
}

// SavePhotos persists the full photo list to the local snapshot. The remote's
// unit of photo write is the individual asset context, which the lifecycle
// operations maintain; there is no wholesale remote write for photos.
func (s *Store) SavePhotos(ctx context.Context, photos []persist.Photo) error {
	if err := s.local.writePhotos(photos); err != nil {
		logger.For(ctx).Errorf("saving photos locally: %s", err)
		return err
	}
	return nil
}

// AddPhoto uploads the photo's binary under a collision-safe name and
// attaches its metadata as the asset context, returning the completed
// record. There is no local-only upload path: an unconfigured remote fails
// the operation before any state changes.
func (s *Store) AddPhoto(ctx context.Context, photo persist.Photo, file io.Reader) (persist.Photo, error) {
	if s.remote == nil {
		return persist.Photo{}, persist.ErrRemoteNotConfigured{}
	}

	publicID := fmt.Sprintf("photo_%d_%s", photo.ID, util.UniqueFilename(photo.Filename))
	asset, err := s.remote.Upload(ctx, file, publicID, photoContext(photo))
	if err != nil {
		return persist.Photo{}, err
	}

	photo.RemoteURL = asset.SecureURL
	photo.RemoteAssetID = asset.PublicID
	photo.StorageType = persist.StorageTypeRemote
	return photo, nil
}

// ReassignPhoto moves a photo to another collection, or to none. The remote
// asset context is replaced in full first; if that fails the whole operation
// fails and the photo is left unchanged. The local snapshot is then mirrored
// best-effort.
func (s *Store) ReassignPhoto(ctx context.Context, photoID int64, ref persist.CollectionRef) (persist.Photo, error) {
	photos := s.LoadPhotos(ctx)
	photo, ok := persist.FindPhoto(photos, photoID)
	if !ok {
		return persist.Photo{}, persist.ErrPhotoNotFoundByID{ID: photoID}
	}

	if photo.RemoteAssetID != "" && s.remote != nil {
		updated := photo
		updated.CollectionID = ref
		if err := s.remote.UpdateContext(ctx, photo.RemoteAssetID, photoContext(updated)); err != nil {
			return persist.Photo{}, err
		}
	}

	for i := range photos {
		if photos[i].ID == photoID {
			photos[i].CollectionID = ref
			photo = photos[i]
		}
	}
	if err := s.local.writePhotos(photos); err != nil {
		logger.For(ctx).Warnf("mirroring photo reassignment locally: %s", err)
	}
	return photo, nil
}

// DeletePhoto removes the photo. The remote asset deletion is best-effort
// (a failure is logged, not fatal); the metadata removal from the snapshot
// always proceeds.
func (s *Store) DeletePhoto(ctx context.Context, photoID int64) error {
	photos := s.LoadPhotos(ctx)
	photo, ok := persist.FindPhoto(photos, photoID)
	if !ok {
		return persist.ErrPhotoNotFoundByID{ID: photoID}
	}

	if photo.RemoteAssetID != "" && s.remote != nil {
		if err := s.remote.Destroy(ctx, photo.RemoteAssetID); err != nil {
			logger.For(ctx).Warnf("deleting remote asset %s: %s", photo.RemoteAssetID, err)
		}
	}

	remaining := make([]persist.Photo, 0, len(photos))
	for _, p := range photos {
		if p.ID != photoID {
			remaining = append(remaining, p)
		}
	}
	if err := s.local.writePhotos(remaining); err != nil {
		logger.For(ctx).Warnf("removing photo from local snapshot: %s", err)
	}
	return nil
}

// photoContext flattens a photo into the key/value context attached to its
// remote asset. The context is the remote's full representation of the
// photo, so every key is always present.
func photoContext(photo persist.Photo) map[string]string {
	return map[string]string{
		"id":            strconv.FormatInt(photo.ID, 10),
		"filename":      photo.Filename,
		"title":         photo.Title,
		"description":   photo.Description,
		"collection_id": photo.CollectionID.Key(),
		"upload_date":   photo.UploadDate,
	}
}

// photosFromAssets materializes photos from remote assets, ordered by ID.
func photosFromAssets(assets []cloudinary.Asset) []persist.Photo {
	photos := make([]persist.Photo, 0, len(assets))
	for _, asset := range assets {
		photos = append(photos, photoFromAsset(asset, int64(len(photos)+1)))
	}
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].ID < photos[j].ID
	})
	return photos
}

// photoFromAsset rebuilds a photo from an asset's context, defaulting any
// value older uploads never set. fallbackID stands in when the context has
// no usable id.
func photoFromAsset(asset cloudinary.Asset, fallbackID int64) persist.Photo {
	kv := asset.Context

	id, err := strconv.ParseInt(kv["id"], 10, 64)
	if err != nil || id < 1 {
		id = fallbackID
	}

	// A malformed ref from an older writer reads as no collection.
	ref, err := persist.ParseCollectionRef(kv["collection_id"])
	if err != nil {
		ref = persist.CollectionRef{}
	}

	filename := kv["filename"]
	if filename == "" {
		filename = "photo.jpg"
	}
	title := kv["title"]
	if title == "" {
		title = "Untitled"
	}
	uploadDate := kv["upload_date"]
	if uploadDate == "" {
		uploadDate = asset.CreatedAt
	}

	return persist.Photo{
		ID:            id,
		Filename:      filename,
		Title:         title,
		Description:   kv["description"],
		CollectionID:  ref,
		RemoteURL:     asset.SecureURL,
		RemoteAssetID: asset.PublicID,
		UploadDate:    uploadDate,
		StorageType:   persist.StorageTypeRemote,
	}
}
