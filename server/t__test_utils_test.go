package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/georgesgallery/gallery-go/middleware"
	"github.com/georgesgallery/gallery-go/service/cloudinary"
	"github.com/georgesgallery/gallery-go/service/persist"
	"github.com/georgesgallery/gallery-go/service/store"
)

const testAdminPass = "test-admin-pass"

// fakeRemote is an in-memory media host for route tests.
type fakeRemote struct {
	assets  map[string]cloudinary.Asset
	rawDocs map[string][]byte

	listErr   error
	updateErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		assets:  map[string]cloudinary.Asset{},
		rawDocs: map[string][]byte{},
	}
}

func (f *fakeRemote) ListAssets(ctx context.Context) ([]cloudinary.Asset, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]cloudinary.Asset, 0, len(f.assets))
	for _, a := range f.assets {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRemote) Upload(ctx context.Context, file io.Reader, publicID string, metadata map[string]string) (cloudinary.Asset, error) {
	if _, err := io.ReadAll(file); err != nil {
		return cloudinary.Asset{}, err
	}
	asset := cloudinary.Asset{
		PublicID:  "gallery/" + publicID,
		SecureURL: "https://cdn.example.com/gallery/" + publicID,
		Context:   metadata,
	}
	f.assets[asset.PublicID] = asset
	return asset, nil
}

func (f *fakeRemote) UploadRaw(ctx context.Context, publicID string, blob []byte) (cloudinary.Asset, error) {
	f.rawDocs[publicID] = blob
	return cloudinary.Asset{PublicID: "gallery/" + publicID}, nil
}

func (f *fakeRemote) DownloadRaw(ctx context.Context, publicID string) ([]byte, error) {
	blob, ok := f.rawDocs[publicID]
	if !ok {
		return nil, errors.New("resource not found")
	}
	return blob, nil
}

func (f *fakeRemote) UpdateContext(ctx context.Context, publicID string, metadata map[string]string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	asset, ok := f.assets[publicID]
	if !ok {
		return errors.New("resource not found")
	}
	asset.Context = metadata
	f.assets[publicID] = asset
	return nil
}

func (f *fakeRemote) Destroy(ctx context.Context, publicID string) error {
	delete(f.assets, publicID)
	return nil
}

type testEnv struct {
	serverURL string
	remote    *fakeRemote
	store     *store.Store
}

// setup starts a test server backed by a fake remote. Should be called at
// the beginning of every route test.
func setup(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.ReleaseMode)
	viper.Set("ENV", "production")
	viper.Set("ADMIN_PASS", testAdminPass)
	viper.Set("SENTRY_DSN", "")
	viper.Set("STATIC_DIR", "")

	remote := newFakeRemote()
	dir := t.TempDir()
	s := store.New(remote, store.Config{
		PhotosPath:          filepath.Join(dir, "photos_data.json"),
		CollectionsPath:     filepath.Join(dir, "collections_data.json"),
		EmptyRemoteFallback: true,
	})

	ts := httptest.NewServer(CoreInit(s))
	t.Cleanup(ts.Close)

	return &testEnv{serverURL: ts.URL + "/api", remote: remote, store: s}
}

// setupLocalOnly starts a test server with no remote configured.
func setupLocalOnly(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.ReleaseMode)
	viper.Set("ENV", "production")
	viper.Set("ADMIN_PASS", testAdminPass)
	viper.Set("SENTRY_DSN", "")
	viper.Set("STATIC_DIR", "")

	dir := t.TempDir()
	s := store.New(nil, store.Config{
		PhotosPath:          filepath.Join(dir, "photos_data.json"),
		CollectionsPath:     filepath.Join(dir, "collections_data.json"),
		EmptyRemoteFallback: true,
	})

	ts := httptest.NewServer(CoreInit(s))
	t.Cleanup(ts.Close)

	return &testEnv{serverURL: ts.URL + "/api", store: s}
}

func (e *testEnv) request(t *testing.T, method, path string, body io.Reader, contentType string, admin bool) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.serverURL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if admin {
		req.Header.Set(middleware.AdminHeader, testAdminPass)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	return e.request(t, http.MethodGet, path, nil, "", false)
}

func (e *testEnv) sendJSON(t *testing.T, method, path string, payload interface{}, admin bool) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.request(t, method, path, bytes.NewReader(data), "application/json", admin)
}

// uploadPhoto posts a multipart photo upload, leaving out the file part when
// content is nil.
func (e *testEnv) uploadPhoto(t *testing.T, title, description, collectionID, filename string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("description", description))
	require.NoError(t, w.WriteField("collection_id", collectionID))
	if content != nil {
		part, err := w.CreateFormFile("photo", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return e.request(t, http.MethodPost, "/photos", &buf, w.FormDataContentType(), true)
}

// createCollection creates a collection through the API and returns it.
func (e *testEnv) createCollection(t *testing.T, name string) persist.Collection {
	t.Helper()

	resp := e.sendJSON(t, http.MethodPost, "/collections", map[string]string{"name": name}, true)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success    bool               `json:"success"`
		Collection persist.Collection `json:"collection"`
	}
	decodeBody(t, resp, &body)
	require.True(t, body.Success)
	return body.Collection
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out), "body: %s", data)
}

func errorOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decodeBody(t, resp, &body)
	require.False(t, body.Success)
	return body.Error
}

// photoPayload is the enriched photo shape returned by read endpoints.
type photoPayload struct {
	persist.Photo
	CollectionName string `json:"collection_name"`
}

func fmtID(id int64) string {
	return fmt.Sprintf("%d", id)
}
