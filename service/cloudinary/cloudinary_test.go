package cloudinary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client := NewClient(Config{
		CloudName: "demo",
		APIKey:    "key",
		APISecret: "secret",
		Folder:    "gallery",
		BaseURL:   ts.URL,
	})
	client.now = func() time.Time { return time.Unix(1700000000, 0) }
	return client, ts
}

func TestConfigValid(t *testing.T) {
	assert.True(t, Config{CloudName: "demo", APIKey: "k", APISecret: "s"}.Valid())
	assert.False(t, Config{CloudName: "demo", APIKey: "k"}.Valid())
	assert.False(t, Config{}.Valid())
}

func TestListAssets(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/resources/image/upload", r.URL.Path)
		assert.Equal(t, "gallery/", r.URL.Query().Get("prefix"))
		assert.Equal(t, "true", r.URL.Query().Get("context"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		fmt.Fprint(w, `{"resources":[
			{"public_id":"gallery/photo_1_a.jpg","secure_url":"https://cdn/x.jpg","created_at":"2024-01-01T00:00:00Z",
			 "context":{"custom":{"id":"1","title":"Sunset","collection_id":3}}}
		]}`)
	})

	client, _ := testClient(t, handler)
	assets, err := client.ListAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 1)

	assert.Equal(t, "gallery/photo_1_a.jpg", assets[0].PublicID)
	assert.Equal(t, "Sunset", assets[0].Context["title"])
	assert.Equal(t, "3", assets[0].Context["collection_id"], "numeric context values normalize to strings")
}

func TestAssetContextShapes(t *testing.T) {
	t.Run("flat context from the upload API", func(t *testing.T) {
		var ac AssetContext
		require.NoError(t, json.Unmarshal([]byte(`{"id":"1","title":"Sunset"}`), &ac))
		assert.Equal(t, "Sunset", ac["title"])
	})

	t.Run("nested custom context from the admin API", func(t *testing.T) {
		var ac AssetContext
		require.NoError(t, json.Unmarshal([]byte(`{"custom":{"id":"1","title":"Sunset"}}`), &ac))
		assert.Equal(t, "Sunset", ac["title"])
	})
}

func TestUpload(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "photo_1_abc.jpg", r.FormValue("public_id"))
		assert.Equal(t, "gallery", r.FormValue("folder"))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.Equal(t, "1700000000", r.FormValue("timestamp"))
		assert.Equal(t, "id=1|title=Sunset", r.FormValue("context"))

		signed := url.Values{}
		for _, k := range []string{"public_id", "folder", "context", "timestamp"} {
			signed.Set(k, r.FormValue(k))
		}
		assert.Equal(t, signParams(signed, "secret"), r.FormValue("signature"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		payload, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "image-bytes", string(payload))

		fmt.Fprint(w, `{"public_id":"gallery/photo_1_abc.jpg","secure_url":"https://cdn/photo_1_abc.jpg"}`)
	})

	client, _ := testClient(t, handler)
	asset, err := client.Upload(context.Background(), strings.NewReader("image-bytes"), "photo_1_abc.jpg", map[string]string{"id": "1", "title": "Sunset"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/photo_1_abc.jpg", asset.SecureURL)
}

func TestUpdateContextAndDestroy(t *testing.T) {
	var gotPaths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.FormValue("signature"))
		assert.Equal(t, "gallery/photo_1_abc.jpg", r.FormValue("public_id"))
		fmt.Fprint(w, `{}`)
	})

	client, _ := testClient(t, handler)
	ctx := context.Background()

	require.NoError(t, client.UpdateContext(ctx, "gallery/photo_1_abc.jpg", map[string]string{"id": "1"}))
	require.NoError(t, client.Destroy(ctx, "gallery/photo_1_abc.jpg"))

	assert.Equal(t, []string{"/demo/image/explicit", "/demo/image/destroy"}, gotPaths)
}

func TestRawDocumentRoundTrip(t *testing.T) {
	var stored []byte
	mux := http.NewServeMux()
	var ts *httptest.Server

	mux.HandleFunc("/demo/raw/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "collections_metadata", r.FormValue("public_id"))
		assert.Equal(t, "true", r.FormValue("overwrite"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		stored, err = io.ReadAll(file)
		require.NoError(t, err)

		fmt.Fprint(w, `{"public_id":"gallery/collections_metadata"}`)
	})
	mux.HandleFunc("/demo/resources/raw/upload/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"public_id":"gallery/collections_metadata","secure_url":"%s/delivery/collections_metadata"}`, ts.URL)
	})
	mux.HandleFunc("/delivery/collections_metadata", func(w http.ResponseWriter, r *http.Request) {
		w.Write(stored)
	})

	client, server := testClient(t, mux)
	ts = server

	ctx := context.Background()
	doc := []byte(`[{"id":1,"name":"Weddings"}]`)

	_, err := client.UploadRaw(ctx, "collections_metadata", doc)
	require.NoError(t, err)

	got, err := client.DownloadRaw(ctx, "collections_metadata")
	require.NoError(t, err)
	assert.Equal(t, string(doc), string(got))
}

func TestErrorsSurfaceBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Invalid credentials"}}`)
	})

	client, _ := testClient(t, handler)
	_, err := client.ListAssets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSignParams(t *testing.T) {
	params := url.Values{}
	params.Set("timestamp", "1700000000")
	params.Set("public_id", "photo_1_abc.jpg")
	params.Set("folder", "gallery")

	sig := signParams(params, "secret")
	assert.Len(t, sig, 40, "sha1 hex digest")
	assert.Equal(t, sig, signParams(params, "secret"), "deterministic")

	params.Set("folder", "other")
	assert.NotEqual(t, sig, signParams(params, "secret"))
}

func TestEncodeContext(t *testing.T) {
	t.Run("sorted and pipe-delimited", func(t *testing.T) {
		got := encodeContext(map[string]string{"title": "Sunset", "id": "1"})
		assert.Equal(t, "id=1|title=Sunset", got)
	})

	t.Run("escapes separators in values", func(t *testing.T) {
		got := encodeContext(map[string]string{"title": "a=b|c"})
		assert.Equal(t, `title=a\=b\|c`, got)
	})
}
