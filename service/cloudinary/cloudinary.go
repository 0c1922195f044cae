package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/georgesgallery/gallery-go/env"
	"github.com/georgesgallery/gallery-go/util"
)

func init() {
	env.RegisterValidation("CLOUDINARY_CLOUD_NAME", "omitempty,alphanum")
}

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// defaultMaxResults mirrors the admin API page size cap; the gallery is far
// below it, so listing is a single request with no pagination.
const defaultMaxResults = 500

// Config carries the credentials and addressing for the remote media host.
// All three credentials are required; anything less means the host is
// treated as unconfigured.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string

	// Folder namespaces every asset this deployment touches.
	Folder string

	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
}

// ConfigFromEnv reads the remote media host configuration.
func ConfigFromEnv() Config {
	return Config{
		CloudName: env.GetString("CLOUDINARY_CLOUD_NAME"),
		APIKey:    env.GetString("CLOUDINARY_API_KEY"),
		APISecret: env.GetString("CLOUDINARY_API_SECRET"),
		Folder:    env.GetString("CLOUDINARY_FOLDER"),
		BaseURL:   env.GetString("CLOUDINARY_BASE_URL"),
	}
}

// Valid reports whether the config is complete enough to reach the host.
func (c Config) Valid() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Asset is a stored object on the media host with its attached context.
type Asset struct {
	PublicID  string       `json:"public_id"`
	SecureURL string       `json:"secure_url"`
	CreatedAt string       `json:"created_at"`
	Context   AssetContext `json:"context"`
}

// AssetContext is the key/value metadata attached to an asset. The admin API
// nests the values under a "custom" key while the upload API returns them
// flat; both shapes decode into the same map.
type AssetContext map[string]string

// UnmarshalJSON implements json.Unmarshaler
func (ac *AssetContext) UnmarshalJSON(data []byte) error {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return err
	}

	payload := data
	if custom, ok := outer["custom"]; ok {
		payload = custom
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return err
	}

	out := make(AssetContext, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprintf("%v", t)
		}
	}
	*ac = out
	return nil
}

type listAssetsResponse struct {
	Resources []Asset `json:"resources"`
}

// Client is a minimal REST client for the media host's upload and admin
// APIs: list-by-prefix with context, signed uploads, in-place context
// replacement, deletion, and raw documents.
type Client struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	baseURL    string
	httpClient *http.Client

	// now is swapped out in signature tests
	now func() time.Time
}

// NewClient returns a client for the configured media host. Callers must
// check cfg.Valid first; an incomplete config means the host is unreachable
// and no client should exist.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	folder := cfg.Folder
	if folder == "" {
		folder = "georges_photo_gallery"
	}
	return &Client{
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		folder:     folder,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Folder returns the namespace prefix assets are stored under.
func (c *Client) Folder() string {
	return c.folder
}

// ListAssets queries the admin API for every uploaded asset under the folder
// prefix, including each asset's context metadata.
func (c *Client) ListAssets(ctx context.Context) ([]Asset, error) {
	endpoint := fmt.Sprintf("%s/%s/resources/image/upload", c.baseURL, c.cloudName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("prefix", c.folder+"/")
	q.Set("context", "true")
	q.Set("max_results", strconv.Itoa(defaultMaxResults))
	req.URL.RawQuery = q.Encode()
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, util.GetErrFromResp(res)
	}

	var body listAssetsResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Resources, nil
}

// Upload stores an image under folder/publicID with the given context
// metadata attached, returning the created asset.
func (c *Client) Upload(ctx context.Context, file io.Reader, publicID string, metadata map[string]string) (Asset, error) {
	signed := url.Values{}
	signed.Set("public_id", publicID)
	signed.Set("folder", c.folder)
	if len(metadata) > 0 {
		signed.Set("context", encodeContext(metadata))
	}

	return c.uploadMultipart(ctx, "image", signed, file, publicID)
}

// UploadRaw stores an arbitrary document under folder/publicID, replacing
// any previous version.
func (c *Client) UploadRaw(ctx context.Context, publicID string, blob []byte) (Asset, error) {
	signed := url.Values{}
	signed.Set("public_id", publicID)
	signed.Set("folder", c.folder)
	signed.Set("overwrite", "true")

	return c.uploadMultipart(ctx, "raw", signed, bytes.NewReader(blob), publicID)
}

// DownloadRaw fetches a raw document by resolving its delivery URL through
// the admin API and downloading it.
func (c *Client) DownloadRaw(ctx context.Context, publicID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s/resources/raw/upload/%s/%s", c.baseURL, c.cloudName, c.folder, url.PathEscape(publicID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, util.BodyAsError(res)
	}

	var asset Asset
	if err := json.NewDecoder(res.Body).Decode(&asset); err != nil {
		return nil, err
	}
	if asset.SecureURL == "" {
		return nil, util.ErrHTTP{URL: req.URL.String(), Status: res.StatusCode, Err: fmt.Errorf("no delivery URL for %s", publicID)}
	}

	dl, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.SecureURL, nil)
	if err != nil {
		return nil, err
	}
	dlRes, err := c.httpClient.Do(dl)
	if err != nil {
		return nil, err
	}
	defer dlRes.Body.Close()

	if dlRes.StatusCode != http.StatusOK {
		return nil, util.BodyAsError(dlRes)
	}
	return io.ReadAll(dlRes.Body)
}

// UpdateContext replaces an asset's context metadata in place. The API has
// no partial update, so callers must supply the full context every time.
func (c *Client) UpdateContext(ctx context.Context, publicID string, metadata map[string]string) error {
	signed := url.Values{}
	signed.Set("public_id", publicID)
	signed.Set("type", "upload")
	signed.Set("context", encodeContext(metadata))

	_, err := c.postSignedForm(ctx, "image/explicit", signed)
	return err
}

// Destroy deletes an asset by its public ID.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	signed := url.Values{}
	signed.Set("public_id", publicID)

	_, err := c.postSignedForm(ctx, "image/destroy", signed)
	return err
}

func (c *Client) sign(signed url.Values) url.Values {
	signed.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))

	form := url.Values{}
	for k := range signed {
		form.Set(k, signed.Get(k))
	}
	form.Set("api_key", c.apiKey)
	form.Set("signature", signParams(signed, c.apiSecret))
	return form
}

func (c *Client) postSignedForm(ctx context.Context, action string, signed url.Values) (Asset, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.cloudName, action)
	form := c.sign(signed)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Asset{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Asset{}, util.BodyAsError(res)
	}

	var asset Asset
	if err := json.NewDecoder(res.Body).Decode(&asset); err != nil {
		return Asset{}, err
	}
	return asset, nil
}

func (c *Client) uploadMultipart(ctx context.Context, resourceType string, signed url.Values, file io.Reader, filename string) (Asset, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/upload", c.baseURL, c.cloudName, resourceType)
	form := c.sign(signed)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k := range form {
		if err := w.WriteField(k, form.Get(k)); err != nil {
			return Asset{}, err
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Asset{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return Asset{}, err
	}
	if err := w.Close(); err != nil {
		return Asset{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Asset{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Asset{}, util.BodyAsError(res)
	}

	var asset Asset
	if err := json.NewDecoder(res.Body).Decode(&asset); err != nil {
		return Asset{}, err
	}
	return asset, nil
}
