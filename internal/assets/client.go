// Package assets wraps the media object store. Uploads return a durable URL;
// deletes are by-URL and idempotent, so compensation paths can call them
// without caring whether the object ever existed.
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Destination categories. The category selects the remote folder and the
// validation profile applied before any network call.
const (
	CategorySongs              = "songs"
	CategorySongThumbnails     = "song-thumbnails"
	CategoryPlaylistThumbnails = "playlist-thumbnails"
)

const (
	maxImageBytes = 5 << 20  // 5MB
	maxAudioBytes = 50 << 20 // 50MB

	uploadTimeout = 120 * time.Second
)

var (
	// ErrAssetTooLarge is returned before upload when the payload exceeds
	// the category's size ceiling.
	ErrAssetTooLarge = errors.New("asset exceeds size limit")
	// ErrUnsupportedMedia is returned for mime types outside the category's
	// allow-list.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrUnknownCategory is returned for a destination category the store
	// does not know.
	ErrUnknownCategory = errors.New("unknown asset category")
)

// transportError marks failures the caller may retry: timeouts, connection
// failures and 5xx responses. Validation failures never carry it.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// IsRetryable reports whether the upload failure was a transport-level
// problem rather than a rejected payload.
func IsRetryable(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

var imageMimes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var audioMimes = map[string]string{
	"audio/mpeg": ".mp3",
	"audio/ogg":  ".ogg",
	"audio/wav":  ".wav",
	"audio/flac": ".flac",
}

// Client talks to the media store over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a Client for the media store at baseURL.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: uploadTimeout,
		},
		log: log,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload stores data under the category and returns its durable URL.
// Validation failures happen before any network call and are fatal; network
// and 5xx failures are retryable (see IsRetryable).
func (c *Client) Upload(ctx context.Context, data []byte, mimeType, category string) (string, error) {
	ext, err := validate(data, mimeType, category)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s%s", category, uuid.New().String(), ext)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/upload/%s", c.baseURL, category)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &transportError{err: fmt.Errorf("upload %s: %w", category, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", &transportError{err: fmt.Errorf("upload %s: media store returned %s", category, resp.Status)}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload %s rejected: %s - %s", category, resp.Status, strings.TrimSpace(string(msg)))
	}

	var uploaded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if uploaded.SecureURL == "" {
		return "", errors.New("media store returned no asset URL")
	}

	return uploaded.SecureURL, nil
}

// Delete removes the object the URL points at. A missing object counts as
// success, so deleting an asset that was never uploaded, or deleting twice,
// is safe. Callers on compensation paths treat any returned error as a
// leaked-resource warning, never as fatal.
func (c *Client) Delete(ctx context.Context, assetURL string) error {
	if assetURL == "" {
		return nil
	}

	ref, err := objectRef(assetURL)
	if err != nil {
		return fmt.Errorf("resolve asset reference: %w", err)
	}

	endpoint := fmt.Sprintf("%s/assets/%s", c.baseURL, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 400:
		return fmt.Errorf("delete asset %s: media store returned %s", ref, resp.Status)
	}

	c.log.Debug().Str("asset", ref).Msg("deleted media store object")
	return nil
}

func validate(data []byte, mimeType, category string) (string, error) {
	var (
		allowed map[string]string
		limit   int
	)

	switch category {
	case CategorySongs:
		allowed, limit = audioMimes, maxAudioBytes
	case CategorySongThumbnails, CategoryPlaylistThumbnails:
		allowed, limit = imageMimes, maxImageBytes
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrUnsupportedMedia)
	}
	if len(data) > limit {
		return "", fmt.Errorf("%w: %d bytes over %d limit for %s", ErrAssetTooLarge, len(data), limit, category)
	}

	ext, ok := allowed[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %q not allowed for %s", ErrUnsupportedMedia, mimeType, category)
	}
	return ext, nil
}

// objectRef extracts "<category>/<name>" from a media store URL, dropping
// the extension the same way the store keys its objects.
func objectRef(assetURL string) (string, error) {
	parsed, err := url.Parse(assetURL)
	if err != nil {
		return "", err
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("unrecognized asset URL path %q", parsed.Path)
	}

	name := parts[len(parts)-1]
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return parts[len(parts)-2] + "/" + name, nil
}
