// Package identity is the catalog service's view of the identity service:
// credential forwarding plus the membership-list operations the playlist
// saga depends on. All upstream failures are normalized here into a fixed
// taxonomy; raw transport errors never leave this package.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"soundstream/shared/go/models"
)

// Failure taxonomy for upstream identity calls.
var (
	// ErrUpstreamTimeout covers deadlines and connection failures. The
	// caller may retry the whole operation; compensation guarantees no
	// partial artifact survives a create failure.
	ErrUpstreamTimeout = errors.New("identity service timeout")
	// ErrDuplicatePlaylist means the playlist id is already in the user's
	// membership list. Not retryable as-is.
	ErrDuplicatePlaylist = errors.New("playlist already linked to user")
	// ErrUnauthorized means the forwarded credential was refused.
	ErrUnauthorized = errors.New("identity service rejected credential")
	// ErrUpstreamRejected covers any other explicit refusal.
	ErrUpstreamRejected = errors.New("identity service rejected request")
)

const callTimeout = 5 * time.Second

// Client calls the identity service with the original caller's credential.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client for the identity service at baseURL. Every call
// carries a fixed 5s timeout; a timeout is treated identically to an
// explicit failure for compensation purposes.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: callTimeout,
		},
	}
}

// AddPlaylist pushes the playlist id into the caller's membership list.
// Returns ErrDuplicatePlaylist when the id is already present.
func (c *Client) AddPlaylist(ctx context.Context, token string, playlistID int64) error {
	payload, err := json.Marshal(map[string]string{
		"playlistId": strconv.FormatInt(playlistID, 10),
	})
	if err != nil {
		return fmt.Errorf("marshal membership payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/users/playlists", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create membership request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	Attach(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return normalizeTransport("add playlist membership", err)
	}
	defer resp.Body.Close()

	return normalizeStatus("add playlist membership", resp.StatusCode)
}

// RemovePlaylist pulls the playlist id from the caller's membership list.
// Removing an id that is not present is a success, so retrying is always safe.
func (c *Client) RemovePlaylist(ctx context.Context, token string, playlistID int64) error {
	endpoint := fmt.Sprintf("%s/api/v1/users/playlists/%d", c.baseURL, playlistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create membership request: %w", err)
	}
	Attach(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return normalizeTransport("remove playlist membership", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return normalizeStatus("remove playlist membership", resp.StatusCode)
}

// Profile resolves the credential to the caller's identity.
func (c *Client) Profile(ctx context.Context, token string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/users/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("create profile request: %w", err)
	}
	Attach(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, normalizeTransport("fetch profile", err)
	}
	defer resp.Body.Close()

	if err := normalizeStatus("fetch profile", resp.StatusCode); err != nil {
		return nil, err
	}

	var body struct {
		Data *models.User `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("%w: empty profile", ErrUpstreamRejected)
	}
	return body.Data, nil
}

func normalizeTransport(op string, err error) error {
	// http.Client wraps both deadline and connection failures in url.Error;
	// all of them read as "upstream unreachable" for compensation purposes.
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUpstreamTimeout, err)
}

func normalizeStatus(op string, status int) error {
	switch {
	case status < 300:
		return nil
	case status == http.StatusConflict:
		return fmt.Errorf("%s: %w", op, ErrDuplicatePlaylist)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case status >= 500:
		return fmt.Errorf("%s: %w: status %d", op, ErrUpstreamTimeout, status)
	default:
		return fmt.Errorf("%s: %w: status %d", op, ErrUpstreamRejected, status)
	}
}
