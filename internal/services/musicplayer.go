// MusicPlayer API client covering auth, profile and catalogue endpoints.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nguyentayninh0710/mpx/internal/models"
	"github.com/nguyentayninh0710/mpx/internal/session"
	"github.com/nguyentayninh0710/mpx/internal/shared"
)

// MusicPlayerService is the typed client for the MusicPlayer API.
// Implements session.AuthAPI for the refresh, profile and logout legs.
type MusicPlayerService struct {
	baseURL    string
	httpClient *http.Client
}

// NewMusicPlayerService creates a client for the API at baseURL.
func NewMusicPlayerService(baseURL string, client *http.Client) *MusicPlayerService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &MusicPlayerService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// CreateAccountRequest is the signup payload. Email and Phone are optional.
type CreateAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// SongQuery holds the catalogue list filters. Zero values are omitted from
// the query string. HasPreview is a tri-state: nil means no filter.
type SongQuery struct {
	Q          string
	Title      string
	Genre      string
	Language   string
	HasPreview *bool
	Sort       string // id_asc | id_desc | title_asc | title_desc
	Page       int
	PageSize   int
}

func (q SongQuery) encode() string {
	vals := url.Values{}
	if q.Q != "" {
		vals.Set("q", q.Q)
	}
	if q.Title != "" {
		vals.Set("title", q.Title)
	}
	if q.Genre != "" {
		vals.Set("genre", q.Genre)
	}
	if q.Language != "" {
		vals.Set("language", q.Language)
	}
	if q.HasPreview != nil {
		if *q.HasPreview {
			vals.Set("has_preview", "1")
		} else {
			vals.Set("has_preview", "0")
		}
	}
	if q.Sort != "" {
		vals.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		vals.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		vals.Set("page_size", strconv.Itoa(q.PageSize))
	}

	if len(vals) == 0 {
		return ""
	}
	return "?" + vals.Encode()
}

// tokenResponse mirrors the token grant payload of the login and refresh
// endpoints. Expiries are absolute epoch seconds.
type tokenResponse struct {
	TokenType        string `json:"token_type"`
	AccessToken      string `json:"access_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

func (t tokenResponse) pair() *session.TokenPair {
	return &session.TokenPair{
		AccessToken:      t.AccessToken,
		AccessExpiresAt:  t.AccessExpiresAt,
		RefreshToken:     t.RefreshToken,
		RefreshExpiresAt: t.RefreshExpiresAt,
	}
}

// errorDetail is the API's error body shape.
type errorDetail struct {
	Detail string `json:"detail"`
}

// doRequest performs a JSON request and decodes a 2xx body into result.
// A non-2xx status maps to a sentinel error carrying the server's detail.
func (m *MusicPlayerService) doRequest(ctx context.Context, method, path, bearer string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return m.statusError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusError maps a non-2xx response to a sentinel error.
func (m *MusicPlayerService) statusError(resp *http.Response) error {
	var detail errorDetail
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &detail); err != nil || detail.Detail == "" {
		detail.Detail = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, detail.Detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, detail.Detail)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", shared.ErrAccountConflict, detail.Detail)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, detail.Detail)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, detail.Detail)
	}
}

// Login exchanges an identifier (email or username) and password for a token
// pair. Both legs are always issued; the caller decides whether the refresh
// leg is persisted.
func (m *MusicPlayerService) Login(ctx context.Context, identifier, password string) (*session.TokenPair, error) {
	payload := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var grant tokenResponse
	if err := m.doRequest(ctx, http.MethodPost, "/api/auth/login", "", payload, &grant); err != nil {
		return nil, err
	}

	return grant.pair(), nil
}

// CreateAccount registers a new user. A duplicate username or email surfaces
// as [shared.ErrAccountConflict]; signup does not log the user in.
func (m *MusicPlayerService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*models.User, error) {
	var user models.User
	if err := m.doRequest(ctx, http.MethodPost, "/api/users", "", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges a refresh token for a new token pair. The server rotates
// the refresh leg on every successful call.
func (m *MusicPlayerService) Refresh(ctx context.Context, refreshToken string) (*session.TokenPair, error) {
	payload := map[string]string{"refresh_token": refreshToken}

	var grant tokenResponse
	if err := m.doRequest(ctx, http.MethodPost, "/api/auth/refresh", "", payload, &grant); err != nil {
		return nil, err
	}

	return grant.pair(), nil
}

// Profile fetches the authenticated account profile as raw JSON. The session
// guard caches the payload verbatim, so no intermediate decode happens here.
func (m *MusicPlayerService) Profile(ctx context.Context, accessToken string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := m.doRequest(ctx, http.MethodGet, "/api/me", accessToken, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Logout revokes the access token's session server-side.
func (m *MusicPlayerService) Logout(ctx context.Context, accessToken string) error {
	return m.doRequest(ctx, http.MethodPost, "/api/auth/logout", accessToken, nil, nil)
}

// Songs lists catalogue entries matching the query. The server returns a bare
// array; an empty page decodes to an empty slice.
func (m *MusicPlayerService) Songs(ctx context.Context, query SongQuery) ([]models.Song, error) {
	var songs []models.Song
	if err := m.doRequest(ctx, http.MethodGet, "/api/songs"+query.encode(), "", nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// Song fetches a single catalogue entry by its server ID.
// An unknown ID surfaces as [shared.ErrSongNotFound].
func (m *MusicPlayerService) Song(ctx context.Context, id int64) (*models.Song, error) {
	var song models.Song
	path := fmt.Sprintf("/api/songs/%d", id)
	if err := m.doRequest(ctx, http.MethodGet, path, "", nil, &song); err != nil {
		return nil, err
	}
	return &song, nil
}
