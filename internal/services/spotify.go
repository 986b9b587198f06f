// Spotify Web API client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// SpotifyRootURL is the API origin every pagination cursor must start with.
	SpotifyRootURL = "https://api.spotify.com/v1/"

	DefaultRedirectURI = "http://127.0.0.1:3000/callback"

	// MaxTracksPerRequest is the id limit of GET /tracks.
	MaxTracksPerRequest = 50
	// MaxRemovePerRequest is the uri limit of DELETE /playlists/{id}/tracks.
	MaxRemovePerRequest = 100

	playlistItemsPageSize = 100
)

// PlaylistItemFields is the field filter used when reading playlist items for a scan.
const PlaylistItemFields = "total,next,items(track(album(name,images,external_urls.spotify),external_ids.isrc,external_urls.spotify,id,name,type,uri,is_local))"

// Scopes requested during authorization.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
}

// APIError is a non-2xx response from the Spotify Web API.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Endpoint   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("spotify API error: %s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap maps the status code onto the matching sentinel in [shared].
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return shared.ErrTokenExpired
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case http.StatusServiceUnavailable:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// SpotifyService is the Spotify Web API client used by the scanner and the replacer.
//
// Requests go through an [oauth2] client whose base transport is a [RetryTransport].
// Refreshed tokens are passed to the callback registered with [SpotifyService.SetTokenRefreshCallback].
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	transport  http.RoundTripper
	apiRoot    string
	logger     *log.Logger

	mu             sync.Mutex
	onTokenRefresh func(*oauth2.Token)
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithAPIRoot points the client at another API root, e.g. an [httptest.Server].
// A trailing slash is added when missing.
func WithAPIRoot(root string) Option {
	return func(s *SpotifyService) {
		if !strings.HasSuffix(root, "/") {
			root += "/"
		}
		s.apiRoot = root
	}
}

// WithTransport sets the transport beneath the oauth2 layer.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *SpotifyService) { s.transport = rt }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *SpotifyService) { s.logger = l }
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...Option) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		apiRoot: SpotifyRootURL,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.transport == nil {
		s.transport = NewRetryTransport(http.DefaultTransport, DefaultMaxRetries, 0, s.logger)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(io.Discard)
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// APIRoot returns the root every request and cursor is resolved against.
func (s *SpotifyService) APIRoot() string {
	return s.apiRoot
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token without installing it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Authenticate prepares the HTTP client from credentials.
//
// Accepted keys: "auth_code" (exchanged for a token), or "access_token" with optional
// "refresh_token".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		s.SetToken(ctx, token)
		return nil
	}

	accessToken, refreshToken := credentials["access_token"], credentials["refresh_token"]
	if accessToken != "" || refreshToken != "" {
		s.SetToken(ctx, &oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken})
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrNotAuthenticated)
}

// SetToken installs tok and builds the authenticated client around it.
func (s *SpotifyService) SetToken(ctx context.Context, tok *oauth2.Token) {
	ctx = s.clientContext(context.WithoutCancel(ctx))
	s.token = tok
	src := &refreshableTokenSource{source: s.config.TokenSource(ctx, tok), callback: s.notifyRefresh}
	s.httpClient = oauth2.NewClient(ctx, src)
}

// Token returns the token the service was authenticated with.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// SetTokenRefreshCallback registers fn to receive every new token, including refreshed ones.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokenRefresh = fn
}

func (s *SpotifyService) notifyRefresh(tok *oauth2.Token) {
	s.mu.Lock()
	fn := s.onTokenRefresh
	s.mu.Unlock()

	if fn != nil {
		fn(tok)
	}
}

func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: s.transport})
}

// refreshableTokenSource calls callback whenever the wrapped source yields a new access token.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	tok, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := tok.AccessToken != r.last
	r.last = tok.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		func() {
			defer func() { _ = recover() }()
			r.callback(tok)
		}()
	}
	return tok, nil
}

// resolve turns an endpoint relative to the API root into an absolute URL.
func (s *SpotifyService) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "https://") || strings.HasPrefix(endpoint, "http://") {
		return endpoint
	}
	return s.apiRoot + strings.TrimPrefix(endpoint, "/")
}

// doRequest performs an authenticated request and decodes a JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.resolve(endpoint), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, method, req.URL.Path)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newAPIError(resp *http.Response, method, endpoint string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Endpoint: endpoint}

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &payload) == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "me", nil, &user); err != nil {
		return nil, err
	}
	u := user.toModel()
	return &u, nil
}

// UserPlaylists returns a [Pager] over the current user's playlists.
func (s *SpotifyService) UserPlaylists(pageSize int) *Pager[models.Playlist] {
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 50
	}

	first := fmt.Sprintf("me/playlists?limit=%d", pageSize)
	return NewPager(s.apiRoot, first, func(ctx context.Context, endpoint string) (*Page[models.Playlist], error) {
		var resp spotifyPage[*SpotifySimplePlaylist]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return nil, err
		}

		page := &Page[models.Playlist]{Total: resp.Total, Next: resp.Next, Items: make([]models.Playlist, 0, len(resp.Items))}
		for _, p := range resp.Items {
			if p == nil {
				continue
			}
			page.Items = append(page.Items, p.toModel())
		}
		return page, nil
	})
}

// PlaylistItems returns a [Pager] over the slots of a playlist, numbered from 0 in server order.
// fields is passed as the "fields" filter; empty means every field.
func (s *SpotifyService) PlaylistItems(playlistID, fields string) *Pager[models.TrackSlot] {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(playlistItemsPageSize))
	if fields != "" {
		q.Set("fields", fields)
	}

	first := fmt.Sprintf("playlists/%s/tracks?%s", url.PathEscape(playlistID), q.Encode())
	position := 0
	return NewPager(s.apiRoot, first, func(ctx context.Context, endpoint string) (*Page[models.TrackSlot], error) {
		var resp spotifyPage[SpotifyPlaylistItem]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return nil, err
		}

		page := &Page[models.TrackSlot]{Total: resp.Total, Next: resp.Next, Items: make([]models.TrackSlot, 0, len(resp.Items))}
		for _, item := range resp.Items {
			page.Items = append(page.Items, models.TrackSlot{Position: position, Track: item.toModel()})
			position++
		}
		return page, nil
	})
}

// SeveralTracks retrieves up to [MaxTracksPerRequest] tracks. The result is aligned with ids;
// ids Spotify does not serve are nil.
func (s *SpotifyService) SeveralTracks(ctx context.Context, ids []string) ([]*models.Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxTracksPerRequest {
		return nil, fmt.Errorf("%w: %d tracks requested, maximum is %d", shared.ErrTooManyIDs, len(ids), MaxTracksPerRequest)
	}

	endpoint := "tracks?ids=" + url.QueryEscape(strings.Join(ids, ","))

	var response struct {
		Tracks []*SpotifyTrack `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]*models.Track, len(ids))
	for i := range tracks {
		if i < len(response.Tracks) && response.Tracks[i] != nil {
			t := response.Tracks[i].toModel()
			tracks[i] = &t
		}
	}
	return tracks, nil
}

// InsertPlaylistItem inserts uri at the 0-based position and returns the new snapshot id.
func (s *SpotifyService) InsertPlaylistItem(ctx context.Context, playlistID, uri string, position int) (string, error) {
	body := struct {
		URIs     []string `json:"uris"`
		Position int      `json:"position"`
	}{URIs: []string{uri}, Position: position}

	var resp snapshotResponse
	endpoint := fmt.Sprintf("playlists/%s/tracks", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", err
	}
	return resp.SnapshotID, nil
}

// RemovePlaylistItems removes every occurrence of each uri. snapshotID is sent only when non-empty.
func (s *SpotifyService) RemovePlaylistItems(ctx context.Context, playlistID string, uris []string, snapshotID string) (string, error) {
	if len(uris) == 0 {
		return "", nil
	}
	if len(uris) > MaxRemovePerRequest {
		return "", fmt.Errorf("%w: %d items to remove, maximum is %d", shared.ErrTooManyIDs, len(uris), MaxRemovePerRequest)
	}

	type trackRef struct {
		URI string `json:"uri"`
	}
	body := struct {
		Tracks     []trackRef `json:"tracks"`
		SnapshotID string     `json:"snapshot_id,omitempty"`
	}{SnapshotID: snapshotID}
	for _, u := range uris {
		body.Tracks = append(body.Tracks, trackRef{URI: u})
	}

	var resp snapshotResponse
	endpoint := fmt.Sprintf("playlists/%s/tracks", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodDelete, endpoint, body, &resp); err != nil {
		return "", err
	}
	return resp.SnapshotID, nil
}

// IsAuthError reports whether err means the user has to authorize again.
func IsAuthError(err error) bool {
	return errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated)
}

// TrackURI returns the Spotify URI of a track id.
func TrackURI(id string) string {
	return "spotify:track:" + id
}
