package testing

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/tvx/internal/models"
	"github.com/desertthunder/tvx/internal/services"
	"github.com/desertthunder/tvx/internal/shared"
)

const fakeRoot = "https://api.spotify.test/v1/"

// InsertCall records one [FakeSpotify.InsertPlaylistItem] request.
type InsertCall struct {
	PlaylistID string
	URI        string
	Position   int
}

// RemoveCall records one [FakeSpotify.RemovePlaylistItems] request.
type RemoveCall struct {
	PlaylistID string
	URIs       []string
	SnapshotID string
}

// FakeSpotify is an in-memory [services.PlaylistAPI].
//
// Playlist contents are mutated by inserts and removals so tests can assert the
// final track order. Failures are injected per playlist id.
type FakeSpotify struct {
	mu sync.Mutex

	Me        models.User
	Playlists []models.Playlist
	Items     map[string][]*models.Track // Playlist id to tracks, nil entries are unavailable items
	Catalog   map[string]*models.Track   // Tracks served by SeveralTracks

	PageSize     int   // Items per page of playlist items, default 100
	PlaylistsErr error // Returned when fetching the page after the last playlist page

	ItemsErr  map[string]error
	InsertErr map[string]error
	RemoveErr map[string]error
	TracksErr error

	Inserts    []InsertCall
	Removes    []RemoveCall
	TrackCalls [][]string
}

// NewFakeSpotify creates a [FakeSpotify] for user.
func NewFakeSpotify(user models.User) *FakeSpotify {
	return &FakeSpotify{
		Me:        user,
		Items:     map[string][]*models.Track{},
		Catalog:   map[string]*models.Track{},
		ItemsErr:  map[string]error{},
		InsertErr: map[string]error{},
		RemoveErr: map[string]error{},
	}
}

// AddPlaylist registers a playlist with the given tracks.
func (f *FakeSpotify) AddPlaylist(p models.Playlist, tracks ...*models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Playlists = append(f.Playlists, p)
	f.Items[p.ID] = tracks
}

// TrackIDs returns the ids of a playlist's tracks in order, "" for unavailable items.
func (f *FakeSpotify) TrackIDs(playlistID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.Items[playlistID]))
	for i, t := range f.Items[playlistID] {
		if t != nil {
			ids[i] = t.ID
		}
	}
	return ids
}

func (f *FakeSpotify) CurrentUser(ctx context.Context) (*models.User, error) {
	u := f.Me
	return &u, nil
}

func (f *FakeSpotify) UserPlaylists(pageSize int) *services.Pager[models.Playlist] {
	f.mu.Lock()
	playlists := slices.Clone(f.Playlists)
	fail := f.PlaylistsErr
	f.mu.Unlock()

	return staticPager(playlists, pageSize, fail)
}

func (f *FakeSpotify) PlaylistItems(playlistID, fields string) *services.Pager[models.TrackSlot] {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.ItemsErr[playlistID]; err != nil {
		return services.NewPager(fakeRoot, fakeRoot+"items", func(context.Context, string) (*services.Page[models.TrackSlot], error) {
			return nil, err
		})
	}

	slots := make([]models.TrackSlot, len(f.Items[playlistID]))
	for i, t := range f.Items[playlistID] {
		var track *models.Track
		if t != nil {
			c := *t
			track = &c
		}
		slots[i] = models.TrackSlot{Position: i, Track: track}
	}

	size := f.PageSize
	if size <= 0 {
		size = 100
	}
	return staticPager(slots, size, nil)
}

func (f *FakeSpotify) SeveralTracks(ctx context.Context, ids []string) ([]*models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TrackCalls = append(f.TrackCalls, slices.Clone(ids))
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	if len(ids) > services.MaxTracksPerRequest {
		return nil, fmt.Errorf("%w: %d", shared.ErrTooManyIDs, len(ids))
	}

	out := make([]*models.Track, len(ids))
	for i, id := range ids {
		if t, ok := f.Catalog[id]; ok && t != nil {
			c := *t
			out[i] = &c
		}
	}
	return out, nil
}

func (f *FakeSpotify) InsertPlaylistItem(ctx context.Context, playlistID, uri string, position int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Inserts = append(f.Inserts, InsertCall{PlaylistID: playlistID, URI: uri, Position: position})
	if err := f.InsertErr[playlistID]; err != nil {
		return "", err
	}

	items := f.Items[playlistID]
	if position < 0 || position > len(items) {
		return "", fmt.Errorf("%w: position %d out of range", shared.ErrAPIRequest, position)
	}

	id := strings.TrimPrefix(uri, "spotify:track:")
	track := &models.Track{ID: id, URI: uri, Type: "track"}
	f.Items[playlistID] = slices.Insert(items, position, track)
	return f.snapshot(playlistID), nil
}

func (f *FakeSpotify) RemovePlaylistItems(ctx context.Context, playlistID string, uris []string, snapshotID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Removes = append(f.Removes, RemoveCall{PlaylistID: playlistID, URIs: slices.Clone(uris), SnapshotID: snapshotID})
	if err := f.RemoveErr[playlistID]; err != nil {
		return "", err
	}
	if len(uris) > services.MaxRemovePerRequest {
		return "", fmt.Errorf("%w: %d", shared.ErrTooManyIDs, len(uris))
	}

	f.Items[playlistID] = slices.DeleteFunc(f.Items[playlistID], func(t *models.Track) bool {
		return t != nil && slices.Contains(uris, t.URI)
	})
	return f.snapshot(playlistID), nil
}

// snapshot must be called with f.mu held.
func (f *FakeSpotify) snapshot(playlistID string) string {
	return playlistID + "-" + strconv.Itoa(len(f.Inserts)+len(f.Removes))
}

// staticPager serves items in pages of size. When fail is set the request for the
// page after the last one returns it.
func staticPager[T any](items []T, size int, fail error) *services.Pager[T] {
	if size <= 0 {
		size = 50
	}
	return services.NewPager(fakeRoot, fakeRoot+"page?offset=0", func(ctx context.Context, url string) (*services.Page[T], error) {
		offset, err := strconv.Atoi(url[strings.LastIndex(url, "=")+1:])
		if err != nil {
			return nil, err
		}
		if offset >= len(items) && fail != nil {
			return nil, fail
		}

		end := min(offset+size, len(items))
		page := &services.Page[T]{Items: items[min(offset, end):end], Total: len(items)}
		if end < len(items) || fail != nil {
			next := fmt.Sprintf("%spage?offset=%d", fakeRoot, end)
			page.Next = &next
		}
		return page, nil
	})
}

var _ services.PlaylistAPI = (*FakeSpotify)(nil)
