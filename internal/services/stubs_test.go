package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidlist-backend/internal/models"
	"vidlist-backend/internal/repository"
)

// ─── Users ───

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
	err   error
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	r := &memUserRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *memUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.AvatarURL = &avatarURL
	return nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
	ttl    time.Duration
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]uuid.UUID)}
}

func (s *memTokenStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, id := range s.tokens {
		if id == userID {
			delete(s.tokens, t)
		}
	}
	s.tokens[token] = userID
	s.ttl = ttl
	return nil
}

func (s *memTokenStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, ErrTokenNotFound
	}
	return id, nil
}

func (s *memTokenStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *memTokenStore) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, id := range s.tokens {
		if id == userID {
			delete(s.tokens, t)
		}
	}
	return nil
}

type stubIssuer struct{ ttl time.Duration }

func (i stubIssuer) GenerateAccessToken(userID uuid.UUID, email, username string) (string, error) {
	return "access-" + userID.String(), nil
}

func (i stubIssuer) TTL() time.Duration { return i.ttl }

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string]string
	err   error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string]string)}
}

func (s *memBlobStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = string(b)
	return "https://cdn.test/" + key, nil
}

// ─── Playlists ───

type memPlaylistStore struct {
	mu        sync.Mutex
	playlists map[uuid.UUID]*models.Playlist
	created   []*models.Playlist
	deleted   []uuid.UUID
	createErr error
	deleteErr error
}

func newMemPlaylistStore() *memPlaylistStore {
	return &memPlaylistStore{playlists: make(map[uuid.UUID]*models.Playlist)}
}

func (s *memPlaylistStore) Create(ctx context.Context, p *models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.playlists[p.ID] = p
	s.created = append(s.created, p)
	return nil
}

func (s *memPlaylistStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *memPlaylistStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Playlist, 0)
	for _, p := range s.created {
		if p.OwnerID != nil && *p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	if offset >= len(out) {
		return []*models.Playlist{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memPlaylistStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.playlists[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

type memVideoStore struct {
	mu      sync.Mutex
	videos  []*models.Video
	calls   int
	err     error
	listErr error
}

func (s *memVideoStore) BulkCreate(ctx context.Context, videos []*models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.videos = append(s.videos, videos...)
	return nil
}

func (s *memVideoStore) ListByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*models.Video, 0)
	for _, v := range s.videos {
		if v.PlaylistID == playlistID {
			out = append(out, v)
		}
	}
	return out, nil
}

// ─── Catalog ───

type fakeCatalog struct {
	mu sync.Mutex

	info          *PlaylistInfo
	infoErr       error
	entries       []MembershipEntry
	membershipErr error
	detailsErr    error
	// block makes membership lookups wait for ctx cancellation.
	block bool

	infoCalls int
	batches   []string
}

func (c *fakeCatalog) FetchPlaylistInfo(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	c.mu.Lock()
	c.infoCalls++
	c.mu.Unlock()
	if c.infoErr != nil {
		return nil, c.infoErr
	}
	return c.info, nil
}

func (c *fakeCatalog) FetchPlaylistMembership(ctx context.Context, playlistID string) ([]MembershipEntry, error) {
	if c.block {
		<-ctx.Done()
		return nil, &CatalogError{Op: "playlist_items", ID: playlistID, Err: ctx.Err()}
	}
	if c.membershipErr != nil {
		return nil, c.membershipErr
	}
	return c.entries, nil
}

func (c *fakeCatalog) FetchVideoDetails(ctx context.Context, batch string) ([]VideoDetails, error) {
	c.mu.Lock()
	c.batches = append(c.batches, batch)
	c.mu.Unlock()
	if c.detailsErr != nil {
		return nil, c.detailsErr
	}

	ids := strings.Split(batch, ",")
	details := make([]VideoDetails, len(ids))
	for i, id := range ids {
		details[i] = VideoDetails{
			VideoID:     id,
			Title:       "Title " + id,
			Description: "",
			Thumbnails:  models.Thumbnails{"default": {URL: "https://i.ytimg.com/vi/" + id + "/default.jpg"}},
			Duration:    "PT3M",
		}
	}
	return details, nil
}

func catalogWithVideos(n int) *fakeCatalog {
	entries := make([]MembershipEntry, n)
	for i := range entries {
		entries[i] = MembershipEntry{Position: i, VideoID: fmt.Sprintf("vid%03d", i)}
	}
	return &fakeCatalog{
		info: &PlaylistInfo{
			Title:       "Lo-fi beats",
			Description: "Music to study to",
			Thumbnails:  models.Thumbnails{"high": {URL: "https://i.ytimg.com/pl/high.jpg", Width: 480, Height: 360}},
		},
		entries: entries,
	}
}

var errBoom = errors.New("boom")
