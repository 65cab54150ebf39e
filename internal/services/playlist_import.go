package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vidlist-backend/internal/logging"
	"vidlist-backend/internal/metrics"
	"vidlist-backend/internal/models"
)

const (
	defaultCatalogTimeout     = 30 * time.Second
	defaultCatalogConcurrency = 4
	cleanupTimeout            = 5 * time.Second
)

// ExtractPlaylistID returns the value of the list= query parameter.
// Parameters inside the fragment do not count.
func ExtractPlaylistID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	id := u.Query().Get("list")
	if id == "" {
		return "", false
	}
	return id, true
}

// Catalog is the read side of the external video catalog.
type Catalog interface {
	FetchPlaylistInfo(ctx context.Context, playlistID string) (*PlaylistInfo, error)
	FetchPlaylistMembership(ctx context.Context, playlistID string) ([]MembershipEntry, error)
	FetchVideoDetails(ctx context.Context, batch string) ([]VideoDetails, error)
}

type PlaylistStore interface {
	Create(ctx context.Context, p *models.Playlist) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type VideoStore interface {
	BulkCreate(ctx context.Context, videos []*models.Video) error
}

type ImporterOptions struct {
	// Timeout bounds every catalog call made by one import.
	Timeout     time.Duration
	Concurrency int
	BatchSize   int
	Metrics     *metrics.Metrics
}

// PlaylistImporter mirrors a catalog playlist and its videos into local storage.
//
// The playlist row is written before membership is fetched. If any later step
// fails the importer deletes that row again; if the delete also fails the
// empty playlist survives and is logged as orphaned. Imports are not
// idempotent: importing the same catalog playlist twice yields two playlists.
type PlaylistImporter struct {
	catalog     Catalog
	playlists   PlaylistStore
	videos      VideoStore
	timeout     time.Duration
	concurrency int
	batchSize   int
	metrics     *metrics.Metrics
}

func NewPlaylistImporter(catalog Catalog, playlists PlaylistStore, videos VideoStore, opts ImporterOptions) *PlaylistImporter {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultCatalogTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultCatalogConcurrency
	}
	if opts.BatchSize <= 0 || opts.BatchSize > MaxBatchSize {
		opts.BatchSize = MaxBatchSize
	}

	return &PlaylistImporter{
		catalog:     catalog,
		playlists:   playlists,
		videos:      videos,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		batchSize:   opts.BatchSize,
		metrics:     opts.Metrics,
	}
}

type ImportResult struct {
	Playlist *models.Playlist
	Videos   []*models.Video
}

func (i *PlaylistImporter) Import(ctx context.Context, ownerID uuid.UUID, rawURL string) (*ImportResult, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)

	catalogID, ok := ExtractPlaylistID(rawURL)
	if !ok {
		i.metrics.RecordImport("invalid_input", 0, start)
		return nil, fieldError("url", "URL must contain a list= parameter")
	}
	logger = logger.With(zap.String("catalog_playlist_id", catalogID))

	catalogCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	info, err := i.catalog.FetchPlaylistInfo(catalogCtx, catalogID)
	if err != nil {
		i.metrics.RecordImport("upstream_error", 0, start)
		if errors.Is(err, ErrCatalogPlaylistNotFound) {
			return nil, fieldError("url", "Playlist was not found on YouTube")
		}
		logger.Warn("failed to fetch playlist info", zap.Error(err))
		return nil, &UpstreamError{Message: "Error fetching playlist info", Err: err}
	}

	if fields := validatePlaylistInfo(info); len(fields) > 0 {
		i.metrics.RecordImport("invalid_input", 0, start)
		return nil, &ValidationError{Fields: fields}
	}

	playlist := &models.Playlist{
		Name:        info.Title,
		Description: info.Description,
		Thumbnails:  info.Thumbnails,
	}
	if ownerID != uuid.Nil {
		owner := ownerID
		playlist.OwnerID = &owner
	}

	if err := i.playlists.Create(ctx, playlist); err != nil {
		i.metrics.RecordImport("persistence_error", 0, start)
		logger.Error("failed to create playlist", zap.Error(err))
		return nil, &PersistenceError{Message: "Failed to create playlist", Err: err}
	}
	logger = logger.With(zap.String("playlist_id", playlist.ID.String()))

	entries, err := i.catalog.FetchPlaylistMembership(catalogCtx, catalogID)
	if err != nil {
		i.abort(ctx, logger, playlist, "upstream_error", start, err)
		return nil, &UpstreamError{Message: "Error fetching playlist items", Err: err}
	}

	ids := make([]string, len(entries))
	for idx, e := range entries {
		ids[idx] = e.VideoID
	}

	details, err := i.fetchDetails(catalogCtx, PlanBatches(ids, i.batchSize))
	if err != nil {
		i.abort(ctx, logger, playlist, "upstream_error", start, err)
		return nil, &UpstreamError{Message: "Error fetching video details", Err: err}
	}

	videos := make([]*models.Video, len(details))
	for idx, d := range details {
		videos[idx] = &models.Video{
			VideoID:     d.VideoID,
			Title:       d.Title,
			Description: d.Description,
			Thumbnails:  d.Thumbnails,
			Duration:    d.Duration,
			Position:    idx,
			PlaylistID:  playlist.ID,
		}
	}

	if err := i.videos.BulkCreate(ctx, videos); err != nil {
		i.abort(ctx, logger, playlist, "persistence_error", start, err)
		return nil, &PersistenceError{Message: "Failed to save playlist videos", Err: err}
	}

	i.metrics.RecordImport("success", len(videos), start)
	logger.Info("playlist imported",
		zap.Int("membership", len(entries)),
		zap.Int("videos", len(videos)),
		zap.Duration("took", time.Since(start)))

	return &ImportResult{Playlist: playlist, Videos: videos}, nil
}

// fetchDetails runs one lookup per batch concurrently and concatenates the
// results in batch order. The first failure cancels the remaining lookups.
func (i *PlaylistImporter) fetchDetails(ctx context.Context, batches []string) ([]VideoDetails, error) {
	results := make([][]VideoDetails, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, batch := range batches {
		g.Go(func() error {
			details, err := i.catalog.FetchVideoDetails(gctx, batch)
			if err != nil {
				return err
			}
			results[idx] = details
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	all := make([]VideoDetails, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// abort removes the playlist created earlier in a failed import.
func (i *PlaylistImporter) abort(ctx context.Context, logger *zap.Logger, playlist *models.Playlist, status string, start time.Time, cause error) {
	i.metrics.RecordImport(status, 0, start)

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := i.playlists.Delete(cleanupCtx, playlist.ID); err != nil {
		i.metrics.RecordOrphan()
		logger.Error("import failed and playlist cleanup failed; playlist is orphaned",
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	logger.Warn("import failed; playlist removed", zap.Error(cause))
}

func validatePlaylistInfo(info *PlaylistInfo) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(info.Title) == "" {
		fields["title"] = "YouTube playlist has no title"
	}
	if strings.TrimSpace(info.Description) == "" {
		fields["description"] = "YouTube playlist has no description"
	}
	if len(info.Thumbnails) == 0 {
		fields["thumbnails"] = "YouTube playlist has no thumbnails"
	}
	return fields
}
