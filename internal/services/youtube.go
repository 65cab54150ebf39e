package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"vidlist-backend/internal/metrics"
	"vidlist-backend/internal/models"
)

// membershipPageSize is the largest page playlistItems.list will return.
const membershipPageSize = 50

var ErrCatalogPlaylistNotFound = errors.New("playlist not found in catalog")

// PlaylistInfo is the catalog's metadata for one playlist.
type PlaylistInfo struct {
	Title       string
	Description string
	Thumbnails  models.Thumbnails
}

// MembershipEntry is one (position, video) pair of a catalog playlist.
type MembershipEntry struct {
	Position int
	VideoID  string
}

type VideoDetails struct {
	VideoID     string
	Title       string
	Description string
	Thumbnails  models.Thumbnails
	Duration    string
}

// CatalogError wraps any failure of a catalog operation.
type CatalogError struct {
	Op  string
	ID  string
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

type CatalogOptions struct {
	// Endpoint overrides the API base URL. Empty means the public endpoint.
	Endpoint    string
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Metrics     *metrics.Metrics
}

// YouTubeCatalog reads playlists and videos from the YouTube Data API v3.
// It holds no per-request state and is safe for concurrent use.
type YouTubeCatalog struct {
	svc         *youtube.Service
	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	metrics     *metrics.Metrics
}

func NewYouTubeCatalog(ctx context.Context, apiKey string, opts CatalogOptions) (*YouTubeCatalog, error) {
	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 100 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 2 * time.Second
	}

	return &YouTubeCatalog{
		svc:         svc,
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.BaseBackoff,
		maxBackoff:  opts.MaxBackoff,
		metrics:     opts.Metrics,
	}, nil
}

func (c *YouTubeCatalog) FetchPlaylistInfo(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	const op = "playlist_info"

	var resp *youtube.PlaylistListResponse
	err := c.call(ctx, op, func() error {
		var err error
		resp, err = c.svc.Playlists.List([]string{"snippet", "contentDetails"}).
			Id(playlistID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &CatalogError{Op: op, ID: playlistID, Err: err}
	}

	if len(resp.Items) == 0 || resp.Items[0] == nil {
		return nil, &CatalogError{Op: op, ID: playlistID, Err: ErrCatalogPlaylistNotFound}
	}

	snippet := resp.Items[0].Snippet
	if snippet == nil {
		return nil, &CatalogError{Op: op, ID: playlistID, Err: errors.New("response is missing snippet")}
	}

	return &PlaylistInfo{
		Title:       snippet.Title,
		Description: snippet.Description,
		Thumbnails:  convertThumbnails(snippet.Thumbnails),
	}, nil
}

// FetchPlaylistMembership follows nextPageToken until the catalog stops
// returning one and returns every entry in catalog order.
func (c *YouTubeCatalog) FetchPlaylistMembership(ctx context.Context, playlistID string) ([]MembershipEntry, error) {
	const op = "playlist_items"

	entries := make([]MembershipEntry, 0, membershipPageSize)
	seenTokens := make(map[string]struct{})
	pageToken := ""

	for {
		var resp *youtube.PlaylistItemListResponse
		err := c.call(ctx, op, func() error {
			call := c.svc.PlaylistItems.List([]string{"contentDetails"}).
				PlaylistId(playlistID).
				MaxResults(membershipPageSize).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			resp, err = call.Do()
			return err
		})
		if err != nil {
			return nil, &CatalogError{Op: op, ID: playlistID, Err: err}
		}

		for _, item := range resp.Items {
			if item == nil || item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				return nil, &CatalogError{Op: op, ID: playlistID, Err: errors.New("playlist item is missing a video id")}
			}
			entries = append(entries, MembershipEntry{
				Position: len(entries),
				VideoID:  item.ContentDetails.VideoId,
			})
		}

		if resp.NextPageToken == "" {
			return entries, nil
		}
		if _, seen := seenTokens[resp.NextPageToken]; seen {
			return nil, &CatalogError{Op: op, ID: playlistID, Err: fmt.Errorf("page token %q repeated", resp.NextPageToken)}
		}
		seenTokens[resp.NextPageToken] = struct{}{}
		pageToken = resp.NextPageToken
	}
}

// FetchVideoDetails looks up one planned batch of comma-joined video ids.
func (c *YouTubeCatalog) FetchVideoDetails(ctx context.Context, batch string) ([]VideoDetails, error) {
	const op = "videos"

	var resp *youtube.VideoListResponse
	err := c.call(ctx, op, func() error {
		var err error
		resp, err = c.svc.Videos.List([]string{"snippet", "contentDetails"}).
			Id(batch).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, &CatalogError{Op: op, ID: batch, Err: err}
	}

	details := make([]VideoDetails, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Snippet == nil {
			return nil, &CatalogError{Op: op, ID: batch, Err: errors.New("video is missing snippet")}
		}
		d := VideoDetails{
			VideoID:     item.Id,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Thumbnails:  convertThumbnails(item.Snippet.Thumbnails),
		}
		if item.ContentDetails != nil {
			d.Duration = item.ContentDetails.Duration
		}
		details = append(details, d)
	}
	return details, nil
}

// call runs fn, retrying transient failures with capped exponential backoff.
func (c *YouTubeCatalog) call(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		start := time.Now()
		err := fn()
		c.metrics.RecordCatalogCall(op, start, err)
		if err == nil {
			return nil
		}
		if attempt >= c.maxRetries || !isTransient(ctx, err) {
			return err
		}

		c.metrics.RecordCatalogRetry(op)
		timer := time.NewTimer(backoffFor(attempt, c.baseBackoff, c.maxBackoff))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func backoffFor(attempt int, base, ceiling time.Duration) time.Duration {
	d := base << attempt
	if d <= 0 || d > ceiling {
		return ceiling
	}
	return d
}

func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func convertThumbnails(td *youtube.ThumbnailDetails) models.Thumbnails {
	out := models.Thumbnails{}
	if td == nil {
		return out
	}
	for name, t := range map[string]*youtube.Thumbnail{
		"default":  td.Default,
		"medium":   td.Medium,
		"high":     td.High,
		"standard": td.Standard,
		"maxres":   td.Maxres,
	} {
		if t == nil || t.Url == "" {
			continue
		}
		out[name] = models.Thumbnail{URL: t.Url, Width: t.Width, Height: t.Height}
	}
	return out
}
