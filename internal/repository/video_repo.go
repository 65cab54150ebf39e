package repository

import (
	"context"
	"fmt"
	"time"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidlist-backend/internal/models"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

var videoCopyColumns = []string{
	"id", "video_id", "title", "description", "thumbnails", "duration",
	"position", "playlist_id", "created_at", "updated_at",
}

// BulkCreate writes every video in a single transaction. Either all rows are
// stored or none are.
func (r *VideoRepo) BulkCreate(ctx context.Context, videos []*models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(videos))
	for i, v := range videos {
		thumbs, err := marshalThumbnails(v.Thumbnails)
		if err != nil {
			return err
		}
		v.ID = uuid.New()
		v.CreatedAt = now
		v.UpdatedAt = now
		rows[i] = []any{
			v.ID, v.VideoID, v.Title, v.Description, thumbs, v.Duration,
			v.Position, v.PlaylistID, v.CreatedAt, v.UpdatedAt,
		}
	}

	return crdbpgx.ExecuteTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"videos"}, videoCopyColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy videos: %w", translateError(err))
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copied %d of %d videos", n, len(rows))
		}
		return nil
	})
}

func (r *VideoRepo) ListByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.Video, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, video_id, title, description, thumbnails, duration, position, playlist_id, created_at, updated_at
		FROM videos
		WHERE playlist_id = $1
		ORDER BY position ASC`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := make([]*models.Video, 0)
	for rows.Next() {
		v := &models.Video{}
		if err := rows.Scan(
			&v.ID, &v.VideoID, &v.Title, &v.Description, &v.Thumbnails, &v.Duration,
			&v.Position, &v.PlaylistID, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
