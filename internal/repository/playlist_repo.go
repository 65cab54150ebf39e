package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidlist-backend/internal/models"
)

type PlaylistRepo struct {
	pool *pgxpool.Pool
}

func NewPlaylistRepo(pool *pgxpool.Pool) *PlaylistRepo {
	return &PlaylistRepo{pool: pool}
}

// Create assigns the playlist an identity and timestamps.
func (r *PlaylistRepo) Create(ctx context.Context, p *models.Playlist) error {
	thumbs, err := marshalThumbnails(p.Thumbnails)
	if err != nil {
		return err
	}

	p.ID = uuid.New()
	query := `
		INSERT INTO playlists (id, name, description, owner_id, thumbnails)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err = r.pool.QueryRow(ctx, query, p.ID, p.Name, p.Description, p.OwnerID, thumbs).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return translateError(err)
}

func (r *PlaylistRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	p := &models.Playlist{}
	query := `SELECT id, name, description, owner_id, thumbnails, created_at, updated_at
		FROM playlists WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Thumbnails, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

func (r *PlaylistRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Playlist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, owner_id, thumbnails, created_at, updated_at
		FROM playlists
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := make([]*models.Playlist, 0)
	for rows.Next() {
		p := &models.Playlist{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Thumbnails, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// Delete removes the playlist; its videos go with it through the cascade.
func (r *PlaylistRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM playlists WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalThumbnails(t models.Thumbnails) ([]byte, error) {
	if t == nil {
		t = models.Thumbnails{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnails: %w", err)
	}
	return b, nil
}
