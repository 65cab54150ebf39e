package repository

import (
	"context"
	"testing"

	"vidlist-backend/internal/models"
)

func TestVideoRepo_BulkCreateEmptyIsNoop(t *testing.T) {
	// No pool: an empty batch must return before opening a transaction.
	repo := NewVideoRepo(nil)

	if err := repo.BulkCreate(context.Background(), nil); err != nil {
		t.Fatalf("BulkCreate(nil) = %v", err)
	}
	if err := repo.BulkCreate(context.Background(), []*models.Video{}); err != nil {
		t.Fatalf("BulkCreate(empty) = %v", err)
	}
}
