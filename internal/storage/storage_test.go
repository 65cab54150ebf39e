package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestLocalStorage_Save(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root, "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	url, err := store.Save(context.Background(), "/playlists/abc.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "/uploads/playlists/abc.png" {
		t.Fatalf("unexpected url %q", url)
	}

	data, err := os.ReadFile(filepath.Join(root, "playlists", "abc.png"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	for _, key := range []string{"", "/", "../etc/passwd", "avatars/../../x"} {
		if _, err := store.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

type stubUploader struct {
	input *s3.PutObjectInput
	body  string
	out   *manager.UploadOutput
	err   error
}

func (s *stubUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	s.input = input
	if input.Body != nil {
		b, _ := io.ReadAll(input.Body)
		s.body = string(b)
	}
	return s.out, s.err
}

func TestS3Storage_Save(t *testing.T) {
	up := &stubUploader{out: &manager.UploadOutput{}}
	store := newS3Storage(up, "thumbs", "https://cdn.example.com/")

	url, err := store.Save(context.Background(), "playlists/p1.jpg", strings.NewReader("jpeg"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "https://cdn.example.com/playlists/p1.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
	if *up.input.Bucket != "thumbs" || *up.input.Key != "playlists/p1.jpg" {
		t.Fatalf("unexpected put input bucket=%q key=%q", *up.input.Bucket, *up.input.Key)
	}
	if up.body != "jpeg" {
		t.Fatalf("unexpected body %q", up.body)
	}
}

func TestS3Storage_FallsBackToLocation(t *testing.T) {
	up := &stubUploader{out: &manager.UploadOutput{Location: "https://thumbs.s3.amazonaws.com/a.png"}}
	store := newS3Storage(up, "thumbs", "")

	url, err := store.Save(context.Background(), "a.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "https://thumbs.s3.amazonaws.com/a.png" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestS3Storage_UploadError(t *testing.T) {
	up := &stubUploader{err: errors.New("access denied")}
	store := newS3Storage(up, "thumbs", "")

	if _, err := store.Save(context.Background(), "a.png", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
}
