package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const MaxImageBytes = 5 << 20

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("image exceeds 5 MiB")
)

// ImageStore writes listing photos to a Firebase Storage bucket.
type ImageStore struct {
	client *gcs.Client
	bucket string
}

func NewImageStore(ctx context.Context, bucket, credentialsFile string) (*ImageStore, error) {
	if bucket == "" {
		return nil, errors.New("STORAGE_BUCKET is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &ImageStore{client: client, bucket: bucket}, nil
}

// ObjectPath names a new listing image object, keeping an extension that matches contentType.
func ObjectPath(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", ErrNotImage
	}
	ext := ""
	switch mediaType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	default:
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return "listings/" + uuid.NewString() + ext, nil
}

// PublicURL is the Firebase download URL for objectPath guarded by token.
func PublicURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), token)
}

func (s *ImageStore) Upload(ctx context.Context, contentType string, data []byte) (string, error) {
	if len(data) > MaxImageBytes {
		return "", ErrTooLarge
	}
	objectPath, err := ObjectPath(contentType)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", objectPath, err)
	}
	return PublicURL(s.bucket, objectPath, token), nil
}

func (s *ImageStore) Close() error {
	return s.client.Close()
}
