// Package media stores post attachments in an S3 compatible bucket.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

// MaxUploadSize caps a single attachment.
const MaxUploadSize = 50 << 20

var (
	ErrUnsupportedType = apperr.New(apperr.InvalidInput, "only image and video files are accepted")
	ErrInvalidSize     = apperr.New(apperr.InvalidInput, "file is empty or larger than 50MB")
	ErrDisabled        = apperr.New(apperr.Unavailable, "media uploads are not configured")
)

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Store struct {
	client objectPutter
	bucket string
}

func NewMinioClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return client, nil
}

// EnsureBucket creates bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return nil
}

func NewStore(client objectPutter, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// ObjectName builds a collision free key for an upload by ownerID.
func ObjectName(ownerID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	return fmt.Sprintf("posts/%s/%s%s", ownerID, uuid.NewString(), ext)
}

// Upload stores the object and returns its key, which posts reference as media.
func (s *Store) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrDisabled
	}
	if size <= 0 || size > MaxUploadSize {
		return "", ErrInvalidSize
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !(strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "video/")) {
		return "", ErrUnsupportedType
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: mediaType,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.Unavailable, err, "could not store media")
	}

	return objectName, nil
}
