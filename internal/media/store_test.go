package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

type fakePutter struct {
	bucket, object, contentType string
	body                        string
	err                         error
}

func (f *fakePutter) PutObject(_ context.Context, bucket, object string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	b, _ := io.ReadAll(r)
	f.bucket, f.object, f.contentType, f.body = bucket, object, opts.ContentType, string(b)
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func TestUpload(t *testing.T) {
	putter := &fakePutter{}
	store := NewStore(putter, "post-media")

	key, err := store.Upload(context.Background(), "posts/a/b.jpg", strings.NewReader("jpeg"), 4, "image/jpeg; charset=binary")
	require.NoError(t, err)

	assert.Equal(t, "posts/a/b.jpg", key)
	assert.Equal(t, "post-media", putter.bucket)
	assert.Equal(t, "image/jpeg", putter.contentType)
	assert.Equal(t, "jpeg", putter.body)
}

func TestUploadRejects(t *testing.T) {
	store := NewStore(&fakePutter{}, "post-media")
	ctx := context.Background()

	_, err := store.Upload(ctx, "x.pdf", strings.NewReader("pdf"), 3, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = store.Upload(ctx, "x.png", strings.NewReader(""), 0, "image/png")
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = store.Upload(ctx, "x.mp4", strings.NewReader("v"), MaxUploadSize+1, "video/mp4")
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = store.Upload(ctx, "x.png", strings.NewReader("p"), 1, "")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	var disabled *Store
	_, err = disabled.Upload(ctx, "x.png", strings.NewReader("p"), 1, "image/png")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestUploadStoreFailure(t *testing.T) {
	store := NewStore(&fakePutter{err: errors.New("connection reset")}, "post-media")
	_, err := store.Upload(context.Background(), "x.png", strings.NewReader("p"), 1, "image/png")
	assert.True(t, apperr.Is(err, apperr.Unavailable))
}

func TestObjectName(t *testing.T) {
	owner := uuid.MustParse("3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
	name := ObjectName(owner, "../../Foto.JPG")
	assert.True(t, strings.HasPrefix(name, "posts/3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f/"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.NotContains(t, strings.TrimPrefix(name, "posts/"), "..")
}
