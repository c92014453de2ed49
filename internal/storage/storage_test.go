package storage_test

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hack4change/moncton/internal/storage"
)

type mockPutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (m *mockPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.input = in
	b, _ := io.ReadAll(in.Body)
	m.body = string(b)
	if m.err != nil {
		return nil, m.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	t.Parallel()

	putter := &mockPutter{}
	store := storage.NewS3Store(putter, "avatars", "https://cdn.example/storage/v1/object/public/avatars/")

	url, err := store.Put(context.Background(), "abc.png", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/storage/v1/object/public/avatars/abc.png", url)
	assert.Equal(t, "avatars", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "abc.png", aws.ToString(putter.input.Key))
	assert.Equal(t, "image/png", aws.ToString(putter.input.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(putter.input.ContentLength))
	assert.Equal(t, "png-bytes", putter.body)
}

func TestS3Store_PutError(t *testing.T) {
	t.Parallel()

	store := storage.NewS3Store(&mockPutter{err: errors.New("denied")}, "avatars", "https://cdn.example")

	_, err := store.Put(context.Background(), "k", strings.NewReader("x"), 1, "image/png")
	assert.ErrorContains(t, err, "denied")
}

func TestNewObjectKey(t *testing.T) {
	t.Parallel()

	key, err := storage.NewObjectKey("Me At The Beach.JPG")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-z]{21}\.jpg$`), key)

	other, err := storage.NewObjectKey("Me At The Beach.JPG")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	bare, err := storage.NewObjectKey("avatar")
	require.NoError(t, err)
	assert.Len(t, bare, 21)
}
