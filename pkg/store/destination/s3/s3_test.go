package s3

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/hreffs/pkg/store/destination"
)

// fakeAPI keeps objects in a map.
type fakeAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: make(map[string][]byte)}
}

func (f *fakeAPI) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func newTestStore(t *testing.T, api API) *Store {
	t.Helper()
	s, err := New(Config{Client: api, Bucket: "downloads", KeyPrefix: "hreffs/", SpoolDir: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestUploadOnClose(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := newTestStore(t, api)

	exists, err := s.Exists(ctx, "/home/user/file.iso")
	require.NoError(t, err)
	assert.False(t, exists)

	w, err := s.Create(ctx, "/home/user/file.iso")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)

	// Nothing is visible before Close.
	exists, err = s.Exists(ctx, "file.iso")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Equal(t, "hello world", string(api.objects["downloads/hreffs/file.iso"]))
	exists, err = s.Exists(ctx, "file.iso")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDiscardSkipsUpload(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := newTestStore(t, api)

	w, err := s.Create(ctx, "partial.bin")
	require.NoError(t, err)
	_, _ = w.Write([]byte("half"))

	spool := w.(*spoolWriter).spool.Name()
	require.NoError(t, destination.Abandon(w))

	assert.Empty(t, api.objects)
	_, err = os.Stat(spool)
	assert.True(t, os.IsNotExist(err), "spool file should be removed")
}

func TestUploadFailure(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("access denied")
	s := newTestStore(t, api)

	w, err := s.Create(context.Background(), "f")
	require.NoError(t, err)
	assert.Error(t, w.Close())
}

func TestObjectKey(t *testing.T) {
	s := newTestStore(t, newFakeAPI())

	key, err := s.objectKey(`C:\Downloads\file.iso`)
	require.NoError(t, err)
	assert.Equal(t, "hreffs/file.iso", key)

	_, err = s.objectKey("/")
	assert.ErrorIs(t, err, destination.ErrInvalidName)
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Bucket: "b"})
	assert.Error(t, err)
	_, err = New(Config{Client: newFakeAPI()})
	assert.Error(t, err)
}
