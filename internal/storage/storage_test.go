package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(42, "Foto Choque.JPEG")
	assert.True(t, strings.HasPrefix(key, "reports/42/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpeg"), key)

	other := ObjectKey(42, "Foto Choque.JPEG")
	assert.NotEqual(t, key, other)

	long := ObjectKey(1, "clip.somethingverylong")
	assert.True(t, strings.HasSuffix(long, ".somethi"), long)
}

func TestCleanKey(t *testing.T) {
	for _, bad := range []string{"", "../etc/passwd", "reports/../../etc/passwd", "other/1/a.jpg", "/"} {
		_, err := cleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}

	got, err := cleanKey("/reports/3/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "reports/3/a.jpg", got)
}

func TestLocalStore_SaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "http://localhost:3005/uploads/")
	require.NoError(t, err)

	key, n, err := s.Save(ctx, 7, "evidencia.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("jpeg-bytes")), n)
	assert.True(t, strings.HasPrefix(key, "reports/7/"))
	assert.Equal(t, "http://localhost:3005/uploads/"+key, s.URL(key))

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, s.Remove(ctx, key))
	_, err = s.Open(ctx, key)
	assert.Error(t, err)

	// Removing twice is fine
	assert.NoError(t, s.Remove(ctx, key))

	_, err = s.Open(ctx, "../../secret")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

type fakeS3 struct {
	objects map[string][]byte
	acl     map[string]types.ObjectCannedACL
	ttl     time.Duration
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, acl: map[string]types.ObjectCannedACL{}}
}

func (f *fakeS3) Upload(ctx context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.acl[aws.ToString(in.Key)] = in.ACL
	return &manager.UploadOutput{Key: in.Key}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.ttl = opts.Expires
	u := fmt.Sprintf("https://%s.s3.example.com/%s?X-Amz-Expires=%d&X-Amz-Signature=deadbeef",
		aws.ToString(in.Bucket), aws.ToString(in.Key), int(opts.Expires.Seconds()))
	return &v4.PresignedHTTPRequest{URL: u, Method: http.MethodGet}, nil
}

func TestS3Store_SaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newS3Store(fake, fake, fake, "mdpp", "/evidencias/")

	key, n, err := s.Save(ctx, 3, "clip.mp4", strings.NewReader("video"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Contains(t, fake.objects, "evidencias/"+key)
	assert.Equal(t, types.ObjectCannedACLPrivate, fake.acl["evidencias/"+key])

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "video", string(data))

	require.NoError(t, s.Remove(ctx, key))
	assert.Empty(t, fake.objects)
}

func TestS3Store_URLIsPresigned(t *testing.T) {
	fake := newFakeS3()
	s := newS3Store(fake, fake, fake, "mdpp", "evidencias")

	raw := s.URL("reports/3/clip.mp4")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/evidencias/reports/3/clip.mp4", u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"), "private objects need a signed URL")
	assert.Equal(t, presignTTL, fake.ttl)
}
