package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = b
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(b)),
		ContentType: aws.String(f.types[aws.ToString(in.Key)]),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresign struct {
	err     error
	expires time.Duration
}

func (f *fakePresign) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	var o s3.PresignOptions
	for _, fn := range optFns {
		fn(&o)
	}
	f.expires = o.Expires
	return &v4.PresignedHTTPRequest{URL: "https://s3.local/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)}, nil
}

func TestNewS3_AppliesOptions(t *testing.T) {
	origLoad, origNew, origPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient = origLoad, origNew, origPre
	})

	loadDefaultAWSConfig = func(_ context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "minio", creds.AccessKeyID)
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(_ aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(*s3.Client) presignAPI { return &fakePresign{} }

	s, err := NewS3(context.Background(), Options{
		Endpoint: "http://127.0.0.1:9000", Region: "eu-central-1", Bucket: "maintlog",
		AccessKey: "minio", SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "maintlog", s.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3_Errors(t *testing.T) {
	_, err := NewS3(context.Background(), Options{})
	require.Error(t, err)

	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}
	_, err = NewS3(context.Background(), Options{Bucket: "b"})
	require.ErrorContains(t, err, "no profile")
}

func TestS3Store_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	s := &S3Store{bucket: "b", api: api, presign: &fakePresign{}}

	require.NoError(t, s.Put(ctx, "photos/e1/p1", "image/jpeg", []byte{0xff, 0xd8}))
	data, ct, err := s.Get(ctx, "photos/e1/p1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data)
	assert.Equal(t, "image/jpeg", ct)

	require.NoError(t, s.Delete(ctx, "photos/e1/p1"))
	_, _, err = s.Get(ctx, "photos/e1/p1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_BackendErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("503 slow down")
	s := &S3Store{bucket: "b", api: &fakeS3{err: boom}, presign: &fakePresign{err: boom}}

	require.ErrorIs(t, s.Put(ctx, "k", "", nil), boom)
	_, _, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, s.Delete(ctx, "k"), boom)
	_, err = s.PresignGet(ctx, "k", time.Minute)
	require.ErrorIs(t, err, boom)
}

func TestS3Store_PresignGet(t *testing.T) {
	p := &fakePresign{}
	s := &S3Store{bucket: "b", api: newFakeS3(), presign: p}

	url, err := s.PresignGet(context.Background(), "photos/e1/p1", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.local/b/photos/e1/p1", url)
	assert.Equal(t, 10*time.Minute, p.expires)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, _, err := m.Get(ctx, "x")
	require.ErrorIs(t, err, ErrNotFound)

	buf := []byte("abc")
	require.NoError(t, m.Put(ctx, "x", "text/plain", buf))
	buf[0] = 'z'
	got, ct, err := m.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, "text/plain", ct)

	url, err := m.PresignGet(ctx, "x", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "mem://x", url)

	require.NoError(t, m.Delete(ctx, "x"))
	assert.Zero(t, m.Len())
}
