package share

import (
	"context"
	"errors"
	"io"
	"testing"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/filekit"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://" + *in.Bucket + ".example/" + *in.Key + "?sig=1"}, nil
}

func newFake() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func TestShareUploadsEveryPart(t *testing.T) {
	fake := newFake()
	s := newS3Sharer(S3Config{Bucket: "b", Prefix: "shared"}, fake, fake, nil)

	a := &filekit.Artifact{ID: "abc", Parts: []filekit.Part{
		{Name: "doc-page-1.png", MediaType: "image/png", Data: []byte("one")},
		{Name: "doc-page-2.png", MediaType: "image/png", Data: []byte("two")},
	}}
	links, err := s.Share(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, "https://b.example/shared/abc/doc-page-1.png?sig=1\nhttps://b.example/shared/abc/doc-page-2.png?sig=1", links)
	assert.Equal(t, []byte("two"), fake.objects["shared/abc/doc-page-2.png"])
	assert.Equal(t, "image/png", fake.types["shared/abc/doc-page-1.png"])
}

func TestShareUploadFailure(t *testing.T) {
	fake := newFake()
	fake.failPut = errors.New("denied")
	s := newS3Sharer(S3Config{Bucket: "b"}, fake, fake, nil)

	_, err := s.Share(context.Background(), &filekit.Artifact{ID: "x", Parts: []filekit.Part{{Name: "a.txt"}}})
	assert.ErrorContains(t, err, "denied")
}

func TestShareEmptyArtifact(t *testing.T) {
	fake := newFake()
	s := newS3Sharer(S3Config{Bucket: "b"}, fake, fake, nil)
	_, err := s.Share(context.Background(), &filekit.Artifact{ID: "x"})
	assert.Error(t, err)
}

func TestS3ConfigValidate(t *testing.T) {
	assert.Error(t, (&S3Config{}).Validate())
	assert.NoError(t, (&S3Config{Bucket: "b"}).Validate())
}
