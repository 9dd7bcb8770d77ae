package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// presignTTL bounds how long an evidence URL handed to a client works
const presignTTL = 12 * time.Hour

// s3API is the subset of the S3 client used here
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// uploader streams a body to S3, switching to multipart for large videos
type uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// presigner signs GET requests for private objects
type presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store keeps evidence in a private S3 (or S3-compatible) bucket and hands
// out pre-signed URLs
type S3Store struct {
	client s3API
	up     uploader
	signer presigner
	bucket string
	prefix string
	urlTTL time.Duration
}

// NewS3Store loads AWS credentials from the environment (AWS_REGION,
// AWS_ENDPOINT_URL, ...) and targets bucket. Keys are placed under prefix.
func NewS3Store(ctx context.Context, bucket, prefix string, pathStyle bool) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
	})
	return newS3Store(client, manager.NewUploader(client), s3.NewPresignClient(client), bucket, prefix), nil
}

func newS3Store(client s3API, up uploader, signer presigner, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		up:     up,
		signer: signer,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		urlTTL: presignTTL,
	}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// countingReader tracks how many bytes the uploader consumed
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *S3Store) Save(ctx context.Context, reportID uint, name string, r io.Reader) (string, int64, error) {
	key := ObjectKey(reportID, name)

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := &countingReader{r: r}
	_, err := s.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", 0, fmt.Errorf("s3 put %s: %w", key, err)
	}
	return key, body.n, nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(cleaned)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	return out.Body, nil
}

func (s *S3Store) Remove(ctx context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(cleaned)),
	})
	return err
}

// URL returns a pre-signed GET URL valid for urlTTL. Signing is local and
// only fails on bad credentials, in which case the URL is empty.
func (s *S3Store) URL(key string) string {
	req, err := s.signer.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		log.Printf("⚠️ Storage: cannot sign URL for %s: %v", key, err)
		return ""
	}
	return req.URL
}
