package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Storage is a Storage backed by an S3-compatible bucket. Load downloads
// the object to a scratch file under cacheDir; Free removes that scratch
// copy once the caller is done with it, since the object itself lives
// remotely.
type S3Storage struct {
	client   *s3.Client
	bucket   string
	cacheDir string
}

// NewS3Storage builds an S3Storage against bucket using client, caching
// downloaded objects under cacheDir. cacheDir must already exist.
func NewS3Storage(client *s3.Client, bucket string, cacheDir string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, cacheDir: cacheDir}
}

func (s *S3Storage) Load(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("files: s3 storage: %w", err)
	}
	defer out.Body.Close()
	path := filepath.Join(s.cacheDir, keyPrefix(key), key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("files: s3 storage: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("files: s3 storage: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		return "", fmt.Errorf("files: s3 storage: %w", err)
	}
	return path, nil
}

func (s *S3Storage) Free(_ context.Context, _ string, path string) {
	_ = os.Remove(path)
}

func (s *S3Storage) GenerateKey(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *S3Storage) Upload(ctx context.Context, key string, r io.Reader) (UploadResult, error) {
	counter := &countingReader{r: r}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   counter,
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("files: s3 storage: %w", err)
	}
	return UploadResult{Size: counter.n}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("files: s3 storage: %w", err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
