package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"clipscan/internal/domain/providers"
)

// Store serves staged media units (frames, audio windows) and archives
// verdict report artifacts in one bucket. An upstream ripper materializes
// media under <videoRef>/frames/ and <videoRef>/audio/ before a run starts.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New connects to MinIO and ensures the bucket exists.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Ping verifies the bucket is still reachable. Used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

// FrameAt implements providers.MediaSource. Missing objects map to
// ErrNotStaged so detectors skip the unit instead of failing the pass.
func (s *Store) FrameAt(ctx context.Context, videoRef string, ts float64) ([]byte, error) {
	key := fmt.Sprintf("%s/frames/%.1f.jpg", videoRef, ts)
	return s.read(ctx, key)
}

// AudioWindowAt implements providers.MediaSource.
func (s *Store) AudioWindowAt(ctx context.Context, videoRef string, start, duration float64) ([]byte, error) {
	key := fmt.Sprintf("%s/audio/%.1f_%.1f.wav", videoRef, start, duration)
	return s.read(ctx, key)
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if notFound(err) {
			return nil, providers.ErrNotStaged
		}
		return nil, err
	}
	return data, nil
}

func notFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey"
	}
	return false
}

// UploadReport stores a verdict report artifact and returns its URL.
// Assumes a public-read bucket; private buckets would need presigned URLs.
func (s *Store) UploadReport(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s/%s/%s", s.client.EndpointURL().Host, s.bucketName, key), nil
}
