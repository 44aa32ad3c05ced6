package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"feedsync/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ContentType set on the stored feed object
const ContentType = "application/rss+xml"

// S3Store holds the feed document as one object in an S3-compatible bucket
type S3Store struct {
	client *minio.Client
	bucket string
	object string
}

func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		object: cfg.Object,
	}, nil
}

func (s *S3Store) Get(ctx context.Context) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("reading feed object %s/%s: %w", s.bucket, s.object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject defers the request; a missing key surfaces here
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("reading feed object %s/%s: %w", s.bucket, s.object, err)
	}

	return data, nil
}

func (s *S3Store) Put(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return fmt.Errorf("writing feed object %s/%s: %w", s.bucket, s.object, err)
	}
	return nil
}
