package storage

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/guardline/incident-ai/internal/domain/analysis"
)

// Store holds incident attachments in MinIO. Objects live under
// incidents/<incidentID>/<filename>.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
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

func (s *Store) objectKey(incidentID, filename string) string {
	return fmt.Sprintf("incidents/%s/%s", incidentID, filename)
}

// AttachmentURL composes the public URL of an attachment object. Only
// valid when the bucket is public; private buckets need PresignedURL.
func (s *Store) AttachmentURL(incidentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucketName, s.objectKey(incidentID, filename))
}

// PresignedURL generates a time-limited GET URL for an attachment.
func (s *Store) PresignedURL(ctx context.Context, incidentID, filename string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, s.objectKey(incidentID, filename), expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Resolver adapts the store into the URL resolver used by evidence
// extraction. With presign enabled, a signing failure falls back to the
// public URL so a storage hiccup degrades instead of dropping the image
// evidence outright.
func (s *Store) Resolver(presign bool, expiry time.Duration) analysis.URLResolver {
	if !presign {
		return s.AttachmentURL
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return func(incidentID, filename string) string {
		u, err := s.PresignedURL(context.Background(), incidentID, filename, expiry)
		if err != nil {
			log.Printf("presign failed for incident=%s file=%s: %v", incidentID, filename, err)
			return s.AttachmentURL(incidentID, filename)
		}
		return u
	}
}
