package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"strings"

	"pressgrid-backend/shared/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaService stores post cover images in MinIO. Object keys are prefixed
// with the owning organization id, mirroring the tenant namespacing used in
// the cache layer.
type MediaService struct {
	client     *minio.Client
	bucketName string
	publicURL  string
}

func NewMediaService() (*MediaService, error) {
	cfg := config.GetConfig()

	parsedURL, err := url.Parse(cfg.MinIOServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MinIO endpoint: %v", err)
	}

	endpoint := parsedURL.Host
	useSSL := cfg.MinIOUseSSL

	log.Printf("🔗 Connecting to MinIO: %s (SSL: %v)", endpoint, useSSL)

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIORootUser, cfg.MinIORootPassword, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	service := &MediaService{
		client:     minioClient,
		bucketName: cfg.MinIOBucketName,
		publicURL:  strings.TrimRight(cfg.MinIOServerURL, "/"),
	}

	if err := service.initializeBucket(); err != nil {
		return nil, err
	}

	return service, nil
}

func (s *MediaService) initializeBucket() error {
	ctx := context.Background()

	log.Printf("🪣 Checking bucket: %s", s.bucketName)

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("✅ MinIO bucket '%s' created successfully", s.bucketName)
	} else {
		log.Printf("✅ MinIO bucket '%s' already exists", s.bucketName)
	}

	return nil
}

// objectKey builds the tenant-prefixed key for a post's cover image
func (s *MediaService) objectKey(organizationID, postID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/posts/%s/cover%s", organizationID, postID, path.Ext(filename))
}

// UploadCoverImage stores a cover image and returns its public URL
func (s *MediaService) UploadCoverImage(ctx context.Context, organizationID, postID uuid.UUID, filename, contentType string, reader io.Reader, size int64) (string, error) {
	key := s.objectKey(organizationID, postID, filename)

	_, err := s.client.PutObject(ctx, s.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover image: %v", err)
	}

	log.Printf("✅ Cover image stored: %s", key)
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucketName, key), nil
}

// DeleteCoverImages removes every stored cover variant for a post
func (s *MediaService) DeleteCoverImages(ctx context.Context, organizationID, postID uuid.UUID) error {
	prefix := fmt.Sprintf("%s/posts/%s/", organizationID, postID)

	objectCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return fmt.Errorf("failed to list cover images: %v", object.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucketName, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete %s: %v", object.Key, err)
		}
	}

	return nil
}

// AllowedMediaType checks the filename extension against configuration
func AllowedMediaType(filename string) bool {
	cfg := config.GetConfig()
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return false
	}

	for _, allowed := range strings.Split(cfg.MediaAllowedTypes, ",") {
		if ext == strings.TrimSpace(allowed) {
			return true
		}
	}
	return false
}
