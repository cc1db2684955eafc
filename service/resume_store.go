package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/blake-osondu/jobdroid-service/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ResumeStore keeps applicant resumes in object storage and hands out
// presigned URLs for platforms to fetch during submission. It implements
// ResumeURLProvider for the field mapper.
type ResumeStore struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewResumeStore(cfg *config.MinioConfig) (*ResumeStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ResumeStore{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the resume bucket if it doesn't exist
func (s *ResumeStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// UploadResume stores a resume document under the given object name
func (s *ResumeStore) UploadResume(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload resume: %w", err)
	}

	return nil
}

// ResumeURL generates a presigned URL for the resume with expiration
func (s *ResumeStore) ResumeURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteResume removes a resume document
func (s *ResumeStore) DeleteResume(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}

	return nil
}
