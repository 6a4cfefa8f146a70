// Package storage publishes enriched datasets and run reports to
// S3-compatible object storage and reads them back.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"monument/internal/config"
	"monument/internal/dataset"
	"monument/internal/keys"
	"monument/internal/models"
)

// objectAPI is the part of *minio.Client the service uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type openFunc func(ctx context.Context, bucket, key string) (io.ReadCloser, error)

// S3Service is a client for S3-compatible storage.
type S3Service struct {
	client objectAPI
	open   openFunc
}

// NewS3Service connects to the MinIO server described by cfg.
func NewS3Service(cfg config.MinioConfig) (*S3Service, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, eris.New("storage: minio endpoint, access key and secret key are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "storage: create minio client")
	}

	zap.L().Info("connected to object storage", zap.String("endpoint", cfg.Endpoint))
	return &S3Service{
		client: client,
		open: func(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
			return client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
		},
	}, nil
}

// CreateBucket makes bucketName unless it already exists.
func (s *S3Service) CreateBucket(ctx context.Context, bucketName string, location string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, eris.Wrapf(err, "storage: check bucket %s", bucketName)
	}
	if !exists {
		err = s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return false, eris.Wrapf(err, "storage: make bucket %s", bucketName)
		}
		zap.L().Info("created bucket", zap.String("bucket", bucketName))
	}
	return true, nil
}

// PutDataset uploads the dataset file at localPath, replacing any earlier
// version, and returns its object key.
func (s *S3Service) PutDataset(ctx context.Context, bucketName, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", eris.Wrapf(err, "storage: open %s", localPath)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", eris.Wrapf(err, "storage: stat %s", localPath)
	}

	key := keys.Dataset(localPath)
	if err := s.put(ctx, bucketName, key, f, info.Size(), "text/csv"); err != nil {
		return "", err
	}
	return key, nil
}

// PutReport stores report as JSON under its run id and returns the key.
func (s *S3Service) PutReport(ctx context.Context, bucketName string, report models.RunReport) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", eris.Wrap(err, "storage: marshal run report")
	}
	key := keys.Report(report.RunID)
	if err := s.put(ctx, bucketName, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

// Publish makes sure the bucket exists and uploads the dataset and its report.
func (s *S3Service) Publish(ctx context.Context, bucketName, localPath string, report models.RunReport) error {
	if _, err := s.CreateBucket(ctx, bucketName, ""); err != nil {
		return err
	}
	if _, err := s.PutDataset(ctx, bucketName, localPath); err != nil {
		return err
	}
	_, err := s.PutReport(ctx, bucketName, report)
	return err
}

// GetDataset downloads and decodes a published dataset.
func (s *S3Service) GetDataset(ctx context.Context, bucketName, objectKey string) ([]models.EnrichedRecord, error) {
	obj, err := s.open(ctx, bucketName, objectKey)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: get %s/%s", bucketName, objectKey)
	}
	defer obj.Close()

	_, records, err := dataset.LoadEnriched(obj)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: decode %s/%s", bucketName, objectKey)
	}

	zap.L().Info("retrieved dataset",
		zap.String("bucket", bucketName),
		zap.String("key", objectKey),
		zap.Int("records", len(records)))
	return records, nil
}

func (s *S3Service) put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return eris.Wrapf(err, "storage: put %s/%s", bucket, key)
	}
	zap.L().Info("stored object", zap.String("bucket", bucket), zap.String("key", key), zap.Int64("bytes", size))
	return nil
}
