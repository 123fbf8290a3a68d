package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// StorageService keeps the original uploaded file next to its extracted text.
type StorageService interface {
	Save(ctx context.Context, originalName string, data []byte) (string, error)
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	EnsureReady(ctx context.Context) error
}

func storageKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("resume_%s%s", uuid.New().String(), ext)
}

type localStorageService struct {
	uploadPath string
}

func NewLocalStorageService(uploadPath string) StorageService {
	return &localStorageService{
		uploadPath: uploadPath,
	}
}

func (s *localStorageService) EnsureReady(context.Context) error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (s *localStorageService) Save(_ context.Context, originalName string, data []byte) (string, error) {
	key := storageKey(originalName)
	if err := os.WriteFile(filepath.Join(s.uploadPath, key), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return key, nil
}

func (s *localStorageService) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.uploadPath, filepath.Base(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *localStorageService) Delete(_ context.Context, key string) error {
	if err := os.Remove(filepath.Join(s.uploadPath, filepath.Base(key))); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// S3Options configures an S3 or S3-compatible (R2, MinIO) bucket.
type S3Options struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type s3StorageService struct {
	client *s3.Client
	bucket string
}

func NewS3StorageService(ctx context.Context, opts S3Options) (StorageService, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3StorageService{client: client, bucket: opts.Bucket}, nil
}

func (s *s3StorageService) EnsureReady(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	}); err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", s.bucket, err)
	}
	return nil
}

func (s *s3StorageService) Save(ctx context.Context, originalName string, data []byte) (string, error) {
	key := storageKey(originalName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return key, nil
}

func (s *s3StorageService) Load(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *s3StorageService) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
