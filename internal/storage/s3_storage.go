package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/kapehan/cafe-pos/pkg/logger"
)

// MenuImageFolder is the key prefix for product photos.
const MenuImageFolder = "menu"

var ErrContentTypeNotAllowed = errors.New("content type not allowed")

// imageTypes maps allowed upload content types to the stored extension.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type PresignedURLResponse struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type S3Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or custom domain; S3 direct URL when empty
	PresignExpiry   time.Duration
}

type S3Storage struct {
	presigner *s3.PresignClient
	bucket    string
	region    string
	baseURL   string
	expiry    time.Duration
}

func NewS3Storage(ctx context.Context, opts S3Options) *S3Storage {
	var cfg aws.Config
	var err error

	// Static credentials when given, otherwise the default chain (env, profile, IAM role)
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = aws.Config{
			Region:      opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
		if err != nil {
			logger.Warn("Failed to load AWS default config, using region only", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = aws.Config{Region: opts.Region}
		}
	}

	expiry := opts.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &S3Storage{
		presigner: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:    opts.Bucket,
		region:    opts.Region,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		expiry:    expiry,
	}
}

// ObjectKey builds a collision-free key under folder. The extension follows
// the content type, not the client's filename.
func ObjectKey(folder, contentType string) (string, error) {
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, contentType)
	}
	return fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext), nil
}

// PresignMenuImage returns a presigned PUT for a new product photo.
func (s *S3Storage) PresignMenuImage(ctx context.Context, filename, contentType string) (*PresignedURLResponse, error) {
	key, err := ObjectKey(MenuImageFolder, contentType)
	if err != nil {
		return nil, err
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	logger.Debug("Presigned menu image upload", map[string]interface{}{
		"key":      key,
		"filename": filepath.Base(filename),
	})

	return &PresignedURLResponse{
		UploadURL: req.URL,
		FileURL:   s.FileURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(s.expiry).UTC(),
	}, nil
}

// FileURL is the public URL of key.
func (s *S3Storage) FileURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
