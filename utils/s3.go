package utils

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3Store uploads images to a public-read bucket fronted by a CDN.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Store(ctx context.Context, region, bucket, publicURL string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET not set")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for S3: %w", err)
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Store{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// UploadImage stores img under prefix/<uuid><ext> and returns its public URL.
func (s *S3Store) UploadImage(ctx context.Context, prefix string, img Image) (string, error) {
	key := fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), extensionFor(img.MIMEType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.MIMEType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok {
		return "." + sub
	}
	return ""
}
