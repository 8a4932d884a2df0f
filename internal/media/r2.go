// Package media stores profile images in an S3-compatible bucket
// (Cloudflare R2) and hands back public URLs
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"userhub/account-api/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

type R2Uploader struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucket     *string
	publicBase string
}

// NewR2 builds the client and checks the bucket exists up front so a
// misconfigured bucket fails at startup, not on the first upload
func NewR2(cfg Config) (*R2Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(cfg.Bucket)

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		o.Region = "auto"
	})

	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return nil, fmt.Errorf("bucket '%s' does not exist", cfg.Bucket)
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &R2Uploader{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucket:     bucket,
		publicBase: cfg.PublicBaseURL,
	}, nil
}

// Upload sniffs the content type, rejects anything that isn't an
// image, stores the bytes under a random key and returns the public URL
func (u *R2Uploader) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("no image data provided")
	}

	contentType := http.DetectContentType(data)

	ext, ok := imageExts[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %s", contentType)
	}

	key := util.RandStr(16) + ext

	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       u.bucket,
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to bucket, %w", err)
	}

	return u.publicBase + "/" + key, nil
}
