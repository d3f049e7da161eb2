// Package storage talks to the S3-compatible object store: it allocates
// presigned upload slots, performs the binary transfers, and batch-deletes
// orphaned objects.
package storage

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/seichilog/seichilog/internal/logging"
	sc "github.com/seichilog/seichilog/internal/server/config"
)

// PresignAPI is the part of the S3 presign client the allocator uses.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ObjectAPI is the part of the S3 client the deleter uses.
type ObjectAPI interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Client bundles slot allocation, uploading and deletion against one bucket.
// It is constructed once and passed down explicitly; there is no lazy
// process-wide state.
type Client struct {
	presigner  PresignAPI
	objects    ObjectAPI
	httpClient *http.Client
	bucket     string
	slotTTL    time.Duration
	logger     logging.Logger

	// seams for tests
	now   func() time.Time
	newID func() string
}

// NewClient builds the S3 clients from config. Credentials and endpoint are
// static (MinIO-style root user or IAM key), matching the deployment model.
func NewClient(cfg *sc.Config, logger logging.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &Client{
		presigner:  s3.NewPresignClient(s3Client),
		objects:    s3Client,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		bucket:     cfg.S3Bucket,
		slotTTL:    cfg.UploadSlotTTL,
		logger:     logger,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}, nil
}
