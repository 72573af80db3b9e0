package files

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client builds an S3 client from the process's default AWS
// credential chain (environment, shared config, instance role), scoped to
// region. Region is required since this module never assumes a default.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("files: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}
