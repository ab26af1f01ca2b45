package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
)

// loadAWSConfig resolves credentials through the SDK default chain.
func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config for %s: %w", region, err)
	}
	return cfg, nil
}
