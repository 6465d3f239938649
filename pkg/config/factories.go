package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/internal/ratelimiter"
	"github.com/marmos91/hreffs/pkg/fetch"
	"github.com/marmos91/hreffs/pkg/listing"
	"github.com/marmos91/hreffs/pkg/store/destination"
	destinationFs "github.com/marmos91/hreffs/pkg/store/destination/fs"
	destinationS3 "github.com/marmos91/hreffs/pkg/store/destination/s3"
	"github.com/marmos91/hreffs/pkg/store/snapshot"
	snapshotBadger "github.com/marmos91/hreffs/pkg/store/snapshot/badger"
	snapshotMemory "github.com/marmos91/hreffs/pkg/store/snapshot/memory"
)

// FetchOptions converts the transfer section into fetcher options.
func FetchOptions(cfg *Config) fetch.Options {
	return fetch.Options{
		FollowRedirects: cfg.Transfer.FollowRedirects,
		MaxRedirects:    cfg.Transfer.MaxRedirects,
		Timeout:         cfg.Transfer.Timeout,
		Verbose:         cfg.Transfer.Verbose,
		FailOnError:     cfg.Transfer.FailOnError,
		UserAgent:       cfg.Transfer.UserAgent,
	}
}

// Predicates builds the listing predicates from the configured extension lists.
func Predicates(cfg *Config) listing.Predicates {
	return listing.Predicates{
		Container: listing.NewExtensionSet(cfg.Listing.ContainerExtensions),
		Candidate: listing.NewExtensionSet(cfg.Listing.CandidateExtensions),
	}
}

// ProbeLimiter builds the rate limiter pacing probe requests.
func ProbeLimiter(cfg *Config) *ratelimiter.RateLimiter {
	return ratelimiter.New(cfg.Probe.RequestsPerSecond, cfg.Probe.Burst)
}

// decode decodes a type-specific options map, accepting durations as strings.
func decode(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// CreateSnapshotStore creates a snapshot store based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/store/snapshot/memory (LRU + TTL, ephemeral)
//   - "badger": Uses pkg/store/snapshot/badger (BadgerDB, persistent)
func CreateSnapshotStore(ctx context.Context, cfg *SnapshotsConfig) (snapshot.Store, error) {
	switch cfg.Type {
	case "memory":
		return createMemorySnapshotStore(ctx, cfg.Memory)
	case "badger":
		return createBadgerSnapshotStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown snapshot store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createMemorySnapshotStore creates an in-memory snapshot store.
func createMemorySnapshotStore(ctx context.Context, options map[string]any) (snapshot.Store, error) {
	// Check context before creating store
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	storeCfg := snapshotMemory.DefaultConfig()
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode memory snapshot store options: %w", err)
	}

	return snapshotMemory.New(storeCfg), nil
}

// createBadgerSnapshotStore creates a BadgerDB-based persistent snapshot store.
func createBadgerSnapshotStore(ctx context.Context, options map[string]any) (snapshot.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var storeCfg snapshotBadger.Config
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger snapshot store options: %w", err)
	}

	// Validate required fields
	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger snapshot store: db_path is required")
	}

	store, err := snapshotBadger.New(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger snapshot store: %w", err)
	}

	return store, nil
}

// CreateDestination creates the download destination based on configuration.
//
// Supported types:
//   - "filesystem": Uses pkg/store/destination/fs (local files)
//   - "s3": Uses pkg/store/destination/s3 (Amazon S3 or compatible storage)
func CreateDestination(ctx context.Context, cfg *DestinationConfig) (destination.Destination, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemDestination(ctx, cfg.Filesystem)
	case "s3":
		return createS3Destination(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown destination type: %q (supported: filesystem, s3)", cfg.Type)
	}
}

// createFilesystemDestination creates a local filesystem destination.
func createFilesystemDestination(ctx context.Context, options map[string]any) (destination.Destination, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var storeCfg destinationFs.Config
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem destination config: %w", err)
	}

	store, err := destinationFs.New(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem destination: %w", err)
	}
	return store, nil
}

// s3DestinationConfig is the decoded form of destination.s3.
type s3DestinationConfig struct {
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	MaxRetries      int           `mapstructure:"max_retries"`
	SpoolDir        string        `mapstructure:"spool_dir"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// createS3Destination creates an S3-based destination.
func createS3Destination(ctx context.Context, options map[string]any) (destination.Destination, error) {
	var storeCfg s3DestinationConfig
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 destination config: %w", err)
	}

	// Validate required fields
	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 destination: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 destination: region is required")
	}

	client, err := newS3Client(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	store, err := destinationS3.New(destinationS3.Config{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
		SpoolDir:  storeCfg.SpoolDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 destination: %w", err)
	}

	logger.Info("S3 destination initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// newS3Client builds an S3 client for the given settings.
func newS3Client(ctx context.Context, storeCfg s3DestinationConfig) (*s3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Custom endpoint for MinIO, Localstack and other compatible services
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default credential chain
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	if storeCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, storeCfg.Timeout)
		defer cancel()
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Path-style addressing for MinIO/Localstack
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	}), nil
}
