package inject

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/sdxlgen/internal/config"
	"github.com/dmorgan81/sdxlgen/internal/handler"
	"github.com/dmorgan81/sdxlgen/internal/image"
	"github.com/dmorgan81/sdxlgen/internal/log"
	"github.com/dmorgan81/sdxlgen/internal/param"
	"github.com/dmorgan81/sdxlgen/internal/prompt"
	"github.com/dmorgan81/sdxlgen/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

// Setup registers every service lazily. AWS clients are only built when a
// provider that needs them is invoked.
func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue[*config.Config](injector, cfg)

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		c, err := do.Invoke[aws.Config](i)
		return ssm.NewFromConfig(c), err
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		c, err := do.Invoke[aws.Config](i)
		return s3.NewFromConfig(c), err
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		c, err := do.Invoke[aws.Config](i)
		return cloudfront.NewFromConfig(c), err
	})
	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: cfg.Timeout})

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[image.Generator](injector, image.NewNvidiaGenerator)
	do.Provide[store.Uploader](injector, lo.Ternary(cfg.Storage == config.StorageS3, store.NewS3Uploader, store.NewFileUploader))
	do.Provide[store.Invalidator](injector, func(i *do.Injector) (store.Invalidator, error) {
		if cfg.Distribution == "" {
			return store.NopInvalidator{}, nil
		}
		return store.NewCloudFrontInvalidator(i)
	})

	do.ProvideNamed[image.KeyFunc](injector, "api_key", func(i *do.Injector) (image.KeyFunc, error) {
		if cfg.APIKey != "" || cfg.APIKeyParam == "" {
			return func(context.Context) (string, error) { return cfg.APIKey, nil }, nil
		}
		fetcher, err := do.Invoke[param.Fetcher](i)
		if err != nil {
			return nil, err
		}
		// Resolved on every Generate, never cached across invocations.
		return func(ctx context.Context) (string, error) {
			return fetcher.Fetch(ctx, cfg.APIKeyParam)
		}, nil
	})
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		switch {
		case len(cfg.Prompts) > 0:
			return cfg.Prompts, nil
		case cfg.PromptsParam != "":
			fetcher, err := do.Invoke[param.Fetcher](i)
			if err != nil {
				return nil, err
			}
			return fetcher.FetchAll(ctx, cfg.PromptsParam)
		default:
			return []string{prompt.Default}, nil
		}
	})
	do.ProvideNamedValue[string](injector, "endpoint", cfg.Endpoint)
	do.ProvideNamedValue[string](injector, "output_dir", cfg.OutputDir)
	do.ProvideNamedValue[string](injector, "bucket", cfg.Bucket)
	do.ProvideNamedValue[string](injector, "distribution", cfg.Distribution)

	do.Provide[*handler.Handler](injector, handler.NewHandler)

	return injector
}
