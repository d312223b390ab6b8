package inject

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/text2image/internal/archive"
	"github.com/dmorgan81/text2image/internal/config"
	"github.com/dmorgan81/text2image/internal/feed"
	"github.com/dmorgan81/text2image/internal/generate"
	"github.com/dmorgan81/text2image/internal/handle"
	"github.com/dmorgan81/text2image/internal/handler"
	"github.com/dmorgan81/text2image/internal/image"
	"github.com/dmorgan81/text2image/internal/log"
	"github.com/dmorgan81/text2image/internal/page"
	"github.com/dmorgan81/text2image/internal/param"
	"github.com/dmorgan81/text2image/internal/prompt"
	"github.com/dmorgan81/text2image/internal/store"
	"github.com/samber/do"
)

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
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: 5 * time.Minute})
	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)

	do.ProvideNamed[string](injector, "dezgo_key", func(i *do.Injector) (string, error) {
		return secret(ctx, i, cfg.DezgoKey, cfg.DezgoKeyPath)
	})
	do.ProvideNamed[string](injector, "translate_key", func(i *do.Injector) (string, error) {
		return secret(ctx, i, cfg.TranslateKey, cfg.TranslateKeyPath)
	})

	do.Provide[image.Loader](injector, func(i *do.Injector) (image.Loader, error) {
		if cfg.ModelBackend == config.BackendDezgo {
			return &image.DezgoLoader{
				Client:       do.MustInvoke[*http.Client](i),
				Key:          do.MustInvokeNamed[string](i, "dezgo_key"),
				LoRAStrength: cfg.LoRAStrength,
			}, nil
		}
		return image.NewWorkerLoader(cfg.WorkerURL), nil
	})

	do.Provide[prompt.Detector](injector, func(i *do.Injector) (prompt.Detector, error) {
		return prompt.NewLinguaDetector(cfg.DetectLanguages, cfg.DetectMinDistance)
	})
	do.Provide[prompt.Translator](injector, func(i *do.Injector) (prompt.Translator, error) {
		if cfg.Translator == config.TranslatorCloud {
			return prompt.NewCloudTranslator(ctx, do.MustInvokeNamed[string](i, "translate_key"))
		}
		return prompt.NewWebTranslator(cfg.TranslateWebBaseURL), nil
	})
	do.Provide[*prompt.Normalizer](injector, func(i *do.Injector) (*prompt.Normalizer, error) {
		return prompt.NewNormalizer(do.MustInvoke[prompt.Detector](i), do.MustInvoke[prompt.Translator](i)), nil
	})

	do.ProvideValue[*page.Templator](injector, &page.Templator{})
	do.Provide[store.Store](injector, func(i *do.Injector) (store.Store, error) {
		if cfg.ArchiveBackend == config.ArchiveS3 {
			return &store.S3Uploader{Client: do.MustInvoke[*s3.Client](i), Bucket: cfg.ArchiveBucket}, nil
		}
		return &store.FileUploader{Dir: cfg.ArchiveDir}, nil
	})
	do.Provide[store.Invalidator](injector, func(i *do.Injector) (store.Invalidator, error) {
		if cfg.ArchiveDistribution == "" {
			return store.NopInvalidator{}, nil
		}
		return &store.CloudFrontInvalidator{Client: do.MustInvoke[*cloudfront.Client](i), Distribution: cfg.ArchiveDistribution}, nil
	})
	do.Provide[generate.Archiver](injector, func(i *do.Injector) (generate.Archiver, error) {
		if !cfg.ArchiveEnabled() {
			return archive.Discard{}, nil
		}
		return archive.NewArchiver(
			do.MustInvoke[store.Store](i),
			do.MustInvoke[store.Invalidator](i),
			do.MustInvoke[*page.Templator](i),
		), nil
	})
	do.Provide[*feed.Generator](injector, func(i *do.Injector) (*feed.Generator, error) {
		return feed.NewGenerator(do.MustInvoke[store.Store](i), cfg.ArchiveBaseURL), nil
	})

	do.Provide[*generate.Service](injector, func(i *do.Injector) (*generate.Service, error) {
		spec := image.Spec{
			BaseModel:   cfg.BaseModelID,
			LoRAWeights: cfg.LoRAWeights,
			DType:       cfg.DType,
			Variant:     cfg.Variant,
			Device:      cfg.Device,
		}
		return generate.NewService(
			do.MustInvoke[image.Loader](i),
			spec,
			do.MustInvoke[*prompt.Normalizer](i),
			do.MustInvoke[generate.Archiver](i),
			cfg.GenerateConcurrency,
		), nil
	})

	do.Provide[*handler.Handler](injector, func(i *do.Injector) (*handler.Handler, error) {
		var fg handler.FeedGenerator
		if cfg.ArchiveEnabled() {
			fg = do.MustInvoke[*feed.Generator](i)
		}
		return handler.NewHandler(do.MustInvoke[*generate.Service](i), fg), nil
	})
	do.Provide[*handler.Server](injector, func(i *do.Injector) (*handler.Server, error) {
		return handler.NewServer(cfg.Addr(), cfg.ShutdownTimeout, cfg.Release, log, do.MustInvoke[*handler.Handler](i)), nil
	})
	do.Provide[*handle.URLHandler](injector, func(i *do.Injector) (*handle.URLHandler, error) {
		return handle.NewURLHandler(do.MustInvoke[*generate.Service](i)), nil
	})

	return injector
}

// secret resolves an inline value or, failing that, an SSM parameter. The
// parameter store client is only built when a parameter is actually named.
func secret(ctx context.Context, i *do.Injector, value, path string) (string, error) {
	if strings.TrimSpace(path) == "" || strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), nil
	}
	return param.Resolve(ctx, do.MustInvoke[param.Fetcher](i), value, path)
}
