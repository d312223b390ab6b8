package store

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/text2image/internal/log"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type S3Uploader struct {
	Client *s3.Client
	Bucket string
}

// Upload writes one archive object. The latest aliases are rewritten on every
// generation, so they are stored with caching disabled.
func (u *S3Uploader) Upload(ctx context.Context, params UploadParams) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With("key", params.Name, "bucket", u.Bucket)

	input := &s3.PutObjectInput{
		Bucket:       aws.String(u.Bucket),
		Key:          aws.String(params.Name),
		ContentType:  aws.String(params.ContentType),
		Body:         bytes.NewReader(params.Data),
		Metadata:     encodeMetadata(params.Metadata),
		StorageClass: s3types.StorageClassIntelligentTiering,
	}
	if isAlias(params.Name) {
		input.CacheControl = aws.String("no-cache")
		input.StorageClass = s3types.StorageClassStandard
	}

	log.Info("archiving object", "bytes", len(params.Data), "alias", isAlias(params.Name))
	if _, err := u.Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put %s: %w", params.Name, err)
	}
	return nil
}

// List returns every PNG object with its metadata. Metadata needs one
// HeadObject per key, fanned out per page.
func (u *S3Uploader) List(ctx context.Context) ([]Object, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With("bucket", u.Bucket)
	log.Info("listing objects")

	pager := s3.NewListObjectsV2Paginator(u.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.Bucket),
	})

	var objs []Object
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		keys := lo.Filter(page.Contents, func(o s3types.Object, _ int) bool {
			return strings.HasSuffix(aws.ToString(o.Key), ".png")
		})

		found := make([]Object, len(keys))
		group, gctx := errgroup.WithContext(ctx)
		for idx, obj := range keys {
			idx, obj := idx, obj
			group.Go(func() error {
				out, err := u.Client.HeadObject(gctx, &s3.HeadObjectInput{
					Bucket: aws.String(u.Bucket),
					Key:    obj.Key,
				})
				if err != nil {
					return err
				}
				found[idx] = Object{
					Name:     aws.ToString(obj.Key),
					Metadata: decodeMetadata(out.Metadata),
					Modified: aws.ToTime(out.LastModified),
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		objs = append(objs, found...)
	}
	return objs, nil
}

type CloudFrontInvalidator struct {
	Client       *cloudfront.Client
	Distribution string
}

// Invalidate drops the given archive paths from the CDN. Duplicate and empty
// paths are removed first; nothing left means no request.
func (i *CloudFrontInvalidator) Invalidate(ctx context.Context, paths []string) error {
	paths = lo.Uniq(lo.Compact(paths))
	if len(paths) == 0 {
		return nil
	}

	log := log.FromContextOrDiscard(ctx).WithGroup("cloudfront").With("paths", paths, "distribution", i.Distribution)
	log.Info("invalidating archive paths")

	out, err := i.Client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(i.Distribution),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(ulid.Make().String()),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("invalidate %d paths: %w", len(paths), err)
	}
	if out.Invalidation != nil {
		log.Debug("invalidation created", "id", aws.ToString(out.Invalidation.Id))
	}
	return nil
}

// S3 user metadata travels as HTTP headers and must be US-ASCII. Values
// carrying anything else, such as Vietnamese prompts, are stored as RFC 2047
// encoded words.
func encodeMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	return lo.MapValues(metadata, func(v string, _ string) string {
		return mime.BEncoding.Encode("utf-8", v)
	})
}

func decodeMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	var dec mime.WordDecoder
	return lo.MapValues(metadata, func(v string, _ string) string {
		decoded, err := dec.DecodeHeader(v)
		if err != nil {
			return v
		}
		return decoded
	})
}

func isAlias(name string) bool {
	return strings.HasPrefix(path.Base(name), "latest.")
}
