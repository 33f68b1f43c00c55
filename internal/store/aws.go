package store

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmorgan81/sdxlgen/internal/errs"
	"github.com/dmorgan81/sdxlgen/internal/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type ObjectPutter interface {
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	Client ObjectPutter
	Bucket string
}

func NewS3Uploader(i *do.Injector) (Uploader, error) {
	client, err := do.Invoke[*s3.Client](i)
	if err != nil {
		return nil, err
	}
	bucket, err := do.InvokeNamed[string](i, "bucket")
	if err != nil {
		return nil, err
	}
	return &S3Uploader{Client: client, Bucket: bucket}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, params UploadParams) (string, error) {
	contentType := params.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(params.Data).String()
	}

	log := log.FromContextOrDiscard(ctx).WithGroup("s3").With(
		"name", params.Name,
		"content-type", contentType,
		"bucket", u.Bucket,
	)
	log.Info("uploading to s3")

	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.Bucket),
		Key:          aws.String(params.Name),
		ContentType:  aws.String(contentType),
		Body:         bytes.NewReader(params.Data),
		Metadata:     params.Metadata,
		StorageClass: s3types.StorageClassIntelligentTiering,
	})
	if err != nil {
		return "", errs.IO("put s3://"+u.Bucket+"/"+params.Name, err)
	}
	return "s3://" + u.Bucket + "/" + params.Name, nil
}

type InvalidationCreator interface {
	CreateInvalidation(context.Context, *cloudfront.CreateInvalidationInput, ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

type CloudFrontInvalidator struct {
	Client       InvalidationCreator
	Distribution string
	now          func() time.Time
}

func NewCloudFrontInvalidator(i *do.Injector) (Invalidator, error) {
	client, err := do.Invoke[*cloudfront.Client](i)
	if err != nil {
		return nil, err
	}
	distribution, err := do.InvokeNamed[string](i, "distribution")
	if err != nil {
		return nil, err
	}
	return &CloudFrontInvalidator{Client: client, Distribution: distribution}, nil
}

func (i *CloudFrontInvalidator) Invalidate(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	log := log.FromContextOrDiscard(ctx).WithGroup("cloudfront").With("paths", paths, "distribution", i.Distribution)
	log.Info("invalidating paths")

	now := lo.Ternary(i.now != nil, i.now, time.Now)
	_, err := i.Client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(i.Distribution),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(now().UTC().Format("20060102150405")),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	return err
}
