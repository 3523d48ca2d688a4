package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"chem-datapackager/internal/ports"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL prefixes returned links; defaults to the bucket URL.
	PublicURL string
}

type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BlobS3Adapter uploads resource bodies to an S3-compatible bucket.
type BlobS3Adapter struct {
	Client    s3PutAPI
	Bucket    string
	PublicURL string
}

func NewBlobS3Adapter(ctx context.Context, cfg S3Config) (BlobS3Adapter, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return BlobS3Adapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("s3 bucket is empty")
	}
	options := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		options = append(options, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return BlobS3Adapter{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to load s3 configuration").
			WithCause(err)
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	switch {
	case publicURL != "":
	case endpoint != "":
		publicURL = endpoint + "/" + cfg.Bucket
	default:
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, awsCfg.Region)
	}
	return BlobS3Adapter{Client: client, Bucket: cfg.Bucket, PublicURL: publicURL}, nil
}

func (a BlobS3Adapter) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	clean, err := cleanBlobKey(key)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read blob body").
			WithCause(err)
	}
	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.Bucket),
		Key:           aws.String(clean),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to upload blob to s3").
			WithCause(err)
	}
	return fmt.Sprintf("%s/%s", a.PublicURL, clean), nil
}

var _ ports.BlobStorePort = BlobS3Adapter{}
