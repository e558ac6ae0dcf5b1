package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3 struct {
	Endpoint     string
	Region       string
	Bucket       string
	StaticDomain string
	ak           string
	sk           string
	cli          *s3.Client
}

func NewS3Client(endpoint, region, bucket, staticDomain, ak, sk string) *S3 {
	cli := &S3{
		Endpoint:     endpoint,
		Region:       region,
		Bucket:       bucket,
		StaticDomain: strings.TrimSuffix(staticDomain, "/"),
		ak:           ak,
		sk:           sk,
	}

	if _, err := cli.defaultConfig(context.Background()); err != nil {
		panic(err)
	}

	return cli
}

func (s *S3) defaultConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: s.ak, SecretAccessKey: s.sk,
			},
		}),
		config.WithRegion(s.Region),
		config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           s.Endpoint,
				SigningRegion: s.Region,
			}, nil
		})))
	if err != nil {
		return aws.Config{}, err
	}

	s.cli = s3.NewFromConfig(cfg)
	return cfg, nil
}

// Upload stores the object and returns its public URL under the configured
// static domain.
func (s *S3) Upload(ctx context.Context, key string, body io.Reader) (string, error) {
	key = strings.TrimPrefix(key, "/")
	uploader := manager.NewUploader(s.cli)
	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}); err != nil {
		return "", err
	}

	if s.StaticDomain == "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.Endpoint, "/"), s.Bucket, key), nil
	}
	return fmt.Sprintf("%s/%s", s.StaticDomain, key), nil
}

func (s *S3) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")
	_, err := s.cli.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}
