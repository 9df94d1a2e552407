package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	client     *s3.Client
	bucketName string
	regionName string
)

// InitStorage bucket tanımlı değilse depolama devre dışı kalır
func InitStorage(bucket, region string) error {
	if bucket == "" {
		log.Println("File storage disabled: no bucket configured")
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client = s3.NewFromConfig(cfg)
	bucketName = bucket
	regionName = region
	log.Println("File storage initialized")
	return nil
}

func Enabled() bool {
	return client != nil
}

// UploadCSV dosyayı S3'e yükler ve public URL'ini döner
func UploadCSV(ctx context.Context, key string, data []byte) (string, error) {
	if client == nil {
		return "", fmt.Errorf("file storage is not configured")
	}

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucketName, regionName, key), nil
}
