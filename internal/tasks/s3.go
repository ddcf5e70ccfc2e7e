package tasks

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// NewS3Uploader starts an AWS session in region and returns an upload manager for it.
//
// Credentials come from the usual AWS environment and shared config files.
func NewS3Uploader(region string) (s3manageriface.UploaderAPI, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to start AWS session: %w", err)
	}
	return s3manager.NewUploader(sess), nil
}

// objectKey maps a file under root to its key under prefix, always with forward slashes.
func objectKey(prefix, root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	return path.Join(strings.Trim(prefix, "/"), filepath.ToSlash(rel))
}

// uploadFile streams one file to bucket/key.
func uploadFile(ctx context.Context, u s3manageriface.UploaderAPI, bucket, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	_, err = u.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("unable to upload %q to %q: %w", key, bucket, err)
	}
	return nil
}
