package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient initializes a Google Cloud Storage client
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC (service account / GOOGLE_APPLICATION_CREDENTIALS).
	// Set GCS_CREDENTIALS_JSON to provide explicit JSON (e.g. locally).
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func bucketName() (string, error) {
	name := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if name == "" {
		return "", errors.New("GCS_BUCKET is required")
	}
	return name, nil
}

func UploadBytesToGCS(ctx context.Context, objectName string, data []byte, contentType string) error {
	bucket, err := bucketName()
	if err != nil {
		return err
	}
	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to upload bytes to Google Cloud Storage: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// DeleteObjectFromGCS removes an object; a missing object is not an error.
func DeleteObjectFromGCS(ctx context.Context, objectName string) error {
	bucket, err := bucketName()
	if err != nil {
		return err
	}
	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Bucket(bucket).Object(objectName).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}
