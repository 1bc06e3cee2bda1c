package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"mediamarkt/crawler/internal/domain"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
)

// GCSUploader copies the local CSV file to a Cloud Storage object. It must
// run after the CSVExporter that produced the file.
type GCSUploader struct {
	client    *storage.Client
	bucket    string
	object    string
	localPath string
}

func NewGCSUploader(client *storage.Client, bucket, object, localPath string) *GCSUploader {
	return &GCSUploader{
		client:    client,
		bucket:    bucket,
		object:    object,
		localPath: localPath,
	}
}

func (u *GCSUploader) Name() string {
	return fmt.Sprintf("gs://%s/%s", u.bucket, u.object)
}

func (u *GCSUploader) Write(ctx context.Context, _ []string, _ []domain.Row) error {
	f, err := os.Open(u.localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s for upload: %w", u.localPath, err)
	}
	defer f.Close()

	w := u.client.Bucket(u.bucket).Object(u.object).NewWriter(ctx)
	w.ContentType = "text/csv; charset=utf-8"

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload %s: %w", u.localPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload: %w", err)
	}

	log.Infof("☁️ CSV uploaded to %s", u.Name())
	return nil
}
