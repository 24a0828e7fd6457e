// internal/archive/archive.go
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client uploads decision-log exports to an S3-compatible bucket.
type Client struct {
	mc     *minio.Client
	bucket string
}

func New(cfg config.ArchiveConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("archive credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket must be provided")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create archive client: %w", err)
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// UploadDecisionLog writes the CSV export of the given decisions under
// decision_logs/<sku>/<date>.csv and returns the object key.
func (c *Client) UploadDecisionLog(ctx context.Context, sku string, decisions []domain.OrderDecision) (string, error) {
	var buf bytes.Buffer
	if err := WriteDecisionsCSV(&buf, decisions); err != nil {
		return "", err
	}

	key := fmt.Sprintf("decision_logs/%s/%s.csv", sku, time.Now().Format("2006-01-02T15-04-05"))
	_, err := c.mc.PutObject(ctx, c.bucket, key, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("upload decision log %s: %w", key, err)
	}
	return key, nil
}
