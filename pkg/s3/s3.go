package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/pkg/fetch"
)

// ObjectStorageClient is the object storage surface used for candidate
// image retrieval when the update source is a bucket instead of a raw URL.
type ObjectStorageClient interface {
	Connect(endpoint string, accessKeyID string, secretAccessKey string, useSSL bool) error
	Fetch(ctx context.Context, location string) (fetch.Result, error)
}

// ObjectStorage holds the object storage client instance.
type ObjectStorage struct {
	Conn *minio.Client
}

// NewObjectStorage initialization
func NewObjectStorage() *ObjectStorage {
	return &ObjectStorage{}
}

// Connect establishes the object storage connection using client
func (o *ObjectStorage) Connect(endpoint string, accessKeyID string, secretAccessKey string, useSSL bool) error {
	var err error
	o.Conn, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client, %v", err)
	}

	// Check connection by listing buckets
	ctx := context.Background()
	_, err = o.Conn.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("failed to establish minio connection, %v", err)
	}

	return nil
}

// Fetch retrieves the object at location, given as "bucket/key". A missing
// object maps onto the store's HTTP status so callers treat it like any
// other non-200 fetch instead of a transport failure.
func (o *ObjectStorage) Fetch(ctx context.Context, location string) (fetch.Result, error) {
	bucket, key, found := strings.Cut(location, "/")
	if !found || bucket == "" || key == "" {
		return fetch.Result{}, fmt.Errorf("%w: object location %q must be bucket/key", models.ErrProtocol, location)
	}

	obj, err := o.Conn.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fetch.Result{}, fmt.Errorf("%w: failed to open object %s: %v", models.ErrNetwork, location, err)
	}
	defer obj.Close()

	// GetObject defers most failures to the first read.
	body, err := io.ReadAll(obj)
	if err != nil {
		var errResp minio.ErrorResponse
		if errors.As(err, &errResp) && errResp.StatusCode != 0 {
			return fetch.Result{StatusCode: errResp.StatusCode}, nil
		}
		return fetch.Result{}, fmt.Errorf("%w: failed to read object %s: %v", models.ErrNetwork, location, err)
	}

	return fetch.Result{StatusCode: http.StatusOK, Body: body}, nil
}
