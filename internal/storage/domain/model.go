package domain

import (
	"context"
	"errors"
)

var (
	// ErrBlobNotFound means the object does not exist in the store.
	ErrBlobNotFound = errors.New("blob_not_found")
	// ErrStorageUnavailable means the storage API call failed.
	ErrStorageUnavailable = errors.New("storage_unavailable")
	// ErrInvalidUpload means the upload request was empty or unaddressable.
	ErrInvalidUpload = errors.New("storage_invalid_upload")
)

// BlobStore moves raw object bytes. Authorization is the entitlement gate's
// job; this port only does transport.
type BlobStore interface {
	Download(ctx context.Context, bucket, objectPath string) ([]byte, error)
	Upload(ctx context.Context, bucket, filename string, content []byte, contentType string) (string, error)
}
