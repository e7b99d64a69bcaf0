package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/vendo/internal/config"
	"github.com/smallbiznis/vendo/internal/providers/restclient"
	"github.com/smallbiznis/vendo/internal/storage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Cfg    config.Config
	Client *restclient.Client
}

type Service struct {
	log           *zap.Logger
	client        *restclient.Client
	defaultBucket string
}

func NewService(p Params) domain.BlobStore {
	return &Service{
		log:           p.Log.Named("storage"),
		client:        p.Client,
		defaultBucket: strings.TrimSpace(p.Cfg.StorageBucket),
	}
}

// Download fetches an object's bytes through the service-role credential.
// Access control happens before this call; the store itself trusts the caller.
func (s *Service) Download(ctx context.Context, bucket, objectPath string) ([]byte, error) {
	bucket = s.resolveBucket(bucket)
	if bucket == "" || strings.TrimSpace(objectPath) == "" {
		return nil, domain.ErrBlobNotFound
	}

	data, err := s.client.GetBytes(ctx, objectURL(bucket, objectPath))
	if err != nil {
		if errors.Is(err, restclient.ErrNotFound) {
			return nil, domain.ErrBlobNotFound
		}
		if errors.Is(err, restclient.ErrNotConfigured) {
			return nil, err
		}
		s.log.Warn("blob download failed",
			zap.String("bucket", bucket),
			zap.String("path", objectPath),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return data, nil
}

// Upload stores content under a generated object path and returns that path.
// The caller persists the path on the catalog item; the filename only seeds
// the path's extension.
func (s *Service) Upload(ctx context.Context, bucket, filename string, content []byte, contentType string) (string, error) {
	bucket = s.resolveBucket(bucket)
	if bucket == "" || len(content) == 0 {
		return "", domain.ErrInvalidUpload
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectPath := uuid.NewString()
	if ext := path.Ext(filename); ext != "" {
		objectPath += ext
	}

	header := http.Header{}
	header.Set("Content-Type", contentType)
	if err := s.client.Post(ctx, objectURL(bucket, objectPath), content, header); err != nil {
		if errors.Is(err, restclient.ErrNotConfigured) {
			return "", err
		}
		s.log.Warn("blob upload failed",
			zap.String("bucket", bucket),
			zap.String("path", objectPath),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	s.log.Info("uploaded blob",
		zap.String("bucket", bucket),
		zap.String("path", objectPath),
		zap.Int("bytes", len(content)),
	)
	return objectPath, nil
}

func (s *Service) resolveBucket(bucket string) string {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return s.defaultBucket
	}
	return bucket
}

func objectURL(bucket, objectPath string) string {
	segments := strings.Split(strings.Trim(objectPath, "/"), "/")
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return "/storage/v1/object/" + url.PathEscape(bucket) + "/" + strings.Join(escaped, "/")
}
