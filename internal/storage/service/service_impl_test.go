package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smallbiznis/vendo/internal/providers/restclient"
	"github.com/smallbiznis/vendo/internal/storage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(client *restclient.Client) *Service {
	return &Service{
		log:           zap.NewNop(),
		client:        client,
		defaultBucket: "avatars",
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/storage/v1/object/avatars/packs/forest.zip":
			w.Write([]byte("zipbytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := newTestStore(restclient.New(srv.URL, "service-key"))

	data, err := store.Download(context.Background(), "", "packs/forest.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("zipbytes"), data)

	_, err = store.Download(context.Background(), "", "packs/missing.zip")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)

	_, err = store.Download(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestDownloadStorageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newTestStore(restclient.New(srv.URL, "service-key"))
	_, err := store.Download(context.Background(), "", "packs/forest.zip")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestDownloadNotConfigured(t *testing.T) {
	store := newTestStore(restclient.New("", ""))
	_, err := store.Download(context.Background(), "", "packs/forest.zip")
	assert.ErrorIs(t, err, restclient.ErrNotConfigured)
}

func TestUpload(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newTestStore(restclient.New(srv.URL, "service-key"))

	objectPath, err := store.Upload(context.Background(), "", "forest.zip", []byte("zipbytes"), "application/zip")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(objectPath, ".zip"))
	assert.Equal(t, "/storage/v1/object/avatars/"+objectPath, gotPath)
	assert.Equal(t, "application/zip", gotContentType)
	assert.Equal(t, []byte("zipbytes"), gotBody)
}

func TestUploadRejectsEmptyContent(t *testing.T) {
	store := newTestStore(restclient.New("http://unused", "service-key"))
	_, err := store.Upload(context.Background(), "", "forest.zip", nil, "application/zip")
	assert.ErrorIs(t, err, domain.ErrInvalidUpload)
}
