package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/pkg/errors"
)

var (
	ErrObjectNotFound = errors.NotFound("graph document not found")
	ErrInvalidRequest = errors.InvalidParam("invalid graph document request")
)

const keyPrefix = "graphs"

// DocumentStore implements graph.ArtifactStore on a MinIO bucket. Objects are
// keyed graphs/<digest>/<run id>.<json|yaml>.
type DocumentStore struct {
	client *Client
	format string
	logger logging.Logger
}

var _ graph.ArtifactStore = (*DocumentStore)(nil)

// NewDocumentStore stores documents in the client's bucket using the
// configured format, json unless set to yaml.
func NewDocumentStore(client *Client, log logging.Logger) *DocumentStore {
	format := client.config.Format
	if format != "yaml" {
		format = "json"
	}
	return &DocumentStore{client: client, format: format, logger: logging.OrDefault(log)}
}

// ObjectKey returns the key doc is stored under.
func (s *DocumentStore) ObjectKey(doc *graph.Document) string {
	return path.Join(keyPrefix, doc.Digest, doc.RunID+"."+s.format)
}

// PutDocument uploads doc and returns its object key.
func (s *DocumentStore) PutDocument(ctx context.Context, doc *graph.Document) (string, error) {
	if doc == nil || doc.RunID == "" || doc.Digest == "" {
		return "", ErrInvalidRequest.WithDetail("document needs a run id and digest")
	}
	api, err := s.client.get()
	if err != nil {
		return "", err
	}
	data, contentType, err := encode(doc, s.format)
	if err != nil {
		return "", err
	}

	key := s.ObjectKey(doc)
	opts := minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"run-id": doc.RunID,
			"digest": doc.Digest,
		},
	}
	if _, err := api.PutObject(ctx, s.client.Bucket(), key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "upload failed")
	}
	s.logger.Debug("graph document uploaded",
		logging.String("bucket", s.client.Bucket()),
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return key, nil
}

// GetDocument downloads and decodes the document at key. The encoding is
// taken from the key's extension.
func (s *DocumentStore) GetDocument(ctx context.Context, key string) (*graph.Document, error) {
	if key == "" {
		return nil, ErrInvalidRequest.WithDetail("empty key")
	}
	api, err := s.client.get()
	if err != nil {
		return nil, err
	}
	obj, err := api.GetObject(ctx, s.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, downloadError(err, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, downloadError(err, key)
	}
	return decode(data, key)
}

// DeleteDocument removes the object at key.
func (s *DocumentStore) DeleteDocument(ctx context.Context, key string) error {
	api, err := s.client.get()
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, s.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "delete failed")
	}
	return nil
}

func downloadError(err error, key string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound.WithDetail(key)
	}
	return errors.Wrap(err, errors.ErrCodeStorageError, "download failed")
}

func encode(doc *graph.Document, format string) ([]byte, string, error) {
	if format == "yaml" {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, "", errors.Wrap(err, errors.ErrCodeSerialization, "encode yaml document")
		}
		return data, "application/yaml", nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeSerialization, "encode json document")
	}
	return data, "application/json", nil
}

func decode(data []byte, key string) (*graph.Document, error) {
	var doc graph.Document
	var err error
	switch {
	case strings.HasSuffix(key, ".yaml"), strings.HasSuffix(key, ".yml"):
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "stored graph is not a valid document")
	}
	return &doc, nil
}
