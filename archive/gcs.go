package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"github.com/viant/edicheck/document"
	"google.golang.org/api/googleapi"
)

// GCS writes each result once into a Cloud Storage bucket. Objects are
// created with a does-not-exist precondition so redelivered tasks never
// overwrite an archived result.
type GCS struct {
	bucket *storage.BucketHandle
	prefix string
	logger *slog.Logger
}

func NewGCS(client *storage.Client, bucket, prefix string, logger *slog.Logger) *GCS {
	if logger == nil {
		logger = slog.Default()
	}
	return &GCS{bucket: client.Bucket(bucket), prefix: prefix, logger: logger}
}

func (g *GCS) Archive(ctx context.Context, doc *document.Document, result *document.AnalysisResult) error {
	data, err := encode(doc, result)
	if err != nil {
		return err
	}
	name := path.Join(g.prefix, ObjectName(doc.ID, result.ID))
	writer := g.bucket.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return g.handleWriteError(name, err)
	}
	if err := writer.Close(); err != nil {
		return g.handleWriteError(name, err)
	}
	g.logger.Info("analysis result archived", "object", name)
	return nil
}

func (g *GCS) handleWriteError(name string, err error) error {
	if alreadyExists(err) {
		g.logger.Info("archive object already exists, skipping", "object", name)
		return nil
	}
	return fmt.Errorf("archive %s: %w", name, err)
}

func alreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
