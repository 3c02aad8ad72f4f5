package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/edicheck/document"
)

// FS archives results under a base URL of any afs supported storage
// (file://, mem://, gs:// when the gs connector is registered).
type FS struct {
	fs      afs.Service
	baseURL string
	logger  *slog.Logger
}

func NewFS(fs afs.Service, baseURL string, logger *slog.Logger) *FS {
	if fs == nil {
		fs = afs.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FS{fs: fs, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// URL returns the archive location of a result.
func (f *FS) URL(documentID, resultID int64) string {
	return url.Join(f.baseURL, ObjectName(documentID, resultID))
}

func (f *FS) Archive(ctx context.Context, doc *document.Document, result *document.AnalysisResult) error {
	target := f.URL(doc.ID, result.ID)
	exists, err := f.fs.Exists(ctx, target)
	if err != nil {
		return fmt.Errorf("archive %s: %w", target, err)
	}
	if exists {
		f.logger.Info("archive object already exists, skipping", "url", target)
		return nil
	}
	data, err := encode(doc, result)
	if err != nil {
		return err
	}
	if err := f.fs.Upload(ctx, target, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("archive %s: %w", target, err)
	}
	f.logger.Info("analysis result archived", "url", target)
	return nil
}
