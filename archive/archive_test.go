package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/viant/afs"
	"github.com/viant/edicheck/document"
	"google.golang.org/api/googleapi"
)

func TestFSArchive(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	a := NewFS(fs, "mem://localhost/archive/", nil)
	doc := &document.Document{ID: 3, Filename: "inv.xml", Diagnostic: "bad total"}
	result := &document.AnalysisResult{ID: 9, DocumentID: 3, Response: `{"reason":"x"}`, CreatedAt: time.Now().UTC()}

	if err := a.Archive(ctx, doc, result); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if got := a.URL(3, 9); got != "mem://localhost/archive/3/9.json" {
		t.Fatalf("unexpected url %s", got)
	}
	data, err := fs.DownloadWithURL(ctx, a.URL(3, 9))
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	record := &Record{}
	if err := json.Unmarshal(data, record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.ResultID != 9 || record.Response != result.Response || record.Status != document.StatusAnalyzed {
		t.Fatalf("unexpected record: %+v", record)
	}

	// a second archive of the same result keeps the first copy
	result.Response = "changed"
	if err := a.Archive(ctx, doc, result); err != nil {
		t.Fatalf("re-archive: %v", err)
	}
	data, _ = fs.DownloadWithURL(ctx, a.URL(3, 9))
	_ = json.Unmarshal(data, record)
	if record.Response != `{"reason":"x"}` {
		t.Fatalf("archived record overwritten: %+v", record)
	}
}

func TestAlreadyExists(t *testing.T) {
	testCases := []struct {
		err  error
		want bool
	}{
		{err: &googleapi.Error{Code: 412}, want: true},
		{err: fmt.Errorf("close: %w", &googleapi.Error{Code: 412}), want: true},
		{err: &googleapi.Error{Code: 403}, want: false},
		{err: errors.New("network"), want: false},
	}
	for _, tc := range testCases {
		if got := alreadyExists(tc.err); got != tc.want {
			t.Fatalf("alreadyExists(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
