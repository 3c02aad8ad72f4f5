// Command analyze-function runs document analysis as a CloudEvent function,
// triggered by Pub/Sub messages carrying a document id.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/viant/edicheck/service"
)

const configEnv = "EDICHECK_CONFIG"

var (
	mux     sync.Mutex
	current *service.Service
)

func init() {
	functions.CloudEvent("AnalyzeDocument", analyzeDocument)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := funcframework.Start(port); err != nil {
		log.Fatalf("funcframework.Start: %v", err)
	}
}

// taskPayload is the message body published for one analysis.
type taskPayload struct {
	DocumentID int64 `json:"documentId"`
}

// pubSubEnvelope is the CloudEvent data of a Pub/Sub trigger.
type pubSubEnvelope struct {
	Message struct {
		ID   string `json:"messageId"`
		Data []byte `json:"data"`
	} `json:"message"`
}

func analyzeDocument(ctx context.Context, e cloudevents.Event) error {
	svc, err := loadService(ctx)
	if err != nil {
		slog.Error("function initialization failed", "error", err)
		return err
	}
	documentID, err := decodePayload(e.Data())
	if err != nil {
		// Malformed payloads are logged and acked.
		svc.Logger().Error("invalid analysis event", "eventId", e.ID(), "error", err, "data", string(e.Data()))
		return nil
	}
	outcome, err := svc.Analyze(ctx, documentID)
	if err != nil {
		return err
	}
	svc.Logger().Info("analysis event processed", "eventId", e.ID(), "documentId", documentID, "status", outcome.Status, "runId", outcome.RunID)
	return nil
}

// loadService builds the service on first use. A failed build is not cached,
// the next event tries again.
func loadService(ctx context.Context) (*service.Service, error) {
	mux.Lock()
	defer mux.Unlock()
	if current != nil {
		return current, nil
	}
	cfg := service.DefaultConfig()
	if path := os.Getenv(configEnv); path != "" {
		loaded, err := service.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	// Functions do not consume a queue themselves.
	cfg.Queue.Provider = "none"
	logger := service.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)
	svc, err := service.NewFromConfig(context.WithoutCancel(ctx), cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := svc.Init(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	current = svc
	return svc, nil
}

// decodePayload accepts a bare {"documentId":N} body or a Pub/Sub envelope
// whose message data holds it.
func decodePayload(data []byte) (int64, error) {
	var envelope pubSubEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Message.Data) > 0 {
		data = envelope.Message.Data
	}
	var payload taskPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		if decoded, decErr := base64.StdEncoding.DecodeString(string(data)); decErr == nil {
			if err = json.Unmarshal(decoded, &payload); err == nil {
				return validID(payload.DocumentID)
			}
		}
		return 0, fmt.Errorf("decode payload: %w", err)
	}
	return validID(payload.DocumentID)
}

func validID(id int64) (int64, error) {
	if id <= 0 {
		return 0, errors.New("payload has no documentId")
	}
	return id, nil
}
