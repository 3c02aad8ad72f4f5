package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of the pipeline binaries.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Engine     EngineConfig     `yaml:"engine"`
	Queue      QueueConfig      `yaml:"queue"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Validation ValidationConfig `yaml:"validation"`
	Archive    ArchiveConfig    `yaml:"archive"`
	MCPServer  MCPServerConfig  `yaml:"mcpServer"`
	Log        LogConfig        `yaml:"log"`
}

// StoreConfig defines the document store.
type StoreConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
	Secret string `yaml:"secret,omitempty"`
}

// EmbedderConfig selects the embedding provider: simple, ollama, openai or vertexai.
type EmbedderConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"baseURL"`
	APIKey     string `yaml:"apiKey,omitempty"`
	Dimensions int    `yaml:"dimensions"`
	ProjectID  string `yaml:"projectID"`
	Location   string `yaml:"location"`
}

// EngineConfig selects the inference provider: ollama or vertex. An empty
// provider leaves the service without an engine.
type EngineConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"baseURL"`
	ProjectID string `yaml:"projectID"`
	Region    string `yaml:"region"`
}

// QueueConfig selects the task queue: memory or redis.
type QueueConfig struct {
	Provider       string `yaml:"provider"`
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password,omitempty"`
	DB             int    `yaml:"db"`
	Prefix         string `yaml:"prefix"`
	Concurrency    int    `yaml:"concurrency"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxAttempts    int    `yaml:"maxAttempts"`
}

// AnalysisConfig tunes the analysis orchestrator.
type AnalysisConfig struct {
	TemplateName  string   `yaml:"templateName"`
	TopK          int      `yaml:"topK"`
	DocumentTypes []string `yaml:"documentTypes"`
}

type ValidationConfig struct {
	SchemaName string `yaml:"schemaName"`
}

// ArchiveConfig selects where committed results are copied: gcs (Bucket,
// Prefix) or url (any afs URL). Empty disables archiving.
type ArchiveConfig struct {
	Provider string `yaml:"provider"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	URL      string `yaml:"url"`
}

// MCPServerConfig defines MCP server settings.
type MCPServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
	// EmbedCacheSize bounds cached query vectors; negative disables caching.
	EmbedCacheSize int `yaml:"embedCacheSize"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a local setup: sqlite under the home directory,
// deterministic embeddings, ollama inference and an in-memory queue.
func DefaultConfig() *Config {
	return &Config{
		Store:    StoreConfig{Driver: "sqlite", DSN: "~/.edicheck/edicheck.sqlite"},
		Embedder: EmbedderConfig{Provider: "simple", Dimensions: 64},
		Engine:   EngineConfig{Provider: "ollama", Model: "llama3.1"},
		Queue:    QueueConfig{Provider: "memory"},
		Log:      LogConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML config over DefaultConfig and expands home paths,
// environment variables in credentials and DSN secrets.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML config content. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.expand(context.Background()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expand(ctx context.Context) error {
	if c.Store.DSN != "" {
		expanded, err := expandStoreDSN(c.Store.DSN, c.Store.Driver)
		if err != nil {
			return err
		}
		c.Store.DSN = expanded
	}
	if c.Store.Secret != "" {
		expanded, err := ExpandDSNWithSecret(ctx, c.Store.DSN, c.Store.Secret)
		if err != nil {
			return err
		}
		c.Store.DSN = expanded
	}
	c.Embedder.APIKey = os.ExpandEnv(c.Embedder.APIKey)
	c.Queue.Password = os.ExpandEnv(c.Queue.Password)
	if c.Archive.URL != "" {
		expanded, err := expandUserPath(c.Archive.URL)
		if err != nil {
			return err
		}
		c.Archive.URL = expanded
	}
	return nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	// Direct ~/path use
	if strings.HasPrefix(trimmed, "~/") || trimmed == "~" {
		return filepath.Join(home, strings.TrimPrefix(trimmed, "~")), nil
	}
	// file: URI forms
	if strings.HasPrefix(trimmed, "file:") {
		prefix := "file://localhost"
		rest := strings.TrimPrefix(trimmed, prefix)
		if rest == trimmed {
			prefix = "file://"
			rest = strings.TrimPrefix(trimmed, prefix)
		}
		if rest == trimmed {
			prefix = "file:"
			rest = strings.TrimPrefix(trimmed, prefix)
		}
		if rest == "" {
			return path, nil
		}
		rest = strings.TrimLeft(rest, "/")
		if strings.HasPrefix(rest, "~") {
			rel := strings.TrimPrefix(rest, "~")
			abs := filepath.Join(home, rel)
			absSlash := filepath.ToSlash(abs)
			if prefix == "file:" {
				if !strings.HasPrefix(absSlash, "/") {
					absSlash = "/" + absSlash
				}
				return prefix + absSlash, nil
			}
			return prefix + "/" + strings.TrimLeft(absSlash, "/"), nil
		}
	}
	if trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	if trimmed == "~" {
		return home, nil
	}
	return filepath.Join(home, trimmed[2:]), nil
}

func expandStoreDSN(dsn, driver string) (string, error) {
	if dsn == "" {
		return dsn, nil
	}
	// Expand user path only for sqlite-like DSNs or plain paths.
	if driver == "sqlite" || dsn[0] == '~' || dsn[0] == '/' || strings.HasPrefix(dsn, "file:") {
		return expandUserPath(dsn)
	}
	return dsn, nil
}

// ExpandDSNWithSecret loads a secret and expands placeholders in the DSN.
func ExpandDSNWithSecret(ctx context.Context, dsn, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return dsn, nil
	}
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("secret %q provided but dsn is empty", secretRef)
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(dsn), nil
}
