package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidConfiguration marks generation configs and templates rejected at creation.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError describes one rejected config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfiguration }

// Config holds generation parameters passed to the inference engine.
type Config struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Temperature != nil && (math.IsNaN(*c.Temperature) || *c.Temperature < 0 || *c.Temperature > 1) {
		return &ConfigError{Field: "temperature", Reason: fmt.Sprintf("must be within [0,1], got %v", *c.Temperature)}
	}
	if c.MaxTokens < 0 {
		return &ConfigError{Field: "max_tokens", Reason: fmt.Sprintf("must be positive, got %d", c.MaxTokens)}
	}
	if c.TopP != nil && (math.IsNaN(*c.TopP) || *c.TopP <= 0 || *c.TopP > 1) {
		return &ConfigError{Field: "top_p", Reason: fmt.Sprintf("must be within (0,1], got %v", *c.TopP)}
	}
	return nil
}

// Encode returns the JSON form stored with a template.
func (c Config) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseConfig converts loosely typed input, as decoded from JSON or YAML,
// into a validated Config. Unknown keys and non numeric values are rejected.
func ParseConfig(raw map[string]any) (Config, error) {
	var cfg Config
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := raw[key]
		switch key {
		case "temperature":
			v, ok := number(value)
			if !ok {
				return Config{}, &ConfigError{Field: key, Reason: fmt.Sprintf("must be numeric, got %T", value)}
			}
			cfg.Temperature = &v
		case "max_tokens":
			v, ok := number(value)
			if !ok || v != math.Trunc(v) || v <= 0 {
				return Config{}, &ConfigError{Field: key, Reason: fmt.Sprintf("must be a positive integer, got %v", value)}
			}
			cfg.MaxTokens = int(v)
		case "top_p":
			v, ok := number(value)
			if !ok {
				return Config{}, &ConfigError{Field: key, Reason: fmt.Sprintf("must be numeric, got %T", value)}
			}
			cfg.TopP = &v
		case "stop":
			stop, ok := stringList(value)
			if !ok {
				return Config{}, &ConfigError{Field: key, Reason: "must be a list of strings"}
			}
			cfg.Stop = stop
		default:
			return Config{}, &ConfigError{Field: key, Reason: "is not supported"}
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeConfig parses a JSON object into a validated Config.
func DecodeConfig(data []byte) (Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return Config{}, &ConfigError{Field: "config", Reason: err.Error()}
	}
	return ParseConfig(raw)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// Float returns a pointer to v, for building configs in code.
func Float(v float64) *float64 { return &v }

// Merge fills fields unset in c from defaults.
func (c Config) Merge(defaults Config) Config {
	if c.Temperature == nil {
		c.Temperature = defaults.Temperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.TopP == nil {
		c.TopP = defaults.TopP
	}
	if len(c.Stop) == 0 {
		c.Stop = defaults.Stop
	}
	return c
}
