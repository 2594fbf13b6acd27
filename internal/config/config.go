// Package config loads CoreConfig from a YAML or JSON5 file, with a
// teacher-style $include directive and environment-variable expansion,
// grounded on the teacher's internal/config/loader.go.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"

	"github.com/agentcore/core/internal/agent"
)

// CoreConfig is the top-level configuration consumed by cmd/agentcore
// to construct every collaborator.
type CoreConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	Loop agent.LoopConfig `yaml:"loop" json:"loop"`

	Anthropic ProviderConfig `yaml:"anthropic" json:"anthropic"`
	OpenAI    ProviderConfig `yaml:"openai" json:"openai"`

	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	S3       S3Config       `yaml:"s3" json:"s3"`

	ExecutorConcurrency int `yaml:"executor_concurrency" json:"executor_concurrency"`
	ExecutorTimeoutSec  int `yaml:"executor_timeout_seconds" json:"executor_timeout_seconds"`

	FileExpiryHours   int `yaml:"file_expiry_hours" json:"file_expiry_hours"`
	CleanupIntervalMin int `yaml:"cleanup_interval_minutes" json:"cleanup_interval_minutes"`

	ExtraToolsEnabled []string `yaml:"extra_tools_enabled" json:"extra_tools_enabled"`

	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// TracingConfig enables the OTLP/gRPC trace exporter (see
// internal/observability.InitTracing). Tracing stays off when
// CollectorAddr is empty.
type TracingConfig struct {
	ServiceName   string `yaml:"service_name" json:"service_name"`
	CollectorAddr string `yaml:"collector_addr" json:"collector_addr"`
	Insecure      bool   `yaml:"insecure" json:"insecure"`
}

type ProviderConfig struct {
	APIKey       string `yaml:"api_key" json:"api_key"`
	DefaultModel string `yaml:"default_model" json:"default_model"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" json:"dsn"`
}

type S3Config struct {
	Bucket string `yaml:"bucket" json:"bucket"`
	Region string `yaml:"region" json:"region"`
}

// Load reads path (YAML or JSON5, by extension), resolves any
// top-level $include entries relative to path's directory, expands
// ${VAR} environment references, and decodes the result into a
// CoreConfig.
func Load(path string) (CoreConfig, error) {
	raw, err := loadRawRecursive(path, map[string]bool{})
	if err != nil {
		return CoreConfig{}, err
	}

	merged, err := yaml.Marshal(raw)
	if err != nil {
		return CoreConfig{}, fmt.Errorf("re-marshal merged config: %w", err)
	}
	expanded := os.ExpandEnv(string(merged))

	var cfg CoreConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return CoreConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// loadRawRecursive decodes path into a generic map, then recursively
// merges any file(s) named by a top-level "$include" key (string or
// []string, relative to path's directory) underneath the including
// file's own keys. visited guards against include cycles.
func loadRawRecursive(path string, visited map[string]bool) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}
	if visited[abs] {
		return nil, fmt.Errorf("config include cycle at %q", abs)
	}
	visited[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", abs, err)
	}

	raw, err := decodeAny(abs, data)
	if err != nil {
		return nil, fmt.Errorf("parse config %q: %w", abs, err)
	}

	includes, _ := raw["$include"]
	delete(raw, "$include")

	var includePaths []string
	switch v := includes.(type) {
	case string:
		includePaths = []string{v}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				includePaths = append(includePaths, s)
			}
		}
	}

	merged := map[string]any{}
	dir := filepath.Dir(abs)
	for _, inc := range includePaths {
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(dir, incPath)
		}
		base, err := loadRawRecursive(incPath, visited)
		if err != nil {
			return nil, err
		}
		merged = mergeMaps(merged, base)
	}
	merged = mergeMaps(merged, raw)
	return merged, nil
}

func decodeAny(path string, data []byte) (map[string]any, error) {
	out := map[string]any{}
	switch filepath.Ext(path) {
	case ".json5", ".json":
		if err := json5.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// mergeMaps overlays override onto base, recursing into nested maps
// and replacing scalars/slices outright.
func mergeMaps(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if baseVal, ok := out[k]; ok {
			baseMap, baseIsMap := baseVal.(map[string]any)
			overrideMap, overrideIsMap := v.(map[string]any)
			if baseIsMap && overrideIsMap {
				out[k] = mergeMaps(baseMap, overrideMap)
				continue
			}
		}
		out[k] = v
	}
	return out
}
