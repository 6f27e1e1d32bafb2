// Package config provides the brieflex core configuration.
//
// Configuration is merged from TOML files in precedence order
// (system < user < project) with BRIEFLEX_* environment variables on top.
package config

import (
	"time"
)

// Config is the root configuration for brieflex.
type Config struct {
	Host    HostConfig    `mapstructure:"host"`
	Invoke  InvokeConfig  `mapstructure:"invoke"`
	Chunk   ChunkConfig   `mapstructure:"chunk"`
	Output  OutputConfig  `mapstructure:"output"`
	Corpus  CorpusConfig  `mapstructure:"corpus"`
	History HistoryConfig `mapstructure:"history"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	Server  ServerConfig  `mapstructure:"server"`
}

// HostConfig describes the on-device model host the core talks to.
type HostConfig struct {
	// BaseURL of the local inference server (Ollama-compatible).
	BaseURL string `mapstructure:"base_url"`
	// Model served by the host for prompt/summarize families.
	Model string `mapstructure:"model"`
	// DetectorModel served for the language-detector family. Empty disables
	// the family.
	DetectorModel string `mapstructure:"detector_model"`
	// TranslatorModel served for the translator family. Empty disables the
	// family.
	TranslatorModel string `mapstructure:"translator_model"`
	// PullMissing allows session creation to download a missing model,
	// reporting progress through the standard monitor hook.
	PullMissing bool `mapstructure:"pull_missing"`
	// TimeoutSeconds bounds a single HTTP call to the host.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// InvokeConfig controls bounded invocation behavior.
type InvokeConfig struct {
	// TimeoutMS is the per-creation timeout budget in milliseconds.
	TimeoutMS int `mapstructure:"timeout_ms"`
}

// Timeout returns the configured invocation timeout as a duration.
func (c InvokeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ChunkConfig controls the chunk/reduce executor.
type ChunkConfig struct {
	// Threshold is the payload size in characters above which input is
	// chunked on the legacy prompt path.
	Threshold int `mapstructure:"threshold"`
	// CallsPerSecond paces per-slice capability calls. Zero disables pacing.
	CallsPerSecond float64 `mapstructure:"calls_per_second"`
}

// OutputConfig controls result language.
type OutputConfig struct {
	// Language is the default output language requested from the model.
	Language string `mapstructure:"language"`
}

// CorpusConfig locates the legal article corpus.
type CorpusConfig struct {
	// Dir is the directory holding Markdown articles.
	Dir string `mapstructure:"dir"`
	// Watch reloads the corpus when files change.
	Watch bool `mapstructure:"watch"`
}

// HistoryConfig locates invocation history storage.
type HistoryConfig struct {
	// Path to the sqlite database file.
	Path string `mapstructure:"path"`
	// Keep is the number of most recent entries retained by Prune.
	Keep int `mapstructure:"keep"`
}

// ProxyConfig describes the remote pull-request-creation proxy.
type ProxyConfig struct {
	// BaseURL of the proxy service.
	BaseURL string `mapstructure:"base_url"`
	// Token authenticates brieflex against the proxy.
	Token string `mapstructure:"token"`
	// RetryMax bounds transport-level retries.
	RetryMax int `mapstructure:"retry_max"`
}

// ServerConfig controls the local notification relay server.
type ServerConfig struct {
	// Addr the websocket hub listens on.
	Addr string `mapstructure:"addr"`
}
