package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default tunables for the invocation core. The chunk threshold and the
// 60-second creation timeout mirror the observed host behavior; both are
// configuration, not invariants.
const (
	DefaultInvokeTimeoutMS = 60000
	DefaultChunkThreshold  = 1500
	DefaultHistoryKeep     = 500
)

// SetDefaults installs default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("host.base_url", "http://localhost:11434")
	v.SetDefault("host.model", "llama3.2")
	v.SetDefault("host.detector_model", "")
	v.SetDefault("host.translator_model", "")
	v.SetDefault("host.pull_missing", false)
	v.SetDefault("host.timeout_seconds", 120)

	v.SetDefault("invoke.timeout_ms", DefaultInvokeTimeoutMS)

	v.SetDefault("chunk.threshold", DefaultChunkThreshold)
	v.SetDefault("chunk.calls_per_second", 0.0)

	v.SetDefault("output.language", "English")

	v.SetDefault("corpus.dir", "articles")
	v.SetDefault("corpus.watch", false)

	v.SetDefault("history.path", defaultHistoryPath())
	v.SetDefault("history.keep", DefaultHistoryKeep)

	v.SetDefault("proxy.base_url", "")
	v.SetDefault("proxy.token", "")
	v.SetDefault("proxy.retry_max", 3)

	v.SetDefault("server.addr", "localhost:8743")
}

func defaultHistoryPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "brieflex.db"
	}
	return filepath.Join(homeDir, ".brieflex", "history.db")
}
