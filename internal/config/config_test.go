package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  history_backend: "sqlite"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.HistoryBackend != "sqlite" {
		t.Errorf("history_backend = %s", cfg.Storage.HistoryBackend)
	}
	if cfg.Storage.IndexPath == "" {
		t.Error("index_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  index_path: "./data/indices/chunks.idx"
  history_dir: "./data/history"
watch:
  directory: "./dev/sample"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantIndex := filepath.Join(dir, "data", "indices", "chunks.idx")
	if cfg.Storage.IndexPath != wantIndex {
		t.Errorf("index_path = %s, want %s", cfg.Storage.IndexPath, wantIndex)
	}
	wantHistory := filepath.Join(dir, "data", "history")
	if cfg.Storage.HistoryDir != wantHistory {
		t.Errorf("history_dir = %s, want %s", cfg.Storage.HistoryDir, wantHistory)
	}
	wantWatch := filepath.Join(dir, "dev", "sample")
	if cfg.Watch.Directory != wantWatch {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directory, wantWatch)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Storage.HistoryBackend != "disk" {
		t.Errorf("default history_backend: got %s", cfg.Storage.HistoryBackend)
	}
	if cfg.Embedding.Model != "gemini-embedding-001" {
		t.Errorf("default embedding model: got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("default dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Chat.TopK != 4 {
		t.Errorf("default top_k: got %d", cfg.Chat.TopK)
	}
	if cfg.Chat.ChunkSize != 2000 || cfg.Chat.ChunkOverlap != 200 {
		t.Errorf("default chunking: got size=%d overlap=%d", cfg.Chat.ChunkSize, cfg.Chat.ChunkOverlap)
	}
	if cfg.Chat.APIKeyEnv != "GOOGLE_API_KEY" {
		t.Errorf("default api_key_env: got %s", cfg.Chat.APIKeyEnv)
	}
	if cfg.Watch.Extensions == nil {
		t.Error("watch extensions should be set by default")
	}
	if len(cfg.Watch.Extensions) != 5 || cfg.Watch.Extensions[0] != ".pdf" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Chat: ChatConfig{TopK: 7, Persona: "lawyer"},
	}
	ApplyDefaults(cfg)
	if cfg.Chat.TopK != 7 {
		t.Errorf("explicit top_k overwritten: got %d", cfg.Chat.TopK)
	}
	if cfg.Chat.Persona != "lawyer" {
		t.Errorf("explicit persona overwritten: got %s", cfg.Chat.Persona)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{IndexPath: "/tmp/chunks.idx"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
