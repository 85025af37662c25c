package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/kiku/data/indices/chunks.idx"
	}
	if cfg.Storage.HistoryBackend == "" {
		cfg.Storage.HistoryBackend = "disk"
	}
	if cfg.Storage.HistoryDir == "" {
		cfg.Storage.HistoryDir = "/usr/local/var/kiku/data/history"
	}
	if cfg.Storage.HistoryDatabasePath == "" {
		cfg.Storage.HistoryDatabasePath = "/usr/local/var/kiku/data/db/history.db"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "gemini-embedding-001"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gemini-2.5-flash"
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.3
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 4
	}
	if cfg.Chat.ChunkSize == 0 {
		cfg.Chat.ChunkSize = 2000
	}
	if cfg.Chat.ChunkOverlap == 0 {
		cfg.Chat.ChunkOverlap = 200
	}
	if cfg.Chat.Persona == "" {
		cfg.Chat.Persona = "default"
	}
	if cfg.Chat.APIKeyEnv == "" {
		cfg.Chat.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".xlsx", ".txt", ".md"}
	}
}
