package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// Config is assembled from defaults, then an optional YAML file named by
// LEXILOCAL_CONFIG, then environment variables. Environment wins.
type Config struct {
	LogLevel string `yaml:"log_level"`

	HTTP struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimitRPS    float64       `yaml:"rate_limit_rps"`
		RateLimitBurst  int           `yaml:"rate_limit_burst"`
		MaxConcurrent   int           `yaml:"max_concurrent"`
		MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`

	MetricsAddr string `yaml:"metrics_addr"`

	Store struct {
		SQLitePath      string `yaml:"sqlite_path"`
		VectorIndexPath string `yaml:"vector_index_path"`
		UploadDir       string `yaml:"upload_dir"`
	} `yaml:"store"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Ollama struct {
		BaseURL        string        `yaml:"base_url"`
		GenerateModel  string        `yaml:"generate_model"`
		EmbeddingModel string        `yaml:"embedding_model"`
		// EmbeddingDim, when set, is checked against a loaded vector
		// artifact at startup. Zero skips the check and a stale artifact
		// surfaces at the first search instead.
		EmbeddingDim int           `yaml:"embedding_dim"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"ollama"`

	Chunking struct {
		Size    int `yaml:"size"`
		Overlap int `yaml:"overlap"`
	} `yaml:"chunking"`

	Retrieval struct {
		Mode             string  `yaml:"mode"`
		TopK             int     `yaml:"top_k"`
		MaxTopK          int     `yaml:"max_top_k"`
		ScoreThreshold   float64 `yaml:"score_threshold"`
		HybridCandidates int     `yaml:"hybrid_candidates"`
		RRFConstant      float64 `yaml:"rrf_constant"`
		RerankTopN       int     `yaml:"rerank_top_n"`
	} `yaml:"retrieval"`

	Generation struct {
		ContextCharBudget int `yaml:"context_char_budget"`
		SummaryCharBudget int `yaml:"summary_char_budget"`
		MaxOutputTokens   int `yaml:"max_output_tokens"`
	} `yaml:"generation"`

	Indexing struct {
		DocumentTimeout time.Duration `yaml:"document_timeout"`
	} `yaml:"indexing"`
}

func defaults() Config {
	var cfg Config
	cfg.LogLevel = "info"

	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 15 * time.Second
	cfg.HTTP.RateLimitRPS = 10
	cfg.HTTP.RateLimitBurst = 20
	cfg.HTTP.MaxConcurrent = 32
	cfg.HTTP.MaxBodyBytes = 32 << 20

	cfg.MetricsAddr = ":9090"

	cfg.Store.SQLitePath = "data/lexilocal.db"
	cfg.Store.VectorIndexPath = "data/lexilocal.vectors"
	cfg.Store.UploadDir = "data/uploads"

	cfg.NATS.URL = "nats://localhost:4222"

	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.GenerateModel = "llama3.2"
	cfg.Ollama.EmbeddingModel = "nomic-embed-text"
	cfg.Ollama.Timeout = 120 * time.Second

	cfg.Chunking.Size = 1000
	cfg.Chunking.Overlap = 200

	cfg.Retrieval.Mode = "semantic"
	cfg.Retrieval.TopK = 3
	cfg.Retrieval.MaxTopK = 10
	cfg.Retrieval.ScoreThreshold = 0
	cfg.Retrieval.HybridCandidates = 20
	cfg.Retrieval.RRFConstant = 60
	cfg.Retrieval.RerankTopN = 10

	cfg.Generation.ContextCharBudget = 12000
	cfg.Generation.SummaryCharBudget = 16000
	cfg.Generation.MaxOutputTokens = 1024

	cfg.Indexing.DocumentTimeout = 10 * time.Minute
	return cfg
}

func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("LEXILOCAL_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, domain.WrapError(domain.ErrConfiguration, "config file", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, domain.WrapError(domain.ErrConfiguration, "config file", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("LOG_LEVEL", &cfg.LogLevel)

	envString("HTTP_ADDR", &cfg.HTTP.Addr)
	envDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	envDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)
	envDuration("HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)
	envFloat("HTTP_RATE_LIMIT_RPS", &cfg.HTTP.RateLimitRPS)
	envInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimitBurst)
	envInt("HTTP_MAX_CONCURRENT", &cfg.HTTP.MaxConcurrent)
	envInt64("HTTP_MAX_BODY_BYTES", &cfg.HTTP.MaxBodyBytes)

	envString("METRICS_ADDR", &cfg.MetricsAddr)

	envString("SQLITE_PATH", &cfg.Store.SQLitePath)
	envString("VECTOR_INDEX_PATH", &cfg.Store.VectorIndexPath)
	envString("UPLOAD_DIR", &cfg.Store.UploadDir)

	envString("NATS_URL", &cfg.NATS.URL)

	envString("OLLAMA_BASE_URL", &cfg.Ollama.BaseURL)
	envString("OLLAMA_GENERATE_MODEL", &cfg.Ollama.GenerateModel)
	envString("OLLAMA_EMBEDDING_MODEL", &cfg.Ollama.EmbeddingModel)
	envInt("EMBEDDING_DIM", &cfg.Ollama.EmbeddingDim)
	envDuration("OLLAMA_TIMEOUT", &cfg.Ollama.Timeout)

	envInt("CHUNK_SIZE", &cfg.Chunking.Size)
	envInt("CHUNK_OVERLAP", &cfg.Chunking.Overlap)

	envString("RETRIEVAL_MODE", &cfg.Retrieval.Mode)
	envInt("RAG_TOP_K", &cfg.Retrieval.TopK)
	envInt("RAG_MAX_TOP_K", &cfg.Retrieval.MaxTopK)
	envFloat("RAG_SCORE_THRESHOLD", &cfg.Retrieval.ScoreThreshold)
	envInt("HYBRID_CANDIDATES", &cfg.Retrieval.HybridCandidates)
	envFloat("RRF_CONSTANT", &cfg.Retrieval.RRFConstant)
	envInt("RERANK_TOP_N", &cfg.Retrieval.RerankTopN)

	envInt("CONTEXT_CHAR_BUDGET", &cfg.Generation.ContextCharBudget)
	envInt("SUMMARY_CHAR_BUDGET", &cfg.Generation.SummaryCharBudget)
	envInt("GEN_MAX_OUTPUT_TOKENS", &cfg.Generation.MaxOutputTokens)

	envDuration("INDEXING_DOCUMENT_TIMEOUT", &cfg.Indexing.DocumentTimeout)
}

func (c Config) validate() error {
	if c.Chunking.Size <= 0 {
		return domain.WrapError(domain.ErrConfiguration, "config", fmt.Errorf("chunk size %d must be positive", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return domain.WrapError(domain.ErrConfiguration, "config",
			fmt.Errorf("chunk overlap %d must be in [0, %d)", c.Chunking.Overlap, c.Chunking.Size))
	}
	if c.Retrieval.TopK <= 0 || c.Retrieval.MaxTopK < c.Retrieval.TopK {
		return domain.WrapError(domain.ErrConfiguration, "config",
			fmt.Errorf("top_k %d / max_top_k %d", c.Retrieval.TopK, c.Retrieval.MaxTopK))
	}
	switch strings.ToLower(c.Retrieval.Mode) {
	case "semantic", "hybrid":
	default:
		return domain.WrapError(domain.ErrConfiguration, "config",
			fmt.Errorf("retrieval mode %q must be semantic or hybrid", c.Retrieval.Mode))
	}
	if c.Ollama.BaseURL == "" || c.Ollama.GenerateModel == "" || c.Ollama.EmbeddingModel == "" {
		return domain.WrapError(domain.ErrConfiguration, "config", fmt.Errorf("ollama settings incomplete"))
	}
	return nil
}

func envString(key string, target *string) {
	if value, ok := os.LookupEnv(key); ok {
		*target = value
	}
}

func envInt(key string, target *int) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func envInt64(key string, target *int64) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			*target = parsed
		}
	}
}

func envFloat(key string, target *float64) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func envDuration(key string, target *time.Duration) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			*target = parsed
		}
	}
}
