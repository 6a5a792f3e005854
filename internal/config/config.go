package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// LLM providers.
const (
	ProviderNone   = "none"
	ProviderMock   = "mock"
	ProviderVertex = "vertex"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Memory backends.
const (
	MemoryNone      = "none"
	MemoryInMemory  = "memory"
	MemoryFirestore = "firestore"
	MemoryRedis     = "redis"
	MemorySupabase  = "supabase"
)

type Config struct {
	Mode Mode

	Port string

	// LLMProviders is an ordered fallback list, e.g. "openai,gemini".
	LLMProviders []string
	LLMTimeout   time.Duration

	GCPProjectID string
	GCPLocation  string
	ModelName    string
	GeminiAPIKey string

	OpenAIAPIKey  string
	OpenAIBaseURL string // empty = api.openai.com; Groq works here too
	OpenAIModel   string

	StorageBackend string // "memory" o "firestore"
	MemoryBackend  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	SupabaseURL string
	SupabaseKey string

	MemoryCachePath  string // empty = in-memory cache only
	MemoryCacheLimit int
	MemoryQueueSize  int

	RemoteTimeout   time.Duration
	SummaryTimeout  time.Duration
	ShutdownTimeout time.Duration

	// SessionIdleTTL is how long an open session keeps its live context
	// without a message; SessionSweepInterval is how often that is checked.
	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration

	ExtraCrisisKeywords []string

	LogLevel  string
	LogFormat string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getListEnv(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads all env vars and builds the config
func Load() *Config {
	modeStr := getEnv("SOLACE_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	defaultProvider := ProviderNone
	if getBoolEnv("SOLACE_USE_MOCK_LLM", false) {
		defaultProvider = ProviderMock
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("SOLACE_PORT", "8080"),

		LLMProviders: getListEnv("SOLACE_LLM_PROVIDER", []string{defaultProvider}),
		LLMTimeout:   getDurationEnv("SOLACE_LLM_TIMEOUT", 20*time.Second),

		GCPProjectID: getEnv("SOLACE_GCP_PROJECT", ""),
		GCPLocation:  getEnv("SOLACE_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("SOLACE_MODEL_NAME", "gemini-2.5-flash-lite"),
		GeminiAPIKey: getEnv("SOLACE_GEMINI_API_KEY", ""),

		OpenAIAPIKey:  getEnv("SOLACE_OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("SOLACE_OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("SOLACE_OPENAI_MODEL", "gpt-4o-mini"),

		StorageBackend: getEnv("SOLACE_STORAGE_BACKEND", "memory"),
		MemoryBackend:  getEnv("SOLACE_MEMORY_BACKEND", MemoryNone),

		RedisAddr:     getEnv("SOLACE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("SOLACE_REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("SOLACE_REDIS_DB", 0),
		RedisPrefix:   getEnv("SOLACE_REDIS_PREFIX", "solace"),

		SupabaseURL: getEnv("SOLACE_SUPABASE_URL", ""),
		SupabaseKey: getEnv("SOLACE_SUPABASE_KEY", ""),

		MemoryCachePath:  getEnv("SOLACE_MEMORY_CACHE_PATH", "data/memory_cache.json"),
		MemoryCacheLimit: getIntEnv("SOLACE_MEMORY_CACHE_LIMIT", 100),
		MemoryQueueSize:  getIntEnv("SOLACE_MEMORY_QUEUE_SIZE", 256),

		RemoteTimeout:   getDurationEnv("SOLACE_REMOTE_TIMEOUT", 3*time.Second),
		SummaryTimeout:  getDurationEnv("SOLACE_SUMMARY_TIMEOUT", 2*time.Second),
		ShutdownTimeout: getDurationEnv("SOLACE_SHUTDOWN_TIMEOUT", 10*time.Second),

		SessionIdleTTL:       getDurationEnv("SOLACE_SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepInterval: getDurationEnv("SOLACE_SESSION_SWEEP_INTERVAL", time.Minute),

		ExtraCrisisKeywords: getListEnv("SOLACE_CRISIS_KEYWORDS", nil),

		LogLevel:  getEnv("SOLACE_LOG_LEVEL", "info"),
		LogFormat: getEnv("SOLACE_LOG_FORMAT", "json"),
	}

	return cfg
}

// Validate checks the combinations Load cannot express on its own.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("SOLACE_PORT must not be empty")
	}
	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return errors.New("SOLACE_GCP_PROJECT must be set in gcp mode")
	}

	for _, p := range c.LLMProviders {
		switch p {
		case ProviderNone, ProviderMock:
		case ProviderVertex:
			if c.GCPProjectID == "" {
				return errors.New("SOLACE_GCP_PROJECT is required for the vertex provider")
			}
		case ProviderGemini:
			if c.GeminiAPIKey == "" {
				return errors.New("SOLACE_GEMINI_API_KEY is required for the gemini provider")
			}
		case ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				return errors.New("SOLACE_OPENAI_API_KEY is required for the openai provider")
			}
		default:
			return fmt.Errorf("unknown llm provider %q", p)
		}
	}

	switch c.StorageBackend {
	case "memory":
	case "firestore":
		if c.GCPProjectID == "" {
			return errors.New("SOLACE_GCP_PROJECT is required for firestore storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch c.MemoryBackend {
	case MemoryNone, MemoryInMemory:
	case MemoryFirestore:
		if c.GCPProjectID == "" {
			return errors.New("SOLACE_GCP_PROJECT is required for the firestore memory backend")
		}
	case MemoryRedis:
		if c.RedisAddr == "" {
			return errors.New("SOLACE_REDIS_ADDR is required for the redis memory backend")
		}
	case MemorySupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("SOLACE_SUPABASE_URL and SOLACE_SUPABASE_KEY are required for the supabase memory backend")
		}
	default:
		return fmt.Errorf("unknown memory backend %q", c.MemoryBackend)
	}

	if c.MemoryCacheLimit <= 0 {
		return errors.New("SOLACE_MEMORY_CACHE_LIMIT must be > 0")
	}
	if c.MemoryQueueSize < 0 {
		return errors.New("SOLACE_MEMORY_QUEUE_SIZE must be >= 0")
	}
	if c.LLMTimeout <= 0 || c.RemoteTimeout <= 0 || c.SummaryTimeout <= 0 ||
		c.SessionIdleTTL <= 0 || c.SessionSweepInterval <= 0 {
		return errors.New("timeouts must be > 0")
	}
	return nil
}
