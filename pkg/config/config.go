package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// DevSessionSecret is the placeholder shipped in sample env files. It is
// refused for durable storage.
const DevSessionSecret = "dev-only-secret-change-in-prod"

const (
	ProviderGemini      = "gemini"
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
	ProviderPerplexity  = "perplexity"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	NATS     NATSConfig
	Auth     AuthConfig
	Guest    GuestConfig
	Rewriter RewriterConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	MaxLifetime time.Duration
}

type StorageConfig struct {
	Backend string // memory or postgres
}

type NATSConfig struct {
	URL string // empty disables event publishing
}

type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool
}

type GuestConfig struct {
	MaxUsage int
}

type RewriterConfig struct {
	Provider string
	Timeout  time.Duration

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	HuggingFaceAPIKey string
	HuggingFaceURL    string

	PerplexityAPIKey  string
	PerplexityModel   string
	PerplexityBaseURL string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() *Config {
	dbURL := getEnv("DATABASE_URL", "")
	backend := storageBackend(dbURL)

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL:         dbURL,
			MaxConns:    getInt("DB_MAX_CONNS", 10),
			MinConns:    getInt("DB_MIN_CONNS", 1),
			MaxLifetime: getDuration("DB_MAX_LIFETIME", time.Hour),
		},
		Storage: StorageConfig{
			Backend: backend,
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Auth: AuthConfig{
			SessionSecret: sessionSecret(backend),
			SessionTTL:    getDuration("SESSION_TTL", 30*24*time.Hour),
			CookieSecure:  getBool("COOKIE_SECURE", false),
		},
		Guest: GuestConfig{
			MaxUsage: getInt("GUEST_MAX_USAGE", 10),
		},
		Rewriter: RewriterConfig{
			Provider: strings.ToLower(getEnv("REWRITER_PROVIDER", ProviderGemini)),
			Timeout:  getDuration("REWRITER_TIMEOUT", 30*time.Second),

			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

			HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),
			HuggingFaceURL:    getEnv("HUGGINGFACE_URL", "https://router.huggingface.co/models/mistralai/Mixtral-8x7B-Instruct-v0.1"),

			PerplexityAPIKey:  getEnv("PERPLEXITY_API_KEY", ""),
			PerplexityModel:   getEnv("PERPLEXITY_MODEL", "llama-3.1-sonar-small-128k-online"),
			PerplexityBaseURL: getEnv("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5000", "http://localhost:5173"}),
		},
	}
}

// Validate reports configuration that would make the service misbehave at runtime.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("storage backend %q requires DATABASE_URL", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Rewriter.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderHuggingFace, ProviderPerplexity:
	default:
		return fmt.Errorf("unknown rewriter provider %q", c.Rewriter.Provider)
	}

	if c.Guest.MaxUsage <= 0 {
		return fmt.Errorf("GUEST_MAX_USAGE must be positive, got %d", c.Guest.MaxUsage)
	}
	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Storage.Backend == StoragePostgres && c.Auth.SessionSecret == DevSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be changed from the development default for %q storage", c.Storage.Backend)
	}
	return nil
}

// sessionSecret reads SESSION_SECRET. With memory storage and no secret set,
// a random one is generated so that sessions end with the process, as the
// data they point at does.
func sessionSecret(backend string) string {
	if v := getEnv("SESSION_SECRET", ""); v != "" {
		return v
	}
	if backend == StorageMemory {
		return uuid.NewString() + uuid.NewString()
	}
	return ""
}

// storageBackend picks memory when no database is configured or when
// USE_MEMORY_STORAGE is set; STORAGE_BACKEND overrides both.
func storageBackend(dbURL string) string {
	if v := strings.ToLower(getEnv("STORAGE_BACKEND", "")); v != "" {
		return v
	}
	if getBool("USE_MEMORY_STORAGE", false) || dbURL == "" {
		return StorageMemory
	}
	return StoragePostgres
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
