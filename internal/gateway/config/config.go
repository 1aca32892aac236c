package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix for environment variables. Every field also accepts its bare name
// (PORT as well as MEDO_PORT).
const Prefix = "MEDO"

type Config struct {
	Port     string `envconfig:"PORT" default:"8081"`
	Env      string `envconfig:"APP_ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	LLMProvider       string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	GeminiTextModel   string        `envconfig:"GEMINI_TEXT_MODEL" default:"gemini-2.5-flash"`
	GeminiSpeechModel string        `envconfig:"GEMINI_SPEECH_MODEL" default:"gemini-2.5-flash-preview-tts"`
	GroqAPIKey        string        `envconfig:"GROQ_API_KEY"`
	GroqModel         string        `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	LLMRPS            float64       `envconfig:"LLM_RPS"`
	LLMBurst          int           `envconfig:"LLM_BURST"`
	FlowTimeout       time.Duration `envconfig:"FLOW_TIMEOUT" default:"120s"`

	SessionBackend   string `envconfig:"SESSION_BACKEND" default:"memory"`
	SessionFile      string `envconfig:"SESSION_FILE" default:"tmp/sessions.json"`
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	SQLitePath       string `envconfig:"SQLITE_PATH" default:"tmp/medo.db"`
	RedisURL         string `envconfig:"REDIS_URL"`
	SessionCacheSize int    `envconfig:"SESSION_CACHE_SIZE" default:"1024"`

	ArtifactS3Endpoint    string `envconfig:"ARTIFACT_S3_ENDPOINT"`
	ArtifactMinioEndpoint string `envconfig:"ARTIFACT_MINIO_ENDPOINT"`
	ArtifactS3Region      string `envconfig:"ARTIFACT_S3_REGION" default:"us-east-1"`
	ArtifactS3AccessKey   string `envconfig:"ARTIFACT_S3_ACCESS_KEY"`
	ArtifactS3SecretKey   string `envconfig:"ARTIFACT_S3_SECRET_KEY"`
	ArtifactS3Bucket      string `envconfig:"ARTIFACT_S3_BUCKET" default:"medo-audio"`
	ArtifactS3UseSSL      string `envconfig:"ARTIFACT_S3_USE_SSL"`
}

type ArtifactConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether the S3 store can be built; otherwise audio is
// kept in memory.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Endpoint != "" && a.AccessKey != "" && a.SecretKey != "" && a.Bucket != ""
}

// Load reads optional .env files (".env" when none are named) and then the
// environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	if c.Port != "" && !strings.HasPrefix(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini":
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider gemini")
		}
	case "groq":
		if strings.TrimSpace(c.GroqAPIKey) == "" {
			return fmt.Errorf("GROQ_API_KEY is required for provider groq")
		}
	case "fake":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (gemini, groq, fake)", c.LLMProvider)
	}

	switch c.SessionBackend {
	case "memory", "file", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for session backend postgres")
		}
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required for session backend redis")
		}
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q (memory, file, postgres, sqlite, redis)", c.SessionBackend)
	}

	if c.FlowTimeout <= 0 {
		return fmt.Errorf("FLOW_TIMEOUT must be positive")
	}
	if c.LLMRPS < 0 || c.LLMBurst < 0 {
		return fmt.Errorf("LLM_RPS and LLM_BURST must not be negative")
	}
	return nil
}

func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// Artifact resolves S3 settings. Local runs talk to MinIO without TLS.
func (c *Config) Artifact() ArtifactConfig {
	endpoint := strings.TrimSpace(c.ArtifactS3Endpoint)
	if c.IsLocal() {
		endpoint = firstNonEmpty(strings.TrimSpace(c.ArtifactMinioEndpoint), endpoint)
	}
	return ArtifactConfig{
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(c.ArtifactS3Region), "us-east-1"),
		AccessKey: strings.TrimSpace(c.ArtifactS3AccessKey),
		SecretKey: strings.TrimSpace(c.ArtifactS3SecretKey),
		Bucket:    strings.TrimSpace(c.ArtifactS3Bucket),
		UseSSL:    c.resolveUseSSL(),
	}
}

func (c *Config) resolveUseSSL() bool {
	if c.IsLocal() {
		return false
	}
	raw := strings.TrimSpace(c.ArtifactS3UseSSL)
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
