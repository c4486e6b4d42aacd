package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Session    SessionConfig    `mapstructure:"session"`
	Assets     AssetsConfig     `mapstructure:"assets"`
	Generation GenerationConfig `mapstructure:"generation"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Doubao     DoubaoConfig     `mapstructure:"doubao"`
	Qwen       QwenConfig       `mapstructure:"qwen"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	StreamTimeout  time.Duration `mapstructure:"stream_timeout"`
	Heartbeat      time.Duration `mapstructure:"heartbeat"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects the project repository. Type is one of
// memory, disk or postgres.
type StorageConfig struct {
	Type         string `mapstructure:"type"`
	DataDir      string `mapstructure:"data_dir"`
	DSN          string `mapstructure:"dsn"`
	CacheSize    int    `mapstructure:"cache_size"`
	BackupOnExit bool   `mapstructure:"backup_on_exit"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type AssetsConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	Region    string        `mapstructure:"region"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// CanUseS3 reports whether enough settings are present to talk to a bucket.
func (a AssetsConfig) CanUseS3() bool {
	return strings.TrimSpace(a.Endpoint) != "" &&
		strings.TrimSpace(a.AccessKey) != "" &&
		strings.TrimSpace(a.SecretKey) != "" &&
		strings.TrimSpace(a.Bucket) != ""
}

type GenerationConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	VideoPollInterval time.Duration `mapstructure:"video_poll_interval"`
	PlaceholderLimit  int           `mapstructure:"placeholder_limit"`
}

type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ImageModel        string        `mapstructure:"image_model"`
	VideoModel        string        `mapstructure:"video_model"`
	ImproveModel      string        `mapstructure:"improve_model"`
	ProThinkingBudget int32         `mapstructure:"pro_thinking_budget"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type DoubaoConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type QwenConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float32       `mapstructure:"temperature"`
	TopP         float32       `mapstructure:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

var cfg *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.stream_timeout", 15*time.Minute)
	v.SetDefault("server.heartbeat", 30*time.Second)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.max_age", 43200)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.cache_size", 256)

	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.cleanup_interval", 10*time.Minute)

	v.SetDefault("assets.region", "us-east-1")
	v.SetDefault("assets.url_expiry", 24*time.Hour)

	v.SetDefault("generation.requests_per_second", 2.0)
	v.SetDefault("generation.burst", 2)
	v.SetDefault("generation.video_poll_interval", 5*time.Second)
	v.SetDefault("generation.placeholder_limit", 3)

	v.SetDefault("gemini.timeout", 2*time.Minute)
	v.SetDefault("gemini.image_model", "gemini-3-pro-image-preview")
	v.SetDefault("gemini.video_model", "veo-3.1-fast-generate-preview")
	v.SetDefault("gemini.improve_model", "gemini-2.5-flash")
	v.SetDefault("gemini.pro_thinking_budget", 32768)

	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("qwen.timeout", 2*time.Minute)
}

// Load reads the YAML file at configPath. A missing file is not an error:
// defaults and environment variables are enough to boot a memory-backed server.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("DECKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			return nil, err
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}

	// The config file wins; fall back to the provider-native variables.
	c.Gemini.APIKey = firstNonEmpty(c.Gemini.APIKey, os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY"))
	c.OpenAI.APIKey = firstNonEmpty(c.OpenAI.APIKey, os.Getenv("OPENAI_API_KEY"))
	c.Doubao.APIKey = firstNonEmpty(c.Doubao.APIKey, os.Getenv("DOUBAO_API_KEY"), os.Getenv("ARK_API_KEY"))
	c.Qwen.APIKey = firstNonEmpty(c.Qwen.APIKey, os.Getenv("DASHSCOPE_API_KEY"))

	cfg = c
	return c, nil
}

func Get() *Config {
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
