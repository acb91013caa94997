package config

import (
	"fmt"
	"time"

	"sniperok/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret     string `env:"JWT_SECRET,required,notEmpty"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`

	JWTTTL         time.Duration `env:"JWT_TTL" envDefault:"24h"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"true"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	// Tracing: spans are exported over OTLP/gRPC only when an endpoint is set
	ServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"sniperok"`
	TracingEndpoint  string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Game defaults
	DefaultMaxRounds int    `env:"DEFAULT_MAX_ROUNDS" envDefault:"3"`
	WelcomeMessage   string `env:"WELCOME_MESSAGE" envDefault:"Welcome to sniperok!"`

	// Rate limits: API per IP, game actions per user
	APIRateLimit   int           `env:"API_RATE_LIMIT" envDefault:"120"`
	APIRateWindow  time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	GameRateLimit  int           `env:"GAME_RATE_LIMIT" envDefault:"60"`
	GameRateWindow time.Duration `env:"GAME_RATE_WINDOW" envDefault:"1m"`

	// websocket: events per second per connection, plus burst
	WSEventRate  float64 `env:"WS_EVENT_RATE" envDefault:"10"`
	WSEventBurst int     `env:"WS_EVENT_BURST" envDefault:"20"`

	// worldChat welcome for every registered user that connects
	WSAnnounceJoins bool `env:"WS_ANNOUNCE_JOINS" envDefault:"true"`
}

// Parse reads the config from the process environment.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.DefaultMaxRounds < 1 {
		cfg.DefaultMaxRounds = 1
	}
	if cfg.TraceSampleRatio < 0 || cfg.TraceSampleRatio > 1 {
		return nil, fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be within [0, 1], got %v", cfg.TraceSampleRatio)
	}
	return &cfg, nil
}

// Load reads .env (if present) and the environment. Exits on a bad config.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}
