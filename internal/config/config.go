package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Engine   EngineConfig
	CORS     CORSConfig
	Oracle   OracleConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит настройки подключения к Redis (single mode).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит настройки токенов аутентификации.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwtSecret"`
	TokenLifetime time.Duration `mapstructure:"tokenLifetime"`
}

// EngineConfig содержит настройки игрового движка, которые в оригинале
// были захардкожены; здесь они вынесены наружу ради тестируемости.
type EngineConfig struct {
	CountdownSeconds  int           `mapstructure:"countdownSeconds"`
	EasyTimeout       time.Duration `mapstructure:"easyTimeout"`
	MediumTimeout     time.Duration `mapstructure:"mediumTimeout"`
	HardTimeout       time.Duration `mapstructure:"hardTimeout"`
	HTTPRateLimitMax  int           `mapstructure:"httpRateLimitMax"`
	HTTPRateLimitSecs int           `mapstructure:"httpRateLimitSecs"`
}

// OracleConfig содержит настройки обращения к внешнему провайдеру вопросов.
type OracleConfig struct {
	APIKey  string        `mapstructure:"apiKey"`
	APIBase string        `mapstructure:"apiBase"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CORSConfig содержит настройки CORS (Cross-Origin Resource Sharing)
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла и переменных окружения.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.SetDefault("engine.countdownSeconds", 3)
	vip.SetDefault("engine.easyTimeout", 35*time.Second)
	vip.SetDefault("engine.mediumTimeout", 30*time.Second)
	vip.SetDefault("engine.hardTimeout", 25*time.Second)
	vip.SetDefault("engine.httpRateLimitMax", 90)
	vip.SetDefault("engine.httpRateLimitSecs", 60)
	vip.SetDefault("auth.tokenLifetime", 12*time.Hour)

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")

	vip.BindEnv("auth.jwtSecret", "AUTH_JWT_SECRET")
	vip.BindEnv("auth.tokenLifetime", "AUTH_TOKEN_LIFETIME")

	vip.BindEnv("engine.countdownSeconds", "ENGINE_COUNTDOWN_SECONDS")
	vip.BindEnv("engine.easyTimeout", "ENGINE_EASY_TIMEOUT")
	vip.BindEnv("engine.mediumTimeout", "ENGINE_MEDIUM_TIMEOUT")
	vip.BindEnv("engine.hardTimeout", "ENGINE_HARD_TIMEOUT")
	vip.BindEnv("engine.httpRateLimitMax", "ENGINE_HTTP_RATE_LIMIT_MAX")
	vip.BindEnv("engine.httpRateLimitSecs", "ENGINE_HTTP_RATE_LIMIT_SECS")

	vip.BindEnv("oracle.apiKey", "ORACLE_API_KEY")
	vip.BindEnv("oracle.apiBase", "ORACLE_API_BASE")
	vip.BindEnv("oracle.model", "ORACLE_MODEL")
	vip.BindEnv("oracle.timeout", "ORACLE_TIMEOUT")

	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("[Config] Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("[Config] Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("[Config] --- Загруженные значения конфигурации ---")
		log.Printf("[Config] Database: %s/%s@%s:%s", cfg.Database.User, cfg.Database.DBName, cfg.Database.Host, cfg.Database.Port)
		log.Printf("[Config] Redis: %s", cfg.Redis.Addr)
		log.Printf("[Config] Server Port: %s", cfg.Server.Port)
		log.Printf("[Config] Engine timeouts: easy=%s medium=%s hard=%s", cfg.Engine.EasyTimeout, cfg.Engine.MediumTimeout, cfg.Engine.HardTimeout)
		log.Printf("[Config] -----------------------------------------")
	}

	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth jwt secret is required (check AUTH_JWT_SECRET env var)")
	}

	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = "debug"
	}
	if ginMode != "debug" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}

	return &cfg, nil
}
