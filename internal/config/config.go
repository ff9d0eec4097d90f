package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Consul   ConsulConfig
	LLM      LLMConfig
	JWT      JWTConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	ServiceName    string
	ServiceAddress string
	ServiceID      string
	AllowOrigins   []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Address    string
	Password   string
	DB         int
	SessionTTL time.Duration
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

type ConsulConfig struct {
	Address string
	Enabled bool
}

type LLMConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type JWTConfig struct {
	Secret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			GinMode:        getEnv("GIN_MODE", "debug"),
			ServiceName:    getEnv("SERVICE_NAME", "assessment-service"),
			ServiceAddress: getEnv("SERVICE_ADDRESS", "assessment-service"),
			ServiceID:      getEnv("SERVICE_NAME", "assessment-service") + "-" + getEnv("HOSTNAME", "assessment"),
			AllowOrigins:   []string{getEnv("FRONTEND_ORIGIN", "http://localhost:3000")},
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "assessment_service"),
			Timeout:  getEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Address:    getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			SessionTTL: getEnvAsDuration("SESSION_CACHE_TTL", 30*time.Minute),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", ""),
		},
		Consul: ConsulConfig{
			Address: getEnv("CONSUL_ADDR", ""),
			Enabled: getEnv("CONSUL_ADDR", "") != "",
		},
		LLM: LLMConfig{
			BaseURL:    getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:     getEnv("LLM_API_KEY", ""),
			Model:      getEnv("LLM_MODEL", "gpt-4o"),
			Timeout:    getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			MaxRetries: getEnvAsInt("LLM_MAX_RETRIES", 1),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Invalid int for %s, using default %d", key, defaultValue)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("Invalid duration for %s, using default %s", key, defaultValue)
			return defaultValue
		}
		return d
	}
	return defaultValue
}
