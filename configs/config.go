package configs

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	config *Config
	once   sync.Once
)

type Config struct {
	Viper *viper.Viper
}

// GetConfig loads .env, config.yaml and MARKETCHAT_* environment overrides once per process.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}
		v, err := Load(".", "./configs")
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		config = &Config{Viper: v}
	})
	return config
}

// Load reads config.yaml from the given paths. A missing file is not an error;
// defaults and environment variables still apply.
func Load(paths ...string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("MARKETCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return v, nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "market_chat")
	v.SetDefault("database.ssl", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.query_timeout", 5*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.user_ttl", 10*time.Minute)

	v.SetDefault("jwt.secret", "")

	v.SetDefault("notifications.async", false)
	v.SetDefault("notifications.queue", "notifications")
	v.SetDefault("notifications.max_retry", 5)
	v.SetDefault("asynq.concurrency", 10)

	v.SetDefault("chat.recent_window", 20)
	v.SetDefault("chat.max_message_length", 4000)

	v.SetDefault("log.development", false)
}
