package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

var config *viper.Viper

// Init loads the default configuration, merges the environment-specific file
// on top of it, and applies any .env overrides.
func Init(env string) {
	_ = gotenv.Load()

	config = viper.New()
	config.SetConfigType("yaml")
	config.SetConfigName("default")
	config.AddConfigPath("config/")
	if err := config.ReadInConfig(); err != nil {
		log.Fatal("error on parsing default configuration file")
	}

	// Map environment names to config files
	configName := env
	switch env {
	case "development":
		configName = "testnet"
	case "production":
		configName = "mainnet"
	// Keep other environments as-is (e.g., "test")
	}

	envConfig := viper.New()
	envConfig.SetConfigType("yaml")
	envConfig.AddConfigPath("config/")
	envConfig.SetConfigName(configName)
	if err := envConfig.ReadInConfig(); err != nil {
		log.Fatalf("error on parsing %s configuration file: %v", configName, err)
	}

	config.MergeConfigMap(envConfig.AllSettings())
}

func GetConfig() *viper.Viper {
	return config
}

// DatabaseURL prefers the DATABASE_URL environment variable over the
// configured value.
func DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return config.GetString("database.url")
}

func HorizonBaseURL() string { return config.GetString("horizon.base_url") }

func HorizonTimeout() time.Duration { return config.GetDuration("horizon.timeout") }

func HorizonRequestsPerSecond() int { return config.GetInt("horizon.requests_per_second") }

func HorizonMaxRetries() uint64 { return config.GetUint64("horizon.max_retries") }

func CacheRefreshInterval() time.Duration { return config.GetDuration("cache.refresh_interval") }

func CacheTransactionLimit() int { return config.GetInt("cache.transaction_limit") }
