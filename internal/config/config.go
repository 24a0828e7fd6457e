// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
	Ingest   IngestConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	LedgerTTLSeconds int
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type IngestConfig struct {
	Port            string
	CredentialsJSON string
	FolderPath      string
}

// EngineConfig carries the process-wide decision-engine constants. The
// engine itself receives an immutable copy at construction time.
type EngineConfig struct {
	LeadTimeDays      int
	InitialStock      int
	UnitCost          float64
	UnitPrice         float64
	StalenessCeiling  float64
	ForecastTimeoutMS int

	// Scenario durations in steps.
	ViralDemandDuration         int
	SupplyDisruptionDuration    int
	CompetitorPressureDuration  int
	EconomicUncertaintyDuration int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_ENABLED", false)
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "replenish")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_LEDGER_TTL_SECONDS", 30)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "decision-logs")
		viper.SetDefault("ARCHIVE_REGION", "us-east-1")
		viper.SetDefault("ARCHIVE_USE_SSL", true)
		viper.SetDefault("INGEST_PORT", "8081")
		viper.SetDefault("INGEST_CREDENTIALS_JSON", "")
		viper.SetDefault("INGEST_FOLDER_PATH", "forecasts")
		viper.SetDefault("ENGINE_LEAD_TIME_DAYS", 3)
		viper.SetDefault("ENGINE_INITIAL_STOCK", 2000)
		viper.SetDefault("ENGINE_UNIT_COST", 30.0)
		viper.SetDefault("ENGINE_UNIT_PRICE", 50.0)
		viper.SetDefault("ENGINE_STALENESS_CEILING", 8.0)
		viper.SetDefault("ENGINE_FORECAST_TIMEOUT_MS", 500)
		viper.SetDefault("SCENARIO_VIRAL_DEMAND_DURATION", 14)
		viper.SetDefault("SCENARIO_SUPPLY_DISRUPTION_DURATION", 21)
		viper.SetDefault("SCENARIO_COMPETITOR_PRESSURE_DURATION", 10)
		viper.SetDefault("SCENARIO_ECONOMIC_UNCERTAINTY_DURATION", 30)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Enabled:  viper.GetBool("DB_ENABLED"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				LedgerTTLSeconds: viper.GetInt("CACHE_LEDGER_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				Region:    viper.GetString("ARCHIVE_REGION"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
			Ingest: IngestConfig{
				Port:            viper.GetString("INGEST_PORT"),
				CredentialsJSON: viper.GetString("INGEST_CREDENTIALS_JSON"),
				FolderPath:      viper.GetString("INGEST_FOLDER_PATH"),
			},
			Engine: EngineConfig{
				LeadTimeDays:                viper.GetInt("ENGINE_LEAD_TIME_DAYS"),
				InitialStock:                viper.GetInt("ENGINE_INITIAL_STOCK"),
				UnitCost:                    viper.GetFloat64("ENGINE_UNIT_COST"),
				UnitPrice:                   viper.GetFloat64("ENGINE_UNIT_PRICE"),
				StalenessCeiling:            viper.GetFloat64("ENGINE_STALENESS_CEILING"),
				ForecastTimeoutMS:           viper.GetInt("ENGINE_FORECAST_TIMEOUT_MS"),
				ViralDemandDuration:         viper.GetInt("SCENARIO_VIRAL_DEMAND_DURATION"),
				SupplyDisruptionDuration:    viper.GetInt("SCENARIO_SUPPLY_DISRUPTION_DURATION"),
				CompetitorPressureDuration:  viper.GetInt("SCENARIO_COMPETITOR_PRESSURE_DURATION"),
				EconomicUncertaintyDuration: viper.GetInt("SCENARIO_ECONOMIC_UNCERTAINTY_DURATION"),
			},
		}
	})

	return instance
}
